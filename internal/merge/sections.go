package merge

import (
	"strings"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

// NormalizeName produces the dedup key for a party name: case-folded, legal
// suffix stripped, punctuation removed. "Acme Inc." and "ACME, Inc" collide.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', ';', ':', '\'', '"':
			return -1
		}
		return r
	}, s)
	words := strings.Fields(s)
	if len(words) > 1 {
		switch words[len(words)-1] {
		case "inc", "llc", "ltd", "corp", "corporation", "company", "co", "gmbh", "plc":
			words = words[:len(words)-1]
		}
	}
	return strings.Join(words, " ")
}

// mergeParties dedupes across fragments by normalized name. The first
// occurrence in canonical order anchors the party; later occurrences fill
// empty attributes and override filled ones only when they come from a
// fragment with higher party confidence.
func mergeParties(frags []entity.Fragment) []entity.Party {
	var out []entity.Party
	index := make(map[string]int)
	anchorConf := make(map[string]float64)

	for i := range frags {
		c := conf(&frags[i], constants.PartyIdentification)
		for _, p := range frags[i].Parties {
			key := NormalizeName(p.Name)
			if key == "" {
				continue
			}
			at, seen := index[key]
			if !seen {
				index[key] = len(out)
				anchorConf[key] = c
				out = append(out, p)
				continue
			}
			override := c > anchorConf[key]
			mergeParty(&out[at], p, override)
			if override {
				anchorConf[key] = c
			}
		}
	}
	return out
}

// mergeParty folds src into dst. Empty dst fields always take src's value;
// filled ones are replaced only when override is set.
func mergeParty(dst *entity.Party, src entity.Party, override bool) {
	set := func(d *string, s string) {
		if s == "" {
			return
		}
		if *d == "" || override {
			*d = s
		}
	}
	set(&dst.Name, src.Name)
	set(&dst.Role, src.Role)
	set(&dst.LegalEntity, src.LegalEntity)
	set(&dst.RegistrationNumber, src.RegistrationNumber)
	set(&dst.Address, src.Address)
	set(&dst.ContactPerson, src.ContactPerson)
	set(&dst.Email, src.Email)
	set(&dst.Phone, src.Phone)
}

func mergeAccountInfo(frags []entity.Fragment) *entity.AccountInfo {
	cat := constants.ContactInformation
	sub := func(f *entity.Fragment) *entity.AccountInfo { return f.AccountInfo }

	ai := entity.AccountInfo{
		AccountNumber: pickString(frags, cat, func(f *entity.Fragment) string {
			if a := sub(f); a != nil {
				return a.AccountNumber
			}
			return ""
		}),
		BillingAddress: pickString(frags, cat, func(f *entity.Fragment) string {
			if a := sub(f); a != nil {
				return a.BillingAddress
			}
			return ""
		}),
		ContactEmail: pickString(frags, cat, func(f *entity.Fragment) string {
			if a := sub(f); a != nil {
				return a.ContactEmail
			}
			return ""
		}),
		ContactPhone: pickString(frags, cat, func(f *entity.Fragment) string {
			if a := sub(f); a != nil {
				return a.ContactPhone
			}
			return ""
		}),
		TechnicalSupportContact: pickString(frags, cat, func(f *entity.Fragment) string {
			if a := sub(f); a != nil {
				return a.TechnicalSupportContact
			}
			return ""
		}),
	}
	if ai == (entity.AccountInfo{}) {
		return nil
	}
	return &ai
}

func mergeFinancialDetails(frags []entity.Fragment) *entity.FinancialDetails {
	cat := constants.FinancialCompleteness

	fd := entity.FinancialDetails{
		LineItems: mergeLineItems(frags),
		TotalContractValue: pickFloat(frags, cat, func(f *entity.Fragment) *float64 {
			if d := f.FinancialDetails; d != nil {
				return d.TotalContractValue
			}
			return nil
		}),
		Currency: pickString(frags, cat, func(f *entity.Fragment) string {
			if d := f.FinancialDetails; d != nil {
				return d.Currency
			}
			return ""
		}),
		TaxAmount: pickFloat(frags, cat, func(f *entity.Fragment) *float64 {
			if d := f.FinancialDetails; d != nil {
				return d.TaxAmount
			}
			return nil
		}),
		AdditionalFees: pickFloat(frags, cat, func(f *entity.Fragment) *float64 {
			if d := f.FinancialDetails; d != nil {
				return d.AdditionalFees
			}
			return nil
		}),
	}
	if len(fd.LineItems) == 0 && fd.TotalContractValue == nil &&
		fd.Currency == "" && fd.TaxAmount == nil && fd.AdditionalFees == nil {
		return nil
	}
	return &fd
}

// lineItemKey identifies a line item for dedup. Two chunks reporting the
// same description, unit price and quantity saw the same item through
// overlap, not two purchases.
type lineItemKey struct {
	desc  string
	unit  float64
	qty   float64
	hasUP bool
	hasQ  bool
}

func keyFor(it entity.LineItem) lineItemKey {
	k := lineItemKey{desc: strings.ToLower(strings.TrimSpace(it.Description))}
	if it.UnitPrice != nil {
		k.unit, k.hasUP = *it.UnitPrice, true
	}
	if it.Quantity != nil {
		k.qty, k.hasQ = *it.Quantity, true
	}
	return k
}

func mergeLineItems(frags []entity.Fragment) []entity.LineItem {
	var out []entity.LineItem
	seen := make(map[lineItemKey]bool)
	for i := range frags {
		if frags[i].FinancialDetails == nil {
			continue
		}
		for _, it := range frags[i].FinancialDetails.LineItems {
			k := keyFor(it)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, it)
		}
	}
	return out
}

func mergePaymentTerms(frags []entity.Fragment) *entity.PaymentTerms {
	cat := constants.PaymentTermsClarity

	pt := entity.PaymentTerms{
		PaymentTerms: pickString(frags, cat, func(f *entity.Fragment) string {
			if p := f.PaymentTerms; p != nil {
				return p.PaymentTerms
			}
			return ""
		}),
		PaymentSchedule: pickString(frags, cat, func(f *entity.Fragment) string {
			if p := f.PaymentTerms; p != nil {
				return p.PaymentSchedule
			}
			return ""
		}),
		DueDates: mergeUnique(frags, func(f *entity.Fragment) []string {
			if p := f.PaymentTerms; p != nil {
				return p.DueDates
			}
			return nil
		}),
		PaymentMethods: mergeUnique(frags, func(f *entity.Fragment) []string {
			if p := f.PaymentTerms; p != nil {
				return p.PaymentMethods
			}
			return nil
		}),
		BankingDetails: pickString(frags, cat, func(f *entity.Fragment) string {
			if p := f.PaymentTerms; p != nil {
				return p.BankingDetails
			}
			return ""
		}),
	}
	if pt.PaymentTerms == "" && pt.PaymentSchedule == "" && len(pt.DueDates) == 0 &&
		len(pt.PaymentMethods) == 0 && pt.BankingDetails == "" {
		return nil
	}
	return &pt
}

func mergeRevenue(frags []entity.Fragment) *entity.RevenueClassification {
	cat := constants.PaymentTermsClarity

	rc := entity.RevenueClassification{
		PaymentType: pickString(frags, cat, func(f *entity.Fragment) string {
			if r := f.RevenueClassification; r != nil {
				return r.PaymentType
			}
			return ""
		}),
		BillingCycle: pickString(frags, cat, func(f *entity.Fragment) string {
			if r := f.RevenueClassification; r != nil {
				return r.BillingCycle
			}
			return ""
		}),
		SubscriptionModel: pickString(frags, cat, func(f *entity.Fragment) string {
			if r := f.RevenueClassification; r != nil {
				return r.SubscriptionModel
			}
			return ""
		}),
		RenewalTerms: pickString(frags, cat, func(f *entity.Fragment) string {
			if r := f.RevenueClassification; r != nil {
				return r.RenewalTerms
			}
			return ""
		}),
		AutoRenewal: pickBool(frags, cat, func(f *entity.Fragment) *bool {
			if r := f.RevenueClassification; r != nil {
				return r.AutoRenewal
			}
			return nil
		}),
	}
	if rc == (entity.RevenueClassification{}) {
		return nil
	}
	return &rc
}

func mergeSLA(frags []entity.Fragment) *entity.SLA {
	cat := constants.SLADefinition

	sla := entity.SLA{
		PerformanceMetrics: mergeUnique(frags, func(f *entity.Fragment) []string {
			if s := f.SLA; s != nil {
				return s.PerformanceMetrics
			}
			return nil
		}),
		Benchmarks: mergeUnique(frags, func(f *entity.Fragment) []string {
			if s := f.SLA; s != nil {
				return s.Benchmarks
			}
			return nil
		}),
		PenaltyClauses: mergeUnique(frags, func(f *entity.Fragment) []string {
			if s := f.SLA; s != nil {
				return s.PenaltyClauses
			}
			return nil
		}),
		Remedies: mergeUnique(frags, func(f *entity.Fragment) []string {
			if s := f.SLA; s != nil {
				return s.Remedies
			}
			return nil
		}),
		SupportTerms: pickString(frags, cat, func(f *entity.Fragment) string {
			if s := f.SLA; s != nil {
				return s.SupportTerms
			}
			return ""
		}),
		MaintenanceTerms: pickString(frags, cat, func(f *entity.Fragment) string {
			if s := f.SLA; s != nil {
				return s.MaintenanceTerms
			}
			return ""
		}),
	}
	if len(sla.PerformanceMetrics) == 0 && len(sla.Benchmarks) == 0 &&
		len(sla.PenaltyClauses) == 0 && len(sla.Remedies) == 0 &&
		sla.SupportTerms == "" && sla.MaintenanceTerms == "" {
		return nil
	}
	return &sla
}

// mergeUnique unions list values across fragments in canonical order,
// dropping case-insensitive duplicates from overlapping chunks.
func mergeUnique(frags []entity.Fragment, get func(*entity.Fragment) []string) []string {
	var out []string
	seen := make(map[string]bool)
	for i := range frags {
		for _, v := range get(&frags[i]) {
			k := strings.ToLower(strings.TrimSpace(v))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}
