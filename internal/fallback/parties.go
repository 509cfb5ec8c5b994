package fallback

import (
	"regexp"
	"strings"

	"github.com/contractintel/contract-intel/internal/entity"
)

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	rePhone = regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`)

	// Role-labeled party lines: "Customer: Acme Inc (acme@x.com)".
	reRoleParty = regexp.MustCompile(`(?i)\b(customer|client|vendor|supplier|service provider)\s*:\s*([^\n]+)`)

	// Bare company names recognized by their legal-entity suffix.
	reLegalEntity = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'. -]*?(?:Inc\.?|LLC|L\.L\.C\.|Ltd\.?|Corp\.?|Corporation|Company|Co\.))`)

	reAccountNumber  = regexp.MustCompile(`(?i)\b(?:account\s+(?:number|no)\.?|acct)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]+)`)
	reBillingAddress = regexp.MustCompile(`(?i)\b(?:billing|invoice)\s+address\s*:\s*([^\n]+)`)
	reBillingContact = regexp.MustCompile(`(?i)\bbilling\s+contact\s*:\s*([^\n]+)`)
	reTechSupport    = regexp.MustCompile(`(?i)\btechnical\s+(?:support\s+)?contact\s*:\s*([^\n]+)`)
	reAddress        = regexp.MustCompile(`\d+\s+[A-Za-z0-9 .,-]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Place|Pl|Court|Ct|Circle|Cir)\b`)

	// Trailing noise stripped from captured party names.
	reTrailingPunct = regexp.MustCompile(`[\s.,;]+$`)

	// Name head ending in the dotted LLC spelling, with no earlier
	// terminator. Those interior dots are part of the name, not sentence
	// boundaries.
	reDottedSuffix = regexp.MustCompile(`^[^.;\n(]*\bL\.L\.C\.?`)
)

// contextWindow is how far around a matched name we look for that party's
// email, phone and address.
const contextWindow = 200

func extractParties(text string) []entity.Party {
	var parties []entity.Party

	for _, m := range reRoleParty.FindAllStringSubmatchIndex(text, -1) {
		label := text[m[2]:m[3]]
		rest := text[m[4]:m[5]]
		name := cleanPartyName(rest)
		if len(name) < 3 {
			continue
		}
		p := entity.Party{Name: name, Role: roleFor(label)}
		fillContactFromContext(text, m[0], &p)
		parties = append(parties, p)
	}

	// Companies mentioned by legal suffix without a role label. Role is
	// inferred from a nearby keyword, defaulting to third_party.
	for _, m := range reLegalEntity.FindAllStringSubmatchIndex(text, -1) {
		name := cleanPartyName(text[m[2]:m[3]])
		if len(name) < 3 {
			continue
		}
		p := entity.Party{Name: name, Role: roleFromContext(text, m[0])}
		fillContactFromContext(text, m[0], &p)
		p.LegalEntity = legalEntityFor(name)
		parties = append(parties, p)
	}

	return dedupeParties(parties)
}

func extractAccountInfo(text string) *entity.AccountInfo {
	info := entity.AccountInfo{}

	if m := reAccountNumber.FindStringSubmatch(text); m != nil {
		info.AccountNumber = strings.TrimSpace(m[1])
	}
	if m := reBillingAddress.FindStringSubmatch(text); m != nil {
		info.BillingAddress = strings.TrimSpace(m[1])
	}
	if m := reBillingContact.FindStringSubmatch(text); m != nil {
		if email := reEmail.FindString(m[1]); email != "" {
			info.ContactEmail = email
		}
	}
	if m := reTechSupport.FindStringSubmatch(text); m != nil {
		info.TechnicalSupportContact = strings.TrimSpace(m[1])
	}

	// Fall back to the first email/phone anywhere in the text.
	if info.ContactEmail == "" {
		info.ContactEmail = reEmail.FindString(text)
	}
	if info.ContactPhone == "" {
		info.ContactPhone = strings.TrimSpace(rePhone.FindString(text))
	}

	if info == (entity.AccountInfo{}) {
		return nil
	}
	return &info
}

// cleanPartyName trims a captured name down to the company/person part:
// cut at an opening parenthesis or role keyword, strip trailing punctuation.
func cleanPartyName(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	// A role-labeled capture can run into the next sentence. Cut at the
	// first terminator, keeping the dots of a dotted legal suffix
	// ("Globex L.L.C.") as part of the name; a lone suffix dot
	// ("Acme Inc.") is stripped with the other trailing punctuation
	// below, so both spellings normalize to the same name.
	if loc := reDottedSuffix.FindStringIndex(s); loc != nil {
		s = s[:loc[1]]
	} else if i := strings.IndexAny(s, ".;\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = reTrailingPunct.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func roleFor(label string) string {
	switch strings.ToLower(label) {
	case "customer", "client":
		return "customer"
	case "vendor", "supplier", "service provider":
		return "vendor"
	}
	return "third_party"
}

// roleFromContext infers a role from keywords shortly before the name.
func roleFromContext(text string, pos int) string {
	start := pos - 60
	if start < 0 {
		start = 0
	}
	before := strings.ToLower(text[start:pos])
	switch {
	case strings.Contains(before, "customer") || strings.Contains(before, "client"):
		return "customer"
	case strings.Contains(before, "vendor") || strings.Contains(before, "supplier") || strings.Contains(before, "provider"):
		return "vendor"
	}
	return "third_party"
}

func legalEntityFor(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "llc") || strings.Contains(lower, "l.l.c"):
		return "LLC"
	case strings.Contains(lower, "inc"):
		return "Corporation"
	case strings.Contains(lower, "corp"):
		return "Corporation"
	case strings.Contains(lower, "ltd"):
		return "Limited"
	}
	return ""
}

// fillContactFromContext attaches the email, phone and address nearest to
// the party mention.
func fillContactFromContext(text string, pos int, p *entity.Party) {
	start := pos - contextWindow
	if start < 0 {
		start = 0
	}
	end := pos + contextWindow
	if end > len(text) {
		end = len(text)
	}
	ctx := text[start:end]

	if p.Email == "" {
		p.Email = reEmail.FindString(ctx)
	}
	if p.Phone == "" {
		p.Phone = strings.TrimSpace(rePhone.FindString(ctx))
	}
	if p.Address == "" {
		p.Address = strings.TrimSpace(reAddress.FindString(ctx))
	}
}

// dedupeParties keeps the first occurrence per lowercased name, merging
// non-empty attributes from later duplicates into it.
func dedupeParties(parties []entity.Party) []entity.Party {
	var out []entity.Party
	index := make(map[string]int)
	for _, p := range parties {
		key := strings.ToLower(p.Name)
		if i, ok := index[key]; ok {
			mergePartyInto(&out[i], p)
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}

func mergePartyInto(dst *entity.Party, src entity.Party) {
	if dst.Role == "" || dst.Role == "third_party" && src.Role != "" && src.Role != "third_party" {
		dst.Role = src.Role
	}
	if dst.LegalEntity == "" {
		dst.LegalEntity = src.LegalEntity
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.Phone == "" {
		dst.Phone = src.Phone
	}
	if dst.Address == "" {
		dst.Address = src.Address
	}
	if dst.ContactPerson == "" {
		dst.ContactPerson = src.ContactPerson
	}
	if dst.RegistrationNumber == "" {
		dst.RegistrationNumber = src.RegistrationNumber
	}
}
