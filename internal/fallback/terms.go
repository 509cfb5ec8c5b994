package fallback

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/contractintel/contract-intel/internal/entity"
)

var (
	reNetTerms  = regexp.MustCompile(`(?i)\bnet\s+(\d{1,3})\b`)
	reDueOn     = regexp.MustCompile(`(?i)due\s+upon\s+receipt`)
	reDate      = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)
	reLongDate  = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)
	reBanking   = regexp.MustCompile(`(?i)\b(?:banking|bank)\s+details\s*:\s*([^\n]+)`)
	reStartDate = regexp.MustCompile(`(?i)\b(?:effective|commencement|start)\s+date\s*:?\s*([^\n;]+)`)
	reEndDate   = regexp.MustCompile(`(?i)\b(?:expiration|termination|end)\s+date\s*:?\s*([^\n;]+)`)

	paymentMethodVocab = []struct{ needle, method string }{
		{"ach", "ACH Transfer"},
		{"wire transfer", "Wire Transfer"},
		{"bank transfer", "Bank Transfer"},
		{"credit card", "Credit Card"},
		{"check", "Check"},
	}

	contractTypeVocab = []string{
		"service agreement",
		"purchase order",
		"license agreement",
		"maintenance contract",
		"consulting agreement",
		"supply agreement",
		"subscription agreement",
	}
)

// maxDueDates caps how many raw date matches we attribute to payment terms.
const maxDueDates = 5

func extractPaymentTerms(text string) *entity.PaymentTerms {
	pt := entity.PaymentTerms{}
	lower := strings.ToLower(text)

	if m := reNetTerms.FindStringSubmatch(text); m != nil {
		pt.PaymentTerms = fmt.Sprintf("Net %s", m[1])
	} else if reDueOn.MatchString(text) {
		pt.PaymentTerms = "Due upon receipt"
	}

	switch {
	case strings.Contains(lower, "monthly"):
		pt.PaymentSchedule = "Monthly"
	case strings.Contains(lower, "quarterly"):
		pt.PaymentSchedule = "Quarterly"
	case strings.Contains(lower, "annual"):
		pt.PaymentSchedule = "Annual"
	}

	dates := reDate.FindAllString(text, maxDueDates)
	pt.DueDates = dates

	for _, pm := range paymentMethodVocab {
		if strings.Contains(lower, pm.needle) {
			pt.PaymentMethods = append(pt.PaymentMethods, pm.method)
		}
	}

	if m := reBanking.FindStringSubmatch(text); m != nil {
		pt.BankingDetails = strings.TrimSpace(m[1])
	}

	if pt.PaymentTerms == "" && pt.PaymentSchedule == "" && len(pt.DueDates) == 0 &&
		len(pt.PaymentMethods) == 0 && pt.BankingDetails == "" {
		return nil
	}
	return &pt
}

func extractRevenueClassification(text string) *entity.RevenueClassification {
	lower := strings.ToLower(text)

	recurring := strings.Contains(lower, "recurring") || strings.Contains(lower, "subscription") ||
		strings.Contains(lower, "monthly") || strings.Contains(lower, "quarterly") ||
		strings.Contains(lower, "annually")
	oneTime := strings.Contains(lower, "one-time") || strings.Contains(lower, "one time") ||
		strings.Contains(lower, "single payment")

	rc := entity.RevenueClassification{}
	switch {
	case recurring && oneTime:
		rc.PaymentType = "mixed"
	case recurring:
		rc.PaymentType = "recurring"
	case oneTime:
		rc.PaymentType = "one_time"
	}

	switch {
	case strings.Contains(lower, "monthly"):
		rc.BillingCycle = "monthly"
	case strings.Contains(lower, "quarterly"):
		rc.BillingCycle = "quarterly"
	case strings.Contains(lower, "annually") || strings.Contains(lower, "annual billing"):
		rc.BillingCycle = "annually"
	}

	if strings.Contains(lower, "subscription") {
		rc.SubscriptionModel = "subscription"
	}

	if strings.Contains(lower, "auto renewal") || strings.Contains(lower, "auto-renew") ||
		strings.Contains(lower, "automatic renewal") {
		t := true
		rc.AutoRenewal = &t
	} else if strings.Contains(lower, "no auto renewal") || strings.Contains(lower, "manual renewal") {
		f := false
		rc.AutoRenewal = &f
	}

	if rc == (entity.RevenueClassification{}) {
		return nil
	}
	return &rc
}

func extractStartDate(text string) string {
	if m := reStartDate.FindStringSubmatch(text); m != nil {
		return trimDateValue(m[1])
	}
	return ""
}

func extractEndDate(text string) string {
	if m := reEndDate.FindStringSubmatch(text); m != nil {
		return trimDateValue(m[1])
	}
	return ""
}

// trimDateValue prefers a recognizable date inside the captured tail,
// otherwise returns the trimmed capture.
func trimDateValue(s string) string {
	if d := reLongDate.FindString(s); d != "" {
		return d
	}
	if d := reDate.FindString(s); d != "" {
		return d
	}
	return strings.TrimSpace(s)
}

func extractContractType(text string) string {
	lower := strings.ToLower(text)
	for _, ct := range contractTypeVocab {
		if strings.Contains(lower, ct) {
			return titleCase(ct)
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
