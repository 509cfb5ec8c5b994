package fallback

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/contractintel/contract-intel/internal/entity"
)

var (
	reMoney = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d+)?)`)

	// Labeled totals, strongest label first. A labeled total always beats
	// the generic largest-amount heuristic.
	reTotalLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s+contract\s+value\s*:?\s*\$?\s?([\d,]+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)annual\s+contract\s+value\s*:?\s*\$?\s?([\d,]+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)contract\s+value\s*:?\s*\$?\s?([\d,]+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)total\s+amount\s*:?\s*\$?\s?([\d,]+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)total\s*:?\s*\$\s?([\d,]+(?:\.\d+)?)`),
	}

	reTax  = regexp.MustCompile(`(?i)\btax(?:\s+amount)?\s*:?\s*\$?\s?([\d,]+(?:\.\d+)?)`)
	reFees = regexp.MustCompile(`(?i)\b(?:additional|other)\s+fees\s*:?\s*\$?\s?([\d,]+(?:\.\d+)?)`)

	reCurrencyCode = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD)\b`)

	// Line items: "5 x Managed Server @ $120.00" or "12 user licenses x $35".
	reLineItemAt = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*([^$\n@]+?)\s*@\s*\$?\s?([\d,]+(?:\.\d+)?)`)
	reLineItemOf = regexp.MustCompile(`(?i)(\d+)\s+((?:virtual\s+)?servers?|user\s+licenses?|licenses?|seats?|hours?|units?|workstations?)\s*[x×]\s*\$?\s?([\d,]+(?:\.\d+)?)`)
	reItemEach   = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z0-9 /-]{3,60}?)\s*[:–-]\s*\$\s?([\d,]+(?:\.\d+)?)\s*each`)
)

func extractFinancialDetails(text string) *entity.FinancialDetails {
	fd := entity.FinancialDetails{}

	fd.LineItems = extractLineItems(text)
	fd.TotalContractValue = extractTotalValue(text)

	if m := reTax.FindStringSubmatch(text); m != nil {
		if v, ok := parseMoney(m[1]); ok {
			fd.TaxAmount = &v
		}
	}
	if m := reFees.FindStringSubmatch(text); m != nil {
		if v, ok := parseMoney(m[1]); ok {
			fd.AdditionalFees = &v
		}
	}

	if m := reCurrencyCode.FindString(text); m != "" {
		fd.Currency = m
	} else if reMoney.MatchString(text) {
		fd.Currency = "USD"
	}

	if fd.TotalContractValue == nil && len(fd.LineItems) == 0 &&
		fd.TaxAmount == nil && fd.AdditionalFees == nil && fd.Currency == "" {
		return nil
	}
	return &fd
}

// extractTotalValue prefers a labeled total; otherwise it falls back to the
// most repeated currency amount in the text, with the largest amount
// breaking ties. Overlapping chunks repeat a real total, so repetition is
// signal rather than noise here.
func extractTotalValue(text string) *float64 {
	for _, re := range reTotalLabels {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := parseMoney(m[1]); ok {
				return &v
			}
		}
	}

	counts := make(map[float64]int)
	var best *float64
	bestCount := 0
	for _, m := range reMoney.FindAllStringSubmatch(text, -1) {
		v, ok := parseMoney(m[1])
		if !ok {
			continue
		}
		counts[v]++
		if counts[v] > bestCount || (counts[v] == bestCount && (best == nil || v > *best)) {
			val := v
			best = &val
			bestCount = counts[v]
		}
	}
	return best
}

func extractLineItems(text string) []entity.LineItem {
	var items []entity.LineItem

	add := func(desc string, qty, unit float64) {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			return
		}
		total := qty * unit
		items = append(items, entity.LineItem{
			Description: desc,
			Quantity:    &qty,
			UnitPrice:   &unit,
			TotalPrice:  &total,
		})
	}

	for _, m := range reLineItemAt.FindAllStringSubmatch(text, -1) {
		qty, err1 := strconv.ParseFloat(m[1], 64)
		unit, ok := parseMoney(m[3])
		if err1 != nil || !ok {
			continue
		}
		add(m[2], qty, unit)
	}
	for _, m := range reLineItemOf.FindAllStringSubmatch(text, -1) {
		qty, err1 := strconv.ParseFloat(m[1], 64)
		unit, ok := parseMoney(m[3])
		if err1 != nil || !ok {
			continue
		}
		add(m[2], qty, unit)
	}
	for _, m := range reItemEach.FindAllStringSubmatch(text, -1) {
		unit, ok := parseMoney(m[2])
		if !ok {
			continue
		}
		add(m[1], 1, unit)
	}
	return items
}

func parseMoney(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
