package fallback

import (
	"regexp"
	"strings"

	"github.com/contractintel/contract-intel/internal/entity"
)

var (
	reUptimePct    = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s?%\s*(?:uptime|availability)?`)
	reResponseTime = regexp.MustCompile(`(?i)(\d+)\s*(?:hour|hr|minute|min)s?\s+(?:response|resolution)\s+time`)
	reSupportTerms = regexp.MustCompile(`(?i)\b(?:technical\s+support|support\s+terms|support\s+hours)\s*:?\s*([^\n.]+)`)
	reMaintenance  = regexp.MustCompile(`(?i)\bmaintenance\s+(?:terms|window|agreement)\s*:?\s*([^\n.]+)`)
)

// slaSentenceNeedles mark sentences worth capturing as free-text SLA
// material even when no structured pattern matches.
var slaSentenceNeedles = []string{
	"uptime",
	"response time",
	"resolution time",
	"availability",
}

var penaltyNeedles = []string{"penalty", "liquidated damages", "service credit", "credit"}

func extractSLA(text string) *entity.SLA {
	sla := entity.SLA{}

	// Structured metrics first.
	if m := reUptimePct.FindStringSubmatch(text); m != nil {
		sla.PerformanceMetrics = append(sla.PerformanceMetrics, m[1]+"% uptime")
	}
	if m := reResponseTime.FindStringSubmatch(text); m != nil {
		sla.PerformanceMetrics = append(sla.PerformanceMetrics, strings.TrimSpace(m[0]))
	}

	// Then sentence capture for anything the patterns miss.
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		if containsAny(lower, slaSentenceNeedles) && !alreadyCaptured(sla.PerformanceMetrics, sentence) {
			sla.PerformanceMetrics = appendBounded(sla.PerformanceMetrics, sentence)
		}
		if containsAny(lower, penaltyNeedles) {
			sla.PenaltyClauses = appendBounded(sla.PenaltyClauses, sentence)
		}
	}

	if m := reSupportTerms.FindStringSubmatch(text); m != nil {
		sla.SupportTerms = strings.TrimSpace(m[1])
	}
	if m := reMaintenance.FindStringSubmatch(text); m != nil {
		sla.MaintenanceTerms = strings.TrimSpace(m[1])
	}

	if len(sla.PerformanceMetrics) == 0 && len(sla.PenaltyClauses) == 0 &&
		sla.SupportTerms == "" && sla.MaintenanceTerms == "" {
		return nil
	}
	return &sla
}

// maxCapturedSentences bounds free-text capture so a pathological document
// cannot bloat the fragment.
const maxCapturedSentences = 10

func appendBounded(list []string, s string) []string {
	if len(list) >= maxCapturedSentences {
		return list
	}
	return append(list, strings.TrimSpace(s))
}

func alreadyCaptured(list []string, sentence string) bool {
	for _, m := range list {
		if strings.Contains(sentence, m) || strings.Contains(m, sentence) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			s := strings.TrimSpace(text[start:i])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
