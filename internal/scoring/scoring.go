// Package scoring turns a merged contract record into an overall 0..100
// score plus a list of human-readable gaps. Gaps are advisory: a contract
// completes with gaps, it does not fail because of them.
package scoring

import (
	"log/slog"
	"math"
	"sort"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

// MandatoryThreshold is the category confidence (0..100) below which the
// category is reported as a gap.
const MandatoryThreshold = 35.0

type Engine struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Result is the scoring output for one contract.
type Result struct {
	OverallScore int      `json:"overall_score"`
	Gaps         []string `json:"gaps"`
}

// Score computes the weighted overall score and runs gap analysis.
func (e *Engine) Score(data *entity.ContractData) Result {
	res := Result{
		OverallScore: overallScore(data.ConfidenceScores),
		Gaps:         analyzeGaps(data),
	}
	e.logger.Debug("scoring.done", "score", res.OverallScore, "gaps", len(res.Gaps))
	return res
}

func overallScore(confidences map[constants.Category]float64) int {
	var weighted float64
	for cat, weight := range constants.CategoryWeights {
		conf := clamp(confidences[cat], 0, 100)
		weighted += conf * float64(weight) / 100
	}
	score := int(math.Round(weighted))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// analyzeGaps emits gap strings for every category whose confidence falls
// below the mandatory threshold. The strings name the concrete missing
// fields when the record shows which ones they are, and fall back to a
// generic low-confidence message otherwise, so the gap list and the
// below-threshold categories always correspond one-to-one.
func analyzeGaps(data *entity.ContractData) []string {
	var gaps []string

	add := func(cat constants.Category, specific []string, generic string) {
		if data.ConfidenceScores[cat] >= MandatoryThreshold {
			return
		}
		if len(specific) == 0 {
			specific = []string{generic}
		}
		gaps = append(gaps, specific...)
	}

	add(constants.PartyIdentification, partyGaps(data), "Low confidence in party identification")
	add(constants.FinancialCompleteness, financialGaps(data), "Low confidence in financial details")
	add(constants.PaymentTermsClarity, paymentGaps(data), "Low confidence in payment terms")
	add(constants.SLADefinition, slaGaps(data), "Low confidence in SLA definition")
	add(constants.ContactInformation, contactGaps(data), "Low confidence in contact information")

	if data.ContractStartDate == "" {
		gaps = append(gaps, "Missing contract start date")
	}
	if data.ContractEndDate == "" {
		gaps = append(gaps, "Missing contract end date")
	}

	sort.Strings(gaps)
	return gaps
}

func partyGaps(data *entity.ContractData) []string {
	if len(data.Parties) == 0 {
		return []string{"No contract parties identified"}
	}
	var gaps []string
	missingRole := false
	for _, p := range data.Parties {
		if p.Role == "" {
			missingRole = true
		}
	}
	if missingRole {
		gaps = append(gaps, "Contract parties missing role identification")
	}
	return gaps
}

func financialGaps(data *entity.ContractData) []string {
	fd := data.FinancialDetails
	if fd == nil {
		return []string{"Missing total contract value", "No line items or services identified"}
	}
	var gaps []string
	if fd.TotalContractValue == nil {
		gaps = append(gaps, "Missing total contract value")
	}
	if len(fd.LineItems) == 0 {
		gaps = append(gaps, "No line items or services identified")
	}
	return gaps
}

func paymentGaps(data *entity.ContractData) []string {
	pt := data.PaymentTerms
	if pt == nil {
		return []string{"Missing payment terms (Net 30, Net 60, etc.)"}
	}
	var gaps []string
	if pt.PaymentTerms == "" {
		gaps = append(gaps, "Missing payment terms (Net 30, Net 60, etc.)")
	}
	if pt.PaymentSchedule == "" {
		gaps = append(gaps, "No payment schedule defined")
	}
	return gaps
}

func slaGaps(data *entity.ContractData) []string {
	s := data.SLA
	if s == nil {
		return []string{"No SLA information found"}
	}
	var gaps []string
	if len(s.PerformanceMetrics) == 0 {
		gaps = append(gaps, "No performance metrics defined")
	}
	if s.SupportTerms == "" {
		gaps = append(gaps, "No support terms defined")
	}
	return gaps
}

func contactGaps(data *entity.ContractData) []string {
	email := ""
	if data.AccountInfo != nil {
		email = data.AccountInfo.ContactEmail
	}
	if email == "" {
		for _, p := range data.Parties {
			if p.Email != "" {
				email = p.Email
				break
			}
		}
	}
	if email == "" {
		return []string{"Missing contact email"}
	}
	return nil
}
