package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

func confidences(fin, party, pay, sla, contact float64) map[constants.Category]float64 {
	return map[constants.Category]float64{
		constants.FinancialCompleteness: fin,
		constants.PartyIdentification:   party,
		constants.PaymentTermsClarity:   pay,
		constants.SLADefinition:         sla,
		constants.ContactInformation:    contact,
	}
}

func TestOverallScoreWeights(t *testing.T) {
	// 80*0.30 + 60*0.25 + 40*0.20 + 0*0.15 + 100*0.10 = 57
	got := overallScore(confidences(80, 60, 40, 0, 100))
	assert.Equal(t, 57, got)
}

func TestScoreBounds(t *testing.T) {
	assert.Equal(t, 0, overallScore(confidences(0, 0, 0, 0, 0)))
	assert.Equal(t, 100, overallScore(confidences(100, 100, 100, 100, 100)))

	// 100 requires every category at maximum.
	assert.Less(t, overallScore(confidences(100, 100, 100, 99, 100)), 100)

	// Out-of-range inputs clamp instead of overflowing the scale.
	assert.Equal(t, 100, overallScore(confidences(250, 150, 120, 110, 105)))
	assert.Equal(t, 0, overallScore(confidences(-10, -5, 0, 0, 0)))
}

func TestScoreMissingCategoriesCountAsZero(t *testing.T) {
	got := overallScore(map[constants.Category]float64{
		constants.FinancialCompleteness: 100,
	})
	assert.Equal(t, 30, got)
}

// Gap/score correlation: every category below the threshold contributes at
// least one gap, and a fully above-threshold record with dates has none.
func TestGapScoreCorrelation(t *testing.T) {
	e := New(nil)

	low := &entity.ContractData{
		ConfidenceScores:  confidences(10, 10, 10, 10, 10),
		ContractStartDate: "1/1/2024",
		ContractEndDate:   "12/31/2025",
	}
	res := e.Score(low)
	joined := strings.Join(res.Gaps, "\n")
	assert.Contains(t, joined, "No contract parties identified")
	assert.Contains(t, joined, "Missing total contract value")
	assert.Contains(t, joined, "Missing payment terms (Net 30, Net 60, etc.)")
	assert.Contains(t, joined, "No SLA information found")
	assert.Contains(t, joined, "Missing contact email")

	high := &entity.ContractData{
		Parties:           []entity.Party{{Name: "Acme Inc", Role: "customer", Email: "a@x.com"}},
		ConfidenceScores:  confidences(90, 90, 90, 90, 90),
		ContractStartDate: "1/1/2024",
		ContractEndDate:   "12/31/2025",
	}
	assert.Empty(t, e.Score(high).Gaps)
}

func TestGapsNameSpecificMissingFields(t *testing.T) {
	e := New(nil)
	data := &entity.ContractData{
		Parties: []entity.Party{{Name: "Acme Inc"}}, // no role
		FinancialDetails: &entity.FinancialDetails{
			TotalContractValue: nil,
			LineItems:          []entity.LineItem{{Description: "Support"}},
		},
		PaymentTerms: &entity.PaymentTerms{PaymentSchedule: "Monthly"},
		SLA:          &entity.SLA{SupportTerms: "24x7"},
		ConfidenceScores: confidences(20, 20, 20, 20, 20),
	}
	res := e.Score(data)
	joined := strings.Join(res.Gaps, "\n")
	assert.Contains(t, joined, "Contract parties missing role identification")
	assert.Contains(t, joined, "Missing total contract value")
	assert.NotContains(t, joined, "No line items or services identified")
	assert.Contains(t, joined, "Missing payment terms (Net 30, Net 60, etc.)")
	assert.NotContains(t, joined, "No payment schedule defined")
	assert.Contains(t, joined, "No performance metrics defined")
	assert.NotContains(t, joined, "No support terms defined")
	assert.Contains(t, joined, "Missing contract start date")
	assert.Contains(t, joined, "Missing contract end date")
}

func TestGapsGenericWhenStructureLooksComplete(t *testing.T) {
	// Confidence below threshold but all structural fields filled: the
	// category still surfaces, with a generic low-confidence message.
	e := New(nil)
	data := &entity.ContractData{
		Parties: []entity.Party{{Name: "Acme Inc", Role: "customer", Email: "a@x.com"}},
		FinancialDetails: &entity.FinancialDetails{
			TotalContractValue: ptrFloat(1000),
			LineItems:          []entity.LineItem{{Description: "Support"}},
		},
		PaymentTerms:      &entity.PaymentTerms{PaymentTerms: "Net 30", PaymentSchedule: "Monthly"},
		SLA:               &entity.SLA{PerformanceMetrics: []string{"99.9% uptime"}, SupportTerms: "24x7"},
		ContractStartDate: "1/1/2024",
		ContractEndDate:   "12/31/2025",
		ConfidenceScores:  confidences(10, 10, 10, 10, 10),
	}
	res := e.Score(data)
	joined := strings.Join(res.Gaps, "\n")
	assert.Contains(t, joined, "Low confidence in financial details")
	assert.Contains(t, joined, "Low confidence in party identification")
	assert.Contains(t, joined, "Low confidence in payment terms")
	assert.Contains(t, joined, "Low confidence in SLA definition")
	assert.Contains(t, joined, "Low confidence in contact information")
}

// The worked example: two identified parties, a total, Net 30 terms, no SLA
// material at all. The run completes with a mid-range score and exactly the
// SLA gap.
func TestExampleScenarioEndState(t *testing.T) {
	e := New(nil)
	data := &entity.ContractData{
		Parties: []entity.Party{
			{Name: "Acme Inc", Role: "customer", Email: "acme@x.com"},
			{Name: "Globex LLC", Role: "vendor"},
		},
		FinancialDetails: &entity.FinancialDetails{
			TotalContractValue: ptrFloat(10000),
			LineItems:          []entity.LineItem{{Description: "Services", TotalPrice: ptrFloat(10000)}},
			Currency:           "USD",
		},
		PaymentTerms:      &entity.PaymentTerms{PaymentTerms: "Net 30", PaymentSchedule: "Monthly"},
		ContractStartDate: "1/1/2024",
		ContractEndDate:   "12/31/2025",
		ConfidenceScores:  confidences(80, 70, 40, 0, 50),
	}
	res := e.Score(data)

	require.Contains(t, res.Gaps, "No SLA information found")
	assert.Len(t, res.Gaps, 1)
	// 80*0.30 + 70*0.25 + 40*0.20 + 0 + 50*0.10 = 54.5 -> 55
	assert.Equal(t, 55, res.OverallScore)
	assert.GreaterOrEqual(t, res.OverallScore, 0)
	assert.LessOrEqual(t, res.OverallScore, 100)
}

func TestGapsDeterministicOrder(t *testing.T) {
	e := New(nil)
	data := &entity.ContractData{ConfidenceScores: confidences(0, 0, 0, 0, 0)}
	a := e.Score(data)
	b := e.Score(data)
	assert.Equal(t, a, b)
	assert.IsIncreasing(t, a.Gaps)
}

func ptrFloat(v float64) *float64 { return &v }
