package merge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

func f64(v float64) *float64 { return &v }

func fragA() entity.Fragment {
	return entity.Fragment{
		Source:     entity.SourceAI,
		ChunkIndex: 0,
		Parties: []entity.Party{
			{Name: "Acme Inc", Role: "customer"},
		},
		FinancialDetails: &entity.FinancialDetails{
			TotalContractValue: f64(10000),
			Currency:           "USD",
			LineItems: []entity.LineItem{
				{Description: "Managed Server", Quantity: f64(5), UnitPrice: f64(120)},
			},
		},
		ContractStartDate: "January 1, 2024",
		ConfidenceByCategory: map[constants.Category]float64{
			constants.FinancialCompleteness: 80,
			constants.PartyIdentification:   60,
		},
	}
}

func fragB() entity.Fragment {
	return entity.Fragment{
		Source:     entity.SourceAI,
		ChunkIndex: 1,
		Parties: []entity.Party{
			// Same party under a slightly different spelling, with new detail.
			{Name: "ACME, Inc.", Role: "customer", Email: "billing@acme.example"},
			{Name: "Globex LLC", Role: "vendor"},
		},
		FinancialDetails: &entity.FinancialDetails{
			TotalContractValue: f64(12000),
			LineItems: []entity.LineItem{
				{Description: "Managed Server", Quantity: f64(5), UnitPrice: f64(120)}, // overlap duplicate
				{Description: "Support Plan", Quantity: f64(1), UnitPrice: f64(500)},
			},
		},
		PaymentTerms: &entity.PaymentTerms{PaymentTerms: "Net 30", PaymentMethods: []string{"ACH Transfer"}},
		ConfidenceByCategory: map[constants.Category]float64{
			constants.FinancialCompleteness: 50,
			constants.PartyIdentification:   75,
			constants.PaymentTermsClarity:   40,
		},
	}
}

func fragC() entity.Fragment {
	return entity.Fragment{
		Source:     entity.SourceFallback,
		ChunkIndex: 2,
		SLA: &entity.SLA{
			PerformanceMetrics: []string{"99.9% uptime"},
			SupportTerms:       "24x7 via email",
		},
		PaymentTerms:    &entity.PaymentTerms{PaymentMethods: []string{"ach transfer", "Wire Transfer"}},
		ContractEndDate: "12/31/2025",
		ConfidenceByCategory: map[constants.Category]float64{
			constants.SLADefinition:       55,
			constants.PaymentTermsClarity: 20,
		},
	}
}

func TestMergeHighestConfidenceScalarWins(t *testing.T) {
	e := New(nil)
	data := e.Merge([]entity.Fragment{fragA(), fragB()})

	// Chunk 0 has the higher financial confidence, so its total wins even
	// though chunk 1 disagrees.
	require.NotNil(t, data.FinancialDetails)
	require.NotNil(t, data.FinancialDetails.TotalContractValue)
	assert.Equal(t, 10000.0, *data.FinancialDetails.TotalContractValue)
	assert.Equal(t, "USD", data.FinancialDetails.Currency)
}

func TestMergeEarliestChunkBreaksTies(t *testing.T) {
	a := fragA()
	b := fragB()
	b.ConfidenceByCategory[constants.FinancialCompleteness] = 80 // tie with a

	e := New(nil)
	for _, frags := range [][]entity.Fragment{{a, b}, {b, a}} {
		data := e.Merge(frags)
		require.NotNil(t, data.FinancialDetails.TotalContractValue)
		assert.Equal(t, 10000.0, *data.FinancialDetails.TotalContractValue,
			"tie must resolve to the earlier chunk regardless of input order")
	}
}

func TestMergePartyDedup(t *testing.T) {
	e := New(nil)
	data := e.Merge([]entity.Fragment{fragA(), fragB()})

	require.Len(t, data.Parties, 2)
	byName := map[string]entity.Party{}
	for _, p := range data.Parties {
		byName[NormalizeName(p.Name)] = p
	}

	acme, ok := byName["acme"]
	require.True(t, ok, "parties: %+v", data.Parties)
	assert.Equal(t, "customer", acme.Role)
	// Chunk 1 has higher party confidence, so its spelling and email win.
	assert.Equal(t, "ACME, Inc.", acme.Name)
	assert.Equal(t, "billing@acme.example", acme.Email)

	_, ok = byName["globex"]
	assert.True(t, ok)
}

func TestMergePartyFillWithoutOverride(t *testing.T) {
	a := fragA()
	b := fragB()
	// Make chunk 0 the stronger party evidence: chunk 1 may still fill the
	// missing email but must not replace the anchored name.
	a.ConfidenceByCategory[constants.PartyIdentification] = 90

	e := New(nil)
	data := e.Merge([]entity.Fragment{a, b})

	var acme *entity.Party
	for i := range data.Parties {
		if NormalizeName(data.Parties[i].Name) == "acme" {
			acme = &data.Parties[i]
		}
	}
	require.NotNil(t, acme)
	assert.Equal(t, "Acme Inc", acme.Name)
	assert.Equal(t, "billing@acme.example", acme.Email)
}

func TestMergeLineItemDedup(t *testing.T) {
	e := New(nil)
	data := e.Merge([]entity.Fragment{fragA(), fragB()})

	require.NotNil(t, data.FinancialDetails)
	require.Len(t, data.FinancialDetails.LineItems, 2)
	descs := []string{
		data.FinancialDetails.LineItems[0].Description,
		data.FinancialDetails.LineItems[1].Description,
	}
	assert.Contains(t, descs, "Managed Server")
	assert.Contains(t, descs, "Support Plan")
}

func TestMergeListUnionCaseInsensitive(t *testing.T) {
	e := New(nil)
	data := e.Merge([]entity.Fragment{fragB(), fragC()})

	require.NotNil(t, data.PaymentTerms)
	assert.Equal(t, []string{"ACH Transfer", "Wire Transfer"}, data.PaymentTerms.PaymentMethods)
}

func TestMergeCategoryConfidenceIsMax(t *testing.T) {
	e := New(nil)
	data := e.Merge([]entity.Fragment{fragA(), fragB(), fragC()})

	assert.Equal(t, 80.0, data.ConfidenceScores[constants.FinancialCompleteness])
	assert.Equal(t, 75.0, data.ConfidenceScores[constants.PartyIdentification])
	assert.Equal(t, 40.0, data.ConfidenceScores[constants.PaymentTermsClarity])
	assert.Equal(t, 55.0, data.ConfidenceScores[constants.SLADefinition])
	assert.Equal(t, 0.0, data.ConfidenceScores[constants.ContactInformation])
}

func TestMergePermutationInvariant(t *testing.T) {
	e := New(nil)
	base := []entity.Fragment{fragA(), fragB(), fragC()}
	want := e.Merge(base)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]entity.Fragment, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, want, e.Merge(shuffled), "trial %d", trial)
	}
}

func TestMergeEmptyAndSingle(t *testing.T) {
	e := New(nil)

	empty := e.Merge(nil)
	assert.Empty(t, empty.Parties)
	assert.Nil(t, empty.FinancialDetails)
	for _, cat := range constants.Categories() {
		assert.Zero(t, empty.ConfidenceScores[cat])
	}

	single := e.Merge([]entity.Fragment{fragA()})
	require.Len(t, single.Parties, 1)
	assert.Equal(t, "January 1, 2024", single.ContractStartDate)
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Acme Inc.":        "acme",
		"ACME, Inc":        "acme",
		"acme":             "acme",
		"Globex LLC":       "globex",
		"Initech Corp.":    "initech",
		"Wayne Industries": "wayne industries",
		"  Co  ":           "co", // a lone suffix word is a name, not a suffix
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), "input %q", in)
	}
}
