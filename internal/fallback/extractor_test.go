package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

const sampleContract = `SERVICE AGREEMENT

Service Provider: CloudHost Solutions Inc. Contact: support@cloudhost.example (555) 123-4567
Customer: Meridian Retail LLC. Billing Contact: ap@meridian.example

Account Number: ACC-2024-0042
Billing Address: 1200 Commerce Street, Dallas

Effective Date: January 1, 2024
Termination Date: 12/31/2025

Services: 10 virtual servers x $250.00 per month
Total Contract Value: $30,000
Tax: $2,400
Payment Terms: Net 30. Invoices issued monthly, payable by ACH.

The vendor guarantees 99.9% uptime with a 4 hour response time.
A penalty of 5% service credit applies for each missed target.
Technical Support: 24x7 via email and phone.
This agreement auto-renews annually unless terminated.`

func TestExtractNeverFails(t *testing.T) {
	e := New(nil)

	for _, text := range []string{"", "   ", "no structured data here at all", "\n\n\n"} {
		frag := e.Extract(text, WholeDocument)
		assert.Equal(t, entity.SourceFallback, frag.Source)
		require.NotNil(t, frag.ConfidenceByCategory)
		for cat, conf := range frag.ConfidenceByCategory {
			assert.GreaterOrEqual(t, conf, 0.0, "category %s", cat)
			assert.LessOrEqual(t, conf, 100.0, "category %s", cat)
		}
	}
}

func TestExtractEmptyTextZeroConfidence(t *testing.T) {
	e := New(nil)
	frag := e.Extract("", 0)

	assert.Empty(t, frag.Parties)
	assert.Nil(t, frag.FinancialDetails)
	assert.Nil(t, frag.PaymentTerms)
	assert.Nil(t, frag.SLA)
	for cat, conf := range frag.ConfidenceByCategory {
		assert.Zero(t, conf, "category %s", cat)
	}
}

// The worked example from the product requirements: one short chunk with two
// parties, a total and payment terms, and no SLA material.
func TestExtractExampleScenario(t *testing.T) {
	e := New(nil)
	text := "Customer: Acme Inc (acme@x.com). Vendor: Globex LLC. Total: $10,000. Payment Terms: Net 30."
	frag := e.Extract(text, 0)

	require.Len(t, frag.Parties, 2)
	byName := map[string]entity.Party{}
	for _, p := range frag.Parties {
		byName[p.Name] = p
	}
	acme, ok := byName["Acme Inc"]
	require.True(t, ok, "expected Acme Inc, got %+v", frag.Parties)
	assert.Equal(t, "customer", acme.Role)
	assert.Equal(t, "acme@x.com", acme.Email)

	globex, ok := byName["Globex LLC"]
	require.True(t, ok, "expected Globex LLC, got %+v", frag.Parties)
	assert.Equal(t, "vendor", globex.Role)

	require.NotNil(t, frag.FinancialDetails)
	require.NotNil(t, frag.FinancialDetails.TotalContractValue)
	assert.Equal(t, 10000.0, *frag.FinancialDetails.TotalContractValue)

	require.NotNil(t, frag.PaymentTerms)
	assert.Equal(t, "Net 30", frag.PaymentTerms.PaymentTerms)

	assert.Nil(t, frag.SLA)
	assert.Zero(t, frag.ConfidenceByCategory[constants.SLADefinition])
	assert.Greater(t, frag.ConfidenceByCategory[constants.PartyIdentification], 35.0)
	assert.Greater(t, frag.ConfidenceByCategory[constants.PaymentTermsClarity], 35.0)
	assert.Greater(t, frag.ConfidenceByCategory[constants.ContactInformation], 35.0)
}

func TestExtractSampleContract(t *testing.T) {
	e := New(nil)
	frag := e.Extract(sampleContract, WholeDocument)

	// Parties with roles inferred from labels.
	require.NotEmpty(t, frag.Parties)
	roles := map[string]string{}
	for _, p := range frag.Parties {
		roles[p.Name] = p.Role
	}
	assert.Equal(t, "vendor", roles["CloudHost Solutions Inc"])
	assert.Equal(t, "customer", roles["Meridian Retail LLC"])

	// Account info.
	require.NotNil(t, frag.AccountInfo)
	assert.Equal(t, "ACC-2024-0042", frag.AccountInfo.AccountNumber)
	assert.NotEmpty(t, frag.AccountInfo.ContactEmail)

	// Financials: labeled total wins, line item parsed.
	require.NotNil(t, frag.FinancialDetails)
	require.NotNil(t, frag.FinancialDetails.TotalContractValue)
	assert.Equal(t, 30000.0, *frag.FinancialDetails.TotalContractValue)
	require.NotEmpty(t, frag.FinancialDetails.LineItems)
	item := frag.FinancialDetails.LineItems[0]
	require.NotNil(t, item.Quantity)
	require.NotNil(t, item.UnitPrice)
	assert.Equal(t, 10.0, *item.Quantity)
	assert.Equal(t, 250.0, *item.UnitPrice)
	require.NotNil(t, frag.FinancialDetails.TaxAmount)
	assert.Equal(t, 2400.0, *frag.FinancialDetails.TaxAmount)

	// Payment terms.
	require.NotNil(t, frag.PaymentTerms)
	assert.Equal(t, "Net 30", frag.PaymentTerms.PaymentTerms)
	assert.Equal(t, "Monthly", frag.PaymentTerms.PaymentSchedule)
	assert.Contains(t, frag.PaymentTerms.PaymentMethods, "ACH Transfer")

	// Revenue classification.
	require.NotNil(t, frag.RevenueClassification)
	assert.Equal(t, "recurring", frag.RevenueClassification.PaymentType)
	require.NotNil(t, frag.RevenueClassification.AutoRenewal)
	assert.True(t, *frag.RevenueClassification.AutoRenewal)

	// SLA.
	require.NotNil(t, frag.SLA)
	assert.NotEmpty(t, frag.SLA.PerformanceMetrics)
	assert.Contains(t, strings.Join(frag.SLA.PerformanceMetrics, " "), "uptime")
	assert.NotEmpty(t, frag.SLA.PenaltyClauses)
	assert.NotEmpty(t, frag.SLA.SupportTerms)

	// Dates and type.
	assert.Equal(t, "January 1, 2024", frag.ContractStartDate)
	assert.Equal(t, "12/31/2025", frag.ContractEndDate)
	assert.Equal(t, "Service Agreement", frag.ContractType)
}

func TestCleanPartyName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Inc (acme@x.com). Vendor: Globex", "Acme Inc"},
		{"Acme Inc. Payment Terms: Net 30", "Acme Inc"},
		{"Globex L.L.C. provides all services", "Globex L.L.C"},
		{"Globex L.L.C.; see schedule A", "Globex L.L.C"},
		{"Meridian Retail LLC,", "Meridian Retail LLC"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanPartyName(tc.in), "input %q", tc.in)
	}
}

// Dotted and undotted suffix spellings must land on the same deduped party.
func TestExtractDottedLegalSuffix(t *testing.T) {
	e := New(nil)
	frag := e.Extract("Vendor: Globex L.L.C. All invoices go to billing@globex.example.", 0)

	require.Len(t, frag.Parties, 1)
	assert.Equal(t, "Globex L.L.C", frag.Parties[0].Name)
	assert.Equal(t, "vendor", frag.Parties[0].Role)
	assert.Equal(t, "LLC", frag.Parties[0].LegalEntity)
}

func TestExtractDeterministic(t *testing.T) {
	e := New(nil)
	a := e.Extract(sampleContract, 3)
	b := e.Extract(sampleContract, 3)
	assert.Equal(t, a, b)
}

func TestTotalValueMostRepeatedWins(t *testing.T) {
	// No labeled total: the amount repeated across overlapping windows wins
	// over a larger one-off number.
	text := "Fee: $5,000 due quarterly. The fee of $5,000 recurs. A cap of $9,999 applies once."
	v := extractTotalValue(text)
	require.NotNil(t, v)
	assert.Equal(t, 5000.0, *v)
}

func TestTotalValueLargestBreaksTies(t *testing.T) {
	text := "First payment $1,000 and final payment $2,000."
	v := extractTotalValue(text)
	require.NotNil(t, v)
	assert.Equal(t, 2000.0, *v)
}
