// Package fallback is the deterministic extraction path. It scans contract
// text with regex and vocabulary matching, and by design it never fails:
// text with no matches yields an empty fragment with zero confidence, so the
// pipeline always has a usable fragment even when the AI path is down.
package fallback

import (
	"log/slog"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

// WholeDocument marks a fragment extracted from the full raw text rather
// than one chunk. Contract-wide fields like total value are more reliable
// extracted once from the whole document.
const WholeDocument = -1

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses text into a fragment. chunkIndex is the chunk this text
// came from, or WholeDocument. Absence of matches yields empty fields with
// confidence 0, never an error.
func (e *Extractor) Extract(text string, chunkIndex int) entity.Fragment {
	frag := entity.Fragment{
		Source:     entity.SourceFallback,
		ChunkIndex: chunkIndex,
	}
	if text != "" {
		frag.Parties = extractParties(text)
		frag.AccountInfo = extractAccountInfo(text)
		frag.FinancialDetails = extractFinancialDetails(text)
		frag.PaymentTerms = extractPaymentTerms(text)
		frag.RevenueClassification = extractRevenueClassification(text)
		frag.SLA = extractSLA(text)
		frag.ContractStartDate = extractStartDate(text)
		frag.ContractEndDate = extractEndDate(text)
		frag.ContractType = extractContractType(text)
	}
	frag.ConfidenceByCategory = confidenceScores(&frag)

	e.logger.Debug("fallback.extract.done",
		"chunk_index", chunkIndex,
		"text_len", len(text),
		"parties", len(frag.Parties),
		"has_financial", frag.FinancialDetails != nil,
		"has_payment", frag.PaymentTerms != nil,
		"has_sla", frag.SLA != nil,
	)
	return frag
}

// confidenceScores derives per-category confidence (0..100) from match
// count and field completeness. A party with name, role and email scores
// higher than a name-only one.
func confidenceScores(f *entity.Fragment) map[constants.Category]float64 {
	scores := map[constants.Category]float64{
		constants.PartyIdentification:   partyConfidence(f.Parties),
		constants.FinancialCompleteness: financialConfidence(f.FinancialDetails),
		constants.PaymentTermsClarity:   paymentConfidence(f.PaymentTerms),
		constants.SLADefinition:         slaConfidence(f.SLA),
		constants.ContactInformation:    contactConfidence(f.Parties, f.AccountInfo),
	}
	return scores
}

func partyConfidence(parties []entity.Party) float64 {
	var score float64
	for _, p := range parties {
		var ps float64
		if p.Name != "" {
			ps += 20
		}
		if p.Role != "" {
			ps += 10
		}
		if p.Email != "" {
			ps += 10
		}
		if p.Phone != "" {
			ps += 10
		}
		score += ps
	}
	return clamp100(score)
}

func financialConfidence(fd *entity.FinancialDetails) float64 {
	if fd == nil {
		return 0
	}
	var score float64
	if fd.TotalContractValue != nil {
		score += 40
	}
	if len(fd.LineItems) > 0 {
		score += 30
	}
	if fd.Currency != "" {
		score += 10
	}
	if fd.TaxAmount != nil {
		score += 10
	}
	if fd.AdditionalFees != nil {
		score += 10
	}
	return clamp100(score)
}

func paymentConfidence(pt *entity.PaymentTerms) float64 {
	if pt == nil {
		return 0
	}
	var score float64
	if pt.PaymentTerms != "" {
		score += 40
	}
	if pt.PaymentSchedule != "" {
		score += 25
	}
	if len(pt.DueDates) > 0 {
		score += 20
	}
	if len(pt.PaymentMethods) > 0 {
		score += 10
	}
	if pt.BankingDetails != "" {
		score += 5
	}
	return clamp100(score)
}

func slaConfidence(s *entity.SLA) float64 {
	if s == nil {
		return 0
	}
	var score float64
	if len(s.PerformanceMetrics) > 0 {
		score += 30
	}
	if len(s.PenaltyClauses) > 0 {
		score += 25
	}
	if s.SupportTerms != "" {
		score += 25
	}
	if s.MaintenanceTerms != "" {
		score += 20
	}
	return clamp100(score)
}

func contactConfidence(parties []entity.Party, ai *entity.AccountInfo) float64 {
	var score float64
	for _, p := range parties {
		if p.Email != "" || p.Phone != "" {
			score += 50
			break
		}
	}
	if ai != nil {
		if ai.ContactEmail != "" {
			score += 25
		}
		if ai.ContactPhone != "" {
			score += 15
		}
		if ai.TechnicalSupportContact != "" {
			score += 10
		}
	}
	return clamp100(score)
}

func clamp100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
