// Package merge combines per-chunk extraction fragments into the canonical
// contract record. Merging is deterministic and order-independent: the same
// set of fragments yields the same record in any permutation, which is what
// lets per-chunk extraction run in parallel.
package merge

import (
	"log/slog"
	"sort"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

type Engine struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Merge reduces fragments into one ContractData. Scalar conflicts resolve
// by highest category confidence, ties by earliest chunk index. Category
// confidence for the record is the maximum observed across fragments: one
// strong, precise chunk is better evidence than many weak ones.
func (e *Engine) Merge(fragments []entity.Fragment) *entity.ContractData {
	// Canonical order first, so the reduction below is insensitive to the
	// order fragments arrived in.
	frags := make([]entity.Fragment, len(fragments))
	copy(frags, fragments)
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].ChunkIndex != frags[j].ChunkIndex {
			return frags[i].ChunkIndex < frags[j].ChunkIndex
		}
		return frags[i].Source < frags[j].Source
	})

	data := &entity.ContractData{
		ConfidenceScores: make(map[constants.Category]float64),
	}

	data.Parties = mergeParties(frags)
	data.AccountInfo = mergeAccountInfo(frags)
	data.FinancialDetails = mergeFinancialDetails(frags)
	data.PaymentTerms = mergePaymentTerms(frags)
	data.RevenueClassification = mergeRevenue(frags)
	data.SLA = mergeSLA(frags)

	data.ContractStartDate = firstNonEmpty(frags, func(f *entity.Fragment) string { return f.ContractStartDate })
	data.ContractEndDate = firstNonEmpty(frags, func(f *entity.Fragment) string { return f.ContractEndDate })
	data.ContractType = firstNonEmpty(frags, func(f *entity.Fragment) string { return f.ContractType })

	for _, f := range frags {
		for cat, conf := range f.ConfidenceByCategory {
			if conf > data.ConfidenceScores[cat] {
				data.ConfidenceScores[cat] = conf
			}
		}
	}
	for _, cat := range constants.Categories() {
		if _, ok := data.ConfidenceScores[cat]; !ok {
			data.ConfidenceScores[cat] = 0
		}
	}

	e.logger.Debug("merge.done",
		"fragments", len(fragments),
		"parties", len(data.Parties),
		"has_financial", data.FinancialDetails != nil,
	)
	return data
}

// conf reads a fragment's confidence for a category, 0 when absent.
func conf(f *entity.Fragment, cat constants.Category) float64 {
	if f.ConfidenceByCategory == nil {
		return 0
	}
	return f.ConfidenceByCategory[cat]
}

// firstNonEmpty returns the value from the earliest fragment (in canonical
// order) whose getter yields a non-empty string.
func firstNonEmpty(frags []entity.Fragment, get func(*entity.Fragment) string) string {
	for i := range frags {
		if v := get(&frags[i]); v != "" {
			return v
		}
	}
	return ""
}

// pickString resolves a scalar string: highest confidence in cat wins, ties
// go to the fragment appearing first in canonical order.
func pickString(frags []entity.Fragment, cat constants.Category, get func(*entity.Fragment) string) string {
	best := ""
	bestConf := -1.0
	for i := range frags {
		v := get(&frags[i])
		if v == "" {
			continue
		}
		if c := conf(&frags[i], cat); c > bestConf {
			best = v
			bestConf = c
		}
	}
	return best
}

func pickFloat(frags []entity.Fragment, cat constants.Category, get func(*entity.Fragment) *float64) *float64 {
	var best *float64
	bestConf := -1.0
	for i := range frags {
		v := get(&frags[i])
		if v == nil {
			continue
		}
		if c := conf(&frags[i], cat); c > bestConf {
			val := *v
			best = &val
			bestConf = c
		}
	}
	return best
}

func pickBool(frags []entity.Fragment, cat constants.Category, get func(*entity.Fragment) *bool) *bool {
	var best *bool
	bestConf := -1.0
	for i := range frags {
		v := get(&frags[i])
		if v == nil {
			continue
		}
		if c := conf(&frags[i], cat); c > bestConf {
			val := *v
			best = &val
			bestConf = c
		}
	}
	return best
}
