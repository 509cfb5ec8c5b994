package classifier

import (
	"strings"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/chunker"
)

// keyword is a weighted phrase indicating a contract section. Multi-word
// phrases get heavier weights since they are rarely incidental.
type keyword struct {
	phrase string
	weight float64
}

var sectionKeywords = map[constants.SectionTag][]keyword{
	constants.SectionParty: {
		{"between", 0.5},
		{"party", 1},
		{"parties", 1},
		{"customer", 1},
		{"vendor", 1},
		{"client", 1},
		{"supplier", 1},
		{"service provider", 2},
		{"liable party", 2},
		{"signatory", 1.5},
		{"inc.", 0.5},
		{"llc", 0.5},
		{"ltd", 0.5},
		{"corp", 0.5},
	},
	constants.SectionAccount: {
		{"account number", 2},
		{"account no", 2},
		{"billing address", 2},
		{"billing contact", 2},
		{"invoice address", 2},
		{"account manager", 1.5},
		{"technical contact", 1.5},
		{"technical support", 1},
	},
	constants.SectionFinancial: {
		{"total contract value", 3},
		{"contract value", 2},
		{"total amount", 2},
		{"line item", 2},
		{"unit price", 2},
		{"quantity", 1},
		{"subtotal", 1.5},
		{"tax", 1},
		{"fees", 1},
		{"$", 0.5},
		{"usd", 0.5},
		{"invoice", 1},
	},
	constants.SectionPayment: {
		{"payment terms", 3},
		{"net 15", 2.5},
		{"net 30", 2.5},
		{"net 45", 2.5},
		{"net 60", 2.5},
		{"due upon receipt", 2.5},
		{"payment schedule", 2},
		{"due date", 1.5},
		{"ach", 1},
		{"wire transfer", 1.5},
		{"bank transfer", 1.5},
		{"payable", 1},
	},
	constants.SectionRevenue: {
		{"recurring", 2},
		{"one-time", 2},
		{"subscription", 2},
		{"billing cycle", 2},
		{"monthly", 1},
		{"quarterly", 1},
		{"annually", 1},
		{"renewal", 1.5},
		{"auto-renew", 2},
		{"automatic renewal", 2},
	},
	constants.SectionSLA: {
		{"service level", 3},
		{"sla", 2.5},
		{"uptime", 2},
		{"availability", 1.5},
		{"response time", 2},
		{"resolution time", 2},
		{"penalty", 1.5},
		{"credit", 1},
		{"maintenance window", 2},
		{"support hours", 1.5},
	},
}

// minConfidence is the floor below which a tag is not worth reporting.
const minConfidence = 0.05

// Classifier annotates chunks with section hints. Classification is
// advisory: it biases which fields the AI adapter emphasizes per chunk but
// never excludes a chunk from extraction.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// Classify scans the chunk text for section keywords and returns the chunk
// annotated with per-tag confidences in [0,1]. A chunk may carry zero, one,
// or several tags; a chunk with no hits gets only UNKNOWN.
func (c *Classifier) Classify(ch chunker.Chunk) chunker.Chunk {
	lower := strings.ToLower(ch.Text)
	words := len(strings.Fields(lower))

	hints := make(map[constants.SectionTag]float64)
	for tag, kws := range sectionKeywords {
		var hitWeight float64
		var hits int
		for _, kw := range kws {
			n := strings.Count(lower, kw.phrase)
			if n == 0 {
				continue
			}
			hits += n
			hitWeight += float64(n) * kw.weight
		}
		if hits == 0 {
			continue
		}
		conf := confidence(hitWeight, hits, words)
		if conf >= minConfidence {
			hints[tag] = conf
		}
	}
	if len(hints) == 0 {
		hints[constants.SectionUnknown] = 1
	}

	ch.SectionHints = hints
	return ch
}

// confidence saturates toward 1.0 as weighted hits accumulate, boosted by
// hit density (hits per 100 words). A single strong phrase in a short chunk
// can rank higher than many weak hits scattered through a long one.
func confidence(weight float64, hits, words int) float64 {
	base := weight / (weight + 4)

	if words > 0 {
		density := float64(hits) * 100 / float64(words)
		base *= 0.7 + 0.3*saturate(density/5)
	}
	if base > 1 {
		base = 1
	}
	return base
}

func saturate(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < 0 {
		return 0
	}
	return x
}

// Tags returns the hinted tags sorted by descending confidence, for use in
// prompt construction.
func Tags(hints map[constants.SectionTag]float64) []constants.SectionTag {
	tags := make([]constants.SectionTag, 0, len(hints))
	for _, t := range constants.SectionTags {
		if _, ok := hints[t]; ok {
			tags = append(tags, t)
		}
	}
	// stable order: iterate the canonical tag list, then sort by confidence
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && hints[tags[j]] > hints[tags[j-1]]; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
	return tags
}
