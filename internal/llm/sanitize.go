package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/contractintel/contract-intel/constants"
)

// topLevelKeys is the set of properties the schema admits at the root.
var topLevelKeys = map[string]struct{}{
	"parties": {}, "account_info": {}, "financial_details": {}, "payment_terms": {},
	"revenue_classification": {}, "sla": {}, "contract_start_date": {},
	"contract_end_date": {}, "contract_type": {}, "confidence_scores": {},
}

func categoryKeys() []string {
	cats := constants.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// NormalizeAndSanitizeJSON repairs the common ways models bend the schema
// without fabricating data:
//   - drops null and empty-string optionals
//   - coerces numeric strings ("12,000", "$12000") to numbers in money fields
//   - clamps confidence scores into [0,100] and drops unknown categories
//   - removes unknown keys at every level the schema closes with
//     additionalProperties=false
//
// Fields that cannot be repaired are dropped, never defaulted: a missing
// value is honest, a guessed one is not. The dropped list is returned for
// the audit log.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	note := func(path string) { dropped = append(dropped, path) }

	for k := range maps.Clone(m) {
		if _, ok := topLevelKeys[k]; !ok {
			delete(m, k)
			note(k + "(unknown)")
		}
	}

	sanitizeParties(m, note)
	sanitizeObject(m, "account_info", nil, note)
	sanitizeFinancial(m, note)
	sanitizeObject(m, "payment_terms", nil, note)
	sanitizeObject(m, "revenue_classification", nil, note)
	sanitizeObject(m, "sla", nil, note)

	for _, k := range []string{"contract_start_date", "contract_end_date", "contract_type"} {
		dropEmptyString(m, k, note)
	}

	sanitizeConfidences(m, note)

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeParties(m map[string]any, note func(string)) {
	list, ok := m["parties"].([]any)
	if !ok {
		if _, present := m["parties"]; present {
			delete(m, "parties")
			note("parties(type)")
		}
		return
	}
	var kept []any
	for i, e := range list {
		p, ok := e.(map[string]any)
		if !ok {
			note(fmt.Sprintf("parties[%d](type)", i))
			continue
		}
		scrubStrings(p, fmt.Sprintf("parties[%d]", i), note)
		name, _ := p["name"].(string)
		if strings.TrimSpace(name) == "" {
			note(fmt.Sprintf("parties[%d](no name)", i))
			continue
		}
		if role, ok := p["role"].(string); ok {
			switch strings.ToLower(strings.TrimSpace(role)) {
			case "customer", "client", "buyer":
				p["role"] = "customer"
			case "vendor", "supplier", "service provider", "seller":
				p["role"] = "vendor"
			case "third_party", "third party":
				p["role"] = "third_party"
			default:
				delete(p, "role")
				note(fmt.Sprintf("parties[%d].role(enum)", i))
			}
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		delete(m, "parties")
	} else {
		m["parties"] = kept
	}
}

func sanitizeFinancial(m map[string]any, note func(string)) {
	fd, ok := m["financial_details"].(map[string]any)
	if !ok {
		if _, present := m["financial_details"]; present {
			delete(m, "financial_details")
			note("financial_details(type)")
		}
		return
	}
	for _, k := range []string{"total_contract_value", "tax_amount", "additional_fees"} {
		coerceNumber(fd, k, "financial_details."+k, note)
	}
	dropEmptyString(fd, "currency", note)

	if items, ok := fd["line_items"].([]any); ok {
		var kept []any
		for i, e := range items {
			it, ok := e.(map[string]any)
			if !ok {
				note(fmt.Sprintf("financial_details.line_items[%d](type)", i))
				continue
			}
			for _, k := range []string{"quantity", "unit_price", "total_price"} {
				coerceNumber(it, k, fmt.Sprintf("financial_details.line_items[%d].%s", i, k), note)
			}
			desc, _ := it["description"].(string)
			if strings.TrimSpace(desc) == "" {
				note(fmt.Sprintf("financial_details.line_items[%d](no description)", i))
				continue
			}
			kept = append(kept, it)
		}
		if len(kept) == 0 {
			delete(fd, "line_items")
		} else {
			fd["line_items"] = kept
		}
	}

	if len(fd) == 0 {
		delete(m, "financial_details")
	}
}

func sanitizeConfidences(m map[string]any, note func(string)) {
	cs, ok := m["confidence_scores"].(map[string]any)
	if !ok {
		if _, present := m["confidence_scores"]; present {
			note("confidence_scores(type)")
		}
		cs = map[string]any{}
		m["confidence_scores"] = cs
	}
	known := map[string]struct{}{}
	for _, k := range categoryKeys() {
		known[k] = struct{}{}
	}
	for k, v := range maps.Clone(cs) {
		if _, ok := known[k]; !ok {
			delete(cs, k)
			note("confidence_scores." + k + "(unknown)")
			continue
		}
		f, ok := asNumber(v)
		if !ok {
			delete(cs, k)
			note("confidence_scores." + k + "(type)")
			continue
		}
		// Models sometimes answer on a 0..1 scale.
		if f > 0 && f <= 1 {
			f *= 100
		}
		if f < 0 {
			f = 0
		}
		if f > 100 {
			f = 100
		}
		cs[k] = f
	}
}

// sanitizeObject drops nulls, empty strings, and non-string scalars from a
// nested object whose schema fields are strings/string lists. extraNumeric
// names fields left alone.
func sanitizeObject(m map[string]any, key string, extraNumeric map[string]struct{}, note func(string)) {
	obj, ok := m[key].(map[string]any)
	if !ok {
		if _, present := m[key]; present {
			delete(m, key)
			note(key + "(type)")
		}
		return
	}
	for k, v := range maps.Clone(obj) {
		if _, skip := extraNumeric[k]; skip {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(obj, k)
			note(key + "." + k + "(null)")
		case string:
			if strings.TrimSpace(t) == "" {
				delete(obj, k)
				note(key + "." + k + "(empty)")
			} else {
				obj[k] = strings.TrimSpace(t)
			}
		case []any:
			var kept []any
			for _, e := range t {
				if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
					kept = append(kept, strings.TrimSpace(s))
				}
			}
			if len(kept) == 0 {
				delete(obj, k)
				note(key + "." + k + "(empty list)")
			} else {
				obj[k] = kept
			}
		case bool:
			// auto_renewal and friends pass through.
		default:
			delete(obj, k)
			note(key + "." + k + "(type)")
		}
	}
	if len(obj) == 0 {
		delete(m, key)
	}
}

func scrubStrings(obj map[string]any, path string, note func(string)) {
	for k, v := range maps.Clone(obj) {
		switch t := v.(type) {
		case nil:
			delete(obj, k)
			note(path + "." + k + "(null)")
		case string:
			if strings.TrimSpace(t) == "" {
				delete(obj, k)
				note(path + "." + k + "(empty)")
			} else {
				obj[k] = strings.TrimSpace(t)
			}
		default:
			delete(obj, k)
			note(path + "." + k + "(type)")
		}
	}
}

func coerceNumber(obj map[string]any, key, path string, note func(string)) {
	v, present := obj[key]
	if !present {
		return
	}
	if f, ok := asNumber(v); ok {
		obj[key] = f
		return
	}
	delete(obj, key)
	note(path + "(not numeric)")
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func dropEmptyString(obj map[string]any, key string, note func(string)) {
	v, present := obj[key]
	if !present {
		return
	}
	s, ok := v.(string)
	if !ok {
		delete(obj, key)
		note(key + "(type)")
		return
	}
	if strings.TrimSpace(s) == "" {
		delete(obj, key)
		note(key + "(empty)")
	} else {
		obj[key] = strings.TrimSpace(s)
	}
}
