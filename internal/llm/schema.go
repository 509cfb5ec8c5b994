package llm

// BuildContractJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the backend as a structured-output constraint
// and also use it locally to validate what comes back.
func BuildContractJSONSchema() map[string]any {
	party := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":                map[string]any{"type": "string", "minLength": 1},
			"role":                map[string]any{"type": "string", "enum": []string{"customer", "vendor", "third_party"}},
			"legal_entity":        map[string]any{"type": "string"},
			"registration_number": map[string]any{"type": "string"},
			"address":             map[string]any{"type": "string"},
			"contact_person":      map[string]any{"type": "string"},
			"email":               map[string]any{"type": "string"},
			"phone":               map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}

	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"quantity":    map[string]any{"type": "number", "minimum": 0},
			"unit_price":  map[string]any{"type": "number"},
			"total_price": map[string]any{"type": "number"},
			"currency":    map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		},
		"required": []string{"description"},
	}

	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	confidenceProps := map[string]any{}
	for _, cat := range categoryKeys() {
		confidenceProps[cat] = map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"parties": map[string]any{"type": "array", "items": party},
			"account_info": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"account_number":            map[string]any{"type": "string"},
					"billing_address":           map[string]any{"type": "string"},
					"contact_email":             map[string]any{"type": "string"},
					"contact_phone":             map[string]any{"type": "string"},
					"technical_support_contact": map[string]any{"type": "string"},
				},
			},
			"financial_details": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"line_items":           map[string]any{"type": "array", "items": lineItem},
					"total_contract_value": map[string]any{"type": "number"},
					"currency":             map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
					"tax_amount":           map[string]any{"type": "number"},
					"additional_fees":      map[string]any{"type": "number"},
				},
			},
			"payment_terms": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"payment_terms":    map[string]any{"type": "string"},
					"payment_schedule": map[string]any{"type": "string"},
					"due_dates":        stringList,
					"payment_methods":  stringList,
					"banking_details":  map[string]any{"type": "string"},
				},
			},
			"revenue_classification": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"payment_type":       map[string]any{"type": "string", "enum": []string{"recurring", "one_time", "mixed"}},
					"billing_cycle":      map[string]any{"type": "string"},
					"subscription_model": map[string]any{"type": "string"},
					"renewal_terms":      map[string]any{"type": "string"},
					"auto_renewal":       map[string]any{"type": "boolean"},
				},
			},
			"sla": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"performance_metrics": stringList,
					"benchmarks":          stringList,
					"penalty_clauses":     stringList,
					"remedies":            stringList,
					"support_terms":       map[string]any{"type": "string"},
					"maintenance_terms":   map[string]any{"type": "string"},
				},
			},
			"contract_start_date": map[string]any{"type": "string"},
			"contract_end_date":   map[string]any{"type": "string"},
			"contract_type":       map[string]any{"type": "string"},
			"confidence_scores": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           confidenceProps,
			},
		},
		"required": []string{"confidence_scores"},
	}
}
