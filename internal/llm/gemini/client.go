package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
	"github.com/contractintel/contract-intel/internal/llm"
)

// ExtractChunk implements llm.ChunkExtractor against the Gemini
// generateContent API. The response is schema-validated; payloads that stay
// invalid after sanitizing are reported as llm.ErrBadPayload, transport
// failures after retries as llm.ErrUnavailable. Nothing is fabricated on
// either path.
func (c *Client) ExtractChunk(ctx context.Context, req llm.ExtractRequest) (entity.Fragment, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = c.cfg.MaxChars
	}
	text := req.ChunkText
	truncated := false
	if len(text) > maxChars {
		text = text[:maxChars]
		truncated = true
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"chunk_index", req.ChunkIndex,
		"text_len", len(text),
		"truncated", truncated,
		"hints", len(req.SectionHints),
	)

	schema := llm.BuildContractJSONSchema()
	body := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]any{{"text": buildPrompt(text, req.SectionHints, schema)}},
			},
		},
		"generationConfig": map[string]any{
			"temperature":      c.cfg.Temperature,
			"responseMimeType": "application/json",
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	raw, err := c.postWithRetry(ctx, rid, url, body, headers)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Fragment{}, nil, fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
	}

	content, err := extractText(raw)
	if err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Fragment{}, raw, fmt.Errorf("%w: %v", llm.ErrBadPayload, err)
	}
	rawContent := []byte(strings.TrimSpace(content))

	// Validate strictly first; fall back to a sanitize-and-revalidate pass.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(rawContent, c.log)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return entity.Fragment{}, rawContent, fmt.Errorf("%w: %v", llm.ErrBadPayload, sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return entity.Fragment{}, rawContent, fmt.Errorf("%w: %v", llm.ErrBadPayload, vErr)
		}
		c.log.Warn("llm.extract.sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	frag, err := llm.DecodeFragment(rawContent, req.ChunkIndex)
	if err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Fragment{}, rawContent, fmt.Errorf("%w: %v", llm.ErrBadPayload, err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"chunk_index", req.ChunkIndex,
		"parties", len(frag.Parties),
		"has_financial", frag.FinancialDetails != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return frag, rawContent, nil
}

// postWithRetry waits on the shared rate limiter, then retries transient
// failures with doubling backoff. Context cancellation cuts the loop short.
func (c *Client) postWithRetry(ctx context.Context, rid, url string, body map[string]any, headers map[string]string) ([]byte, error) {
	backoff := 500 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		raw, status, err := llm.SendJSON(ctx, c.http, url, body, headers, c.log)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		// 4xx other than 429 will not get better with retries.
		if status >= 400 && status < 500 && status != 429 {
			return nil, err
		}
		if attempt == c.cfg.MaxRetries {
			break
		}
		c.log.Warn("llm.extract.retry",
			"req_id", rid, "attempt", attempt+1, "status", status, "backoff_ms", backoff.Milliseconds())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// extractText pulls the model text out of a generateContent response.
func extractText(raw []byte) (string, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func buildPrompt(text string, hints map[constants.SectionTag]float64, schema map[string]any) string {
	parts := []string{
		"You are a contract analyst. Extract structured data from the contract excerpt below.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Report confidence_scores on a 0-100 scale for each category, reflecting how complete the extracted fields are.",
		"Never output null. If a field is not present in the text, omit it.",
		"Do not guess values that are not in the text.",
	}
	if line := hintLine(hints); line != "" {
		parts = append(parts, line)
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n\nJSON Schema:\n")
	b.WriteString(mustJSON(schema))
	b.WriteString("\n\nContract excerpt:\n")
	b.WriteString(text)
	return b.String()
}

// hintLine turns section hints into prompt emphasis, strongest first. Hints
// bias attention only; the full schema is always requested.
func hintLine(hints map[constants.SectionTag]float64) string {
	if len(hints) == 0 {
		return ""
	}
	tags := make([]constants.SectionTag, 0, len(hints))
	for tag := range hints {
		if tag == constants.SectionUnknown {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return ""
	}
	sort.Slice(tags, func(i, j int) bool {
		if hints[tags[i]] != hints[tags[j]] {
			return hints[tags[i]] > hints[tags[j]]
		}
		return tags[i] < tags[j]
	})
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = string(tag)
	}
	return "This excerpt likely covers these sections (most likely first): " +
		strings.Join(names, ", ") + ". Pay particular attention to their fields."
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
