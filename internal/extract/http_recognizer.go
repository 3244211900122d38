package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/fra-claims/internal/common"
)

// entsSchema is the response contract of the recognizer sidecar.
const entsSchema = `{
  "type": "object",
  "required": ["ents"],
  "properties": {
    "ents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "label", "start"],
        "properties": {
          "text":  {"type": "string"},
          "label": {"type": "string"},
          "start": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

// spaCy-style labels onto ours; unlisted labels are ignored.
var sidecarLabels = map[string]Label{
	"GPE":    LabelPlace,
	"LOC":    LabelPlace,
	"PERSON": LabelPerson,
	"DATE":   LabelDate,
}

type sidecarResponse struct {
	Ents []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
		Start int    `json:"start"`
	} `json:"ents"`
}

// HTTPRecognizer calls an external NER service that accepts {"text": ...}
// and answers {"ents": [{"text","label","start"}]}.
type HTTPRecognizer struct {
	url    string
	client *http.Client
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewHTTPRecognizer(url string, timeout time.Duration, logger *slog.Logger) (*HTTPRecognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ents.json", strings.NewReader(entsSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("ents.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &HTTPRecognizer{
		url:    url,
		client: &http.Client{Timeout: timeout},
		schema: schema,
		logger: logger,
	}, nil
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, text string) ([]Span, error) {
	raw, status, err := sendJSON(ctx, r.client, r.url, map[string]string{"text": text}, common.LoggerFrom(ctx, r.logger))
	if err != nil {
		return nil, fmt.Errorf("ner sidecar (status %d): %w", status, err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}
	if err := r.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("ner response does not match schema: %w", err)
	}
	var resp sidecarResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}

	spans := make([]Span, 0, len(resp.Ents))
	for _, e := range resp.Ents {
		label, ok := sidecarLabels[strings.ToUpper(e.Label)]
		if !ok || strings.TrimSpace(e.Text) == "" {
			continue
		}
		spans = append(spans, Span{Text: e.Text, Label: label, Start: e.Start})
	}
	return spans, nil
}

// sendJSON posts body as JSON and returns the raw response body.
func sendJSON(ctx context.Context, client *http.Client, url string, body any, logger *slog.Logger) ([]byte, int, error) {
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("extract.ner.send_error", "url", url, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("extract.ner.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))

	logger.Debug("extract.ner.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
