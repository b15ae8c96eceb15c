// Package extract is the client side of the extraction endpoint: the service
// that turns raw credit-agreement text into a structured CreditAgreement.
// The engine itself is external; only its request/response contract lives here.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/cdm"
	"github.com/FinTechTonic/creditnexus/internal/common"
)

// Config for the extraction client.
type Config struct {
	BaseURL        string        // default http://127.0.0.1:8000
	Timeout        time.Duration // http client timeout
	ForceMapReduce bool          // force the map-reduce strategy for every document
}

// Client implements Extractor against the HTTP extraction endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type wireRequest struct {
	Text           string `json:"text"`
	ForceMapReduce bool   `json:"force_map_reduce,omitempty"`
}

// Extract posts the document text and decodes the structured result.
// Non-2xx responses and malformed bodies surface as ErrExtractionFailed.
func (c *Client) Extract(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, common.WrapError(common.ErrInvalidInput, "extract: empty document text")
	}

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("extract.start",
		"req_id", rid,
		"text_len", len(req.Text),
		"force_map_reduce", req.ForceMapReduce || c.cfg.ForceMapReduce,
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/extract"
	body := wireRequest{Text: req.Text, ForceMapReduce: req.ForceMapReduce || c.cfg.ForceMapReduce}

	raw, _, err := SendJSON(ctx, c.http, endpoint, body, nil, c.logger)
	if err != nil {
		c.logger.Error("extract.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}

	result, err := decodeResult(raw)
	if err != nil {
		c.logger.Error("extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}

	if result.Agreement != nil {
		agreementJSON, err := json.Marshal(result.Agreement)
		if err != nil {
			return nil, fmt.Errorf("%w: re-encode agreement: %v", common.ErrExtractionFailed, err)
		}
		if err := common.ValidateJSONAgainstSchema(BuildAgreementJSONSchema(), agreementJSON); err != nil {
			c.logger.Error("extract.schema_validation_failed", "req_id", rid, "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
		}
		if err := result.Agreement.Validate(); err != nil {
			c.logger.Error("extract.domain_validation_failed", "req_id", rid, "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
		}
		result.Status = result.Agreement.Normalize()
	}

	c.logger.Info("extract.done",
		"req_id", rid,
		"status", string(result.Status),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// decodeResult accepts both the envelope form {status, agreement, message}
// and the bare agreement form the endpoint may return.
func decodeResult(raw []byte) (*Result, error) {
	var env Result
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Status != constants.ExtractionUnset || env.Agreement != nil {
			if env.Agreement == nil && env.Status != constants.ExtractionIrrelevant {
				return nil, fmt.Errorf("envelope status %q without agreement", env.Status)
			}
			return &env, nil
		}
	}

	var ag cdm.CreditAgreement
	if err := json.Unmarshal(raw, &ag); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if ag.ExtractionStatus == constants.ExtractionUnset && !ag.HasAgreementContent() {
		return nil, fmt.Errorf("extraction response carries no agreement fields")
	}
	return &Result{Status: ag.ExtractionStatus, Agreement: &ag}, nil
}
