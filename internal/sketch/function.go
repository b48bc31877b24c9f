package sketch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
)

const maxResponseSize = 64 << 20

// FunctionClient posts requests to a hosted generation function
type FunctionClient struct {
	Endpoint string
	APIKey   string

	client *http.Client
	logger *zap.Logger
}

var _ Generator = (*FunctionClient)(nil)

// NewFunctionClient returns a client for the function at endpoint. A nil
// client uses one with a two minute timeout.
func NewFunctionClient(endpoint, apiKey string, client *http.Client, logger *zap.Logger) *FunctionClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = logging.Named("sketch")
	}
	return &FunctionClient{Endpoint: endpoint, APIKey: apiKey, client: client, logger: logger}
}

// errorPayload covers both {"error": "..."} and {"type": "error", "message": "..."}
type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (p errorPayload) message() string {
	if p.Error != "" {
		return p.Error
	}
	if p.Type == "error" {
		return p.Message
	}
	return ""
}

func (c *FunctionClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode sketch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sketch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sketch request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read sketch response: %w", err)
	}

	var payload errorPayload
	_ = json.Unmarshal(data, &payload)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := payload.message()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &RemoteError{Status: resp.StatusCode, Message: msg}
	}
	if msg := payload.message(); msg != "" {
		return nil, &RemoteError{Message: msg}
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode sketch response: %w", err)
	}
	c.logger.Info("sketch generated",
		zap.String("id", out.ID),
		zap.Int("images", len(req.Images)),
		zap.Bool("visualized", out.VisualizedImage != ""),
		zap.Bool("flat_sketch", out.FlatSketchImage != ""),
		zap.Duration("elapsed", time.Since(start)))
	return &out, nil
}
