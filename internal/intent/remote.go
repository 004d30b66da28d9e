package intent

import (
	"context"
	"time"

	commonErrors "streamscout/internal/common/errors"
	commonHTTP "streamscout/internal/common/http"
)

// Remote calls the external intent-classification service. Failures are
// returned as-is; the fallback combinator decides what happens next.
type Remote struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *commonHTTP.Client
}

func NewRemote(baseURL, apiKey string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		client:  commonHTTP.NewClient(timeout),
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

func (r *Remote) Classify(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	headers := map[string]string{}
	if r.apiKey != "" {
		headers["Authorization"] = "Bearer " + r.apiKey
	}

	var resp classifyResponse
	err := r.client.PostJSON(ctx, r.baseURL+"/api/ai/parse-intent", headers,
		classifyRequest{Text: text}, &resp)
	if err != nil {
		return Result{}, commonErrors.NewClassifierError(err)
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{
		Intent:     ParseIntent(resp.Intent),
		Confidence: confidence,
		Entities:   resp.Entities,
	}, nil
}
