// internal/oracle/generator.go
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/deskpilot/internal/config"
)

// Request is one model call. Image, when set, is a JPEG sent inline after
// the prompt text.
type Request struct {
	System      string
	Prompt      string
	Image       []byte
	Temperature float32
	JSON        bool
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeminiGenerator calls the Gemini API through the genai SDK, retrying
// transient failures with exponential backoff.
type GeminiGenerator struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	maxTokens  int32
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator initializes the client. cfg.Endpoint overrides the API
// base URL.
func NewGeminiGenerator(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API Key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:    client,
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: int32(cfg.MaxTokens),
		logger:    logger.Named("oracle.gemini"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 2 * time.Minute
			b.MaxInterval = 30 * time.Second
			return b
		},
	}, nil
}

// Generate sends the request and returns the response text.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image, "image/jpeg"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if g.maxTokens > 0 {
		gc.MaxOutputTokens = g.maxTokens
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	var text string
	operation := func() error {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		start := time.Now()
		resp, err := g.client.Models.GenerateContent(callCtx, g.model, contents, gc)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return g.classify(err)
		}

		out := resp.Text()
		if strings.TrimSpace(out) == "" {
			return backoff.Permanent(fmt.Errorf("gemini API returned empty content"))
		}

		fields := []zap.Field{zap.Duration("duration", time.Since(start))}
		if u := resp.UsageMetadata; u != nil {
			fields = append(fields,
				zap.Int32("prompt_tokens", u.PromptTokenCount),
				zap.Int32("completion_tokens", u.CandidatesTokenCount),
			)
		}
		g.logger.Debug("Generation complete", fields...)
		text = out
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(g.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return text, nil
}

// classify marks everything but rate limits, server errors and timeouts
// as permanent.
func (g *GeminiGenerator) classify(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	case errors.Is(err, context.DeadlineExceeded):
		g.logger.Warn("Gemini request timed out, retrying...", zap.Error(err))
		return err
	default:
		g.logger.Warn("Network error during generation, retrying...", zap.Error(err))
		return err
	}

	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusBadGateway:
		g.logger.Warn("Transient Gemini API error, retrying...", zap.Int("status", code))
		return err
	default:
		g.logger.Error("Gemini API returned error status", zap.Int("status", code), zap.Error(err))
		return backoff.Permanent(err)
	}
}
