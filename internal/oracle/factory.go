// internal/oracle/factory.go
package oracle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// New builds the oracle selected by cfg. The gemini provider without an API
// key degrades to the demo oracle with a warning.
func New(ctx context.Context, cfg config.OracleConfig, self agent.SelfSurface, logger *zap.Logger) (agent.Oracle, error) {
	switch cfg.Provider {
	case config.ProviderDemo:
		return NewDemo(logger, self), nil
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			logger.Warn("No API key configured; using the demo oracle.")
			return NewDemo(logger, self), nil
		}
		gen, err := NewGeminiGenerator(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewModel(logger, gen, self, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown or unsupported oracle provider configured: '%s'. Supported: [%s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderDemo)
	}
}
