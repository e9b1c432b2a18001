// internal/observation/provider.go
package observation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

var errNoForegroundRect = errors.New("no foreground client rectangle")

// Config tunes screenshot capture.
type Config struct {
	// Interval is the minimum time between fresh captures.
	Interval    time.Duration
	MaxWidth    int
	JPEGQuality int
	Overlay     OverlayMode
}

// DefaultConfig returns the stock capture settings.
func DefaultConfig() Config {
	return Config{
		Interval:    3 * time.Second,
		MaxWidth:    1280,
		JPEGQuality: 70,
		Overlay:     OverlayExecution,
	}
}

// Desktop is the part of the window provider observation needs.
type Desktop interface {
	ForegroundWindow() (title, process string)
	ForegroundClientRect() (geometry.Rect, bool)
}

// Provider snapshots the foreground window. Screenshots are throttled: within
// Interval of the last successful capture the previous image is reused.
type Provider struct {
	desktop  Desktop
	capturer Capturer
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	limiter *rate.Limiter
	last    string
}

var _ agent.ObservationProvider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithNow replaces the time source used for throttling.
func WithNow(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider creates a Provider. A nil capturer disables screenshots.
func NewProvider(logger *zap.Logger, desktop Desktop, capturer Capturer, cfg Config, opts ...Option) *Provider {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = def.JPEGQuality
	}
	if cfg.Overlay == "" {
		cfg.Overlay = def.Overlay
	}
	p := &Provider{
		desktop:  desktop,
		capturer: capturer,
		cfg:      cfg,
		logger:   logger.Named("observation"),
		now:      time.Now,
		limiter:  rate.NewLimiter(rate.Every(cfg.Interval), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Observe implements agent.ObservationProvider. Capture failures leave the
// screenshot empty rather than failing the observation.
func (p *Provider) Observe(ctx context.Context, last *agent.ExecutionResult) (agent.Observation, error) {
	title, proc := p.desktop.ForegroundWindow()
	obs := agent.Observation{
		ActiveWindowTitle: title,
		ActiveProcess:     proc,
		CapturedAt:        p.now().UTC(),
	}
	if last != nil {
		ok := last.Success
		obs.LastActionSuccess = &ok
		obs.ErrorMessage = last.ErrorMessage
	}
	obs.Screenshot = p.screenshot(ctx)
	return obs, nil
}

func (p *Provider) screenshot(ctx context.Context) string {
	if p.capturer == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fresh := p.limiter.AllowN(p.now(), 1)
	if p.last != "" && !fresh {
		return p.last
	}

	url, err := p.capture(ctx)
	if err != nil {
		p.logger.Debug("Screenshot unavailable", zap.Error(err))
		return p.last
	}
	p.last = url
	return url
}

func (p *Provider) capture(ctx context.Context) (string, error) {
	rect, ok := p.desktop.ForegroundClientRect()
	if !ok {
		return "", errNoForegroundRect
	}
	raw, err := p.capturer.Capture(ctx, rect)
	if err != nil {
		return "", err
	}
	img := Downscale(raw, p.cfg.MaxWidth)
	if g, ok := p.cfg.Overlay.Grid(); ok {
		DrawGrid(img, g)
	}
	return EncodeDataURL(img, p.cfg.JPEGQuality)
}
