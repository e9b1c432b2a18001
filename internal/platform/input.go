// internal/platform/input.go
package platform

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/humanoid"
)

// NewDryRunInput returns an input recorder that logs every primitive at
// debug level instead of injecting it.
func NewDryRunInput(logger *zap.Logger) *humanoid.Recorder {
	log := logger.Named("input")
	return &humanoid.Recorder{
		Forward: func(e humanoid.Event) {
			fields := []zap.Field{zap.String("kind", string(e.Kind))}
			switch e.Kind {
			case humanoid.EventMove:
				fields = append(fields, zap.Int("x", e.X), zap.Int("y", e.Y))
			case humanoid.EventKeyDown, humanoid.EventKeyUp:
				fields = append(fields, zap.Uint16("vk", e.Key))
			case humanoid.EventText:
				fields = append(fields, zap.Int("chars", len([]rune(e.Text))))
			case humanoid.EventWheel:
				fields = append(fields, zap.Int("delta", e.Delta))
			}
			log.Debug("Dry run input", fields...)
		},
	}
}
