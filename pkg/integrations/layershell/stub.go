//go:build !cgo || nolayershell

package layershell

import (
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// Surface is unavailable in this build
type Surface struct{}

// NewSurface always fails with ErrLayerShellUnsupported
func NewSurface(surface.Options, *zap.SugaredLogger) (*Surface, error) {
	return nil, ErrLayerShellUnsupported
}

func (s *Surface) Run(surface.Sink) error { return ErrLayerShellUnsupported }

func (s *Surface) Close() error { return nil }

func (s *Surface) DisplayServer() string { return "wayland" }
