//go:build !sdl2

package sdl2

import (
	"errors"

	"github.com/marzari/dotmatrix/dotmatrix/backend"
	"github.com/marzari/dotmatrix/dotmatrix/video"
)

// Backend is the stub used when the sdl2 build tag is absent.
type Backend struct{}

// New returns a stub backend that fails on Init.
func New() *Backend {
	return &Backend{}
}

func (s *Backend) Init(backend.Config) error {
	return errors.New("sdl2 support not compiled in, rebuild with -tags sdl2")
}

func (s *Backend) PollEvents() []backend.Event {
	return nil
}

func (s *Backend) Present(*video.FrameBuffer) error {
	return nil
}

func (s *Backend) Cleanup() error {
	return nil
}
