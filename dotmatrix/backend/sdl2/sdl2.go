//go:build sdl2

// Package sdl2 renders into an SDL2 window. Building it requires the SDL2
// development libraries; default builds use the stub instead (see build
// tags).
package sdl2

import (
	"fmt"
	"log/slog"

	"github.com/marzari/dotmatrix/dotmatrix/backend"
	"github.com/marzari/dotmatrix/dotmatrix/memory"
	"github.com/marzari/dotmatrix/dotmatrix/video"
	"github.com/veandco/go-sdl2/sdl"
)

// joystickDeadZone filters analog stick noise around the center.
const joystickDeadZone = 8000

// shadeColors maps the four DMG shades to ARGB.
var shadeColors = [4]uint32{0xFFFFFFFF, 0xFF989898, 0xFF4C4C4C, 0xFF000000}

// Backend implements backend.Backend on an SDL2 window.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	joystick *sdl.Joystick

	pixels  []uint32
	pending []backend.Event
}

// New creates an SDL2 backend.
func New() *Backend {
	return &Backend{
		pixels: make([]uint32, video.FramebufferWidth*video.FramebufferHeight),
	}
}

func (s *Backend) Init(config backend.Config) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_JOYSTICK); err != nil {
		return fmt.Errorf("initializing SDL2: %w", err)
	}

	scale := config.Scale
	if scale < 1 {
		scale = 1
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale),
		int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("creating window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating texture: %w", err)
	}
	s.texture = texture

	// a missing joystick is not fatal
	if sdl.NumJoysticks() > 0 {
		s.joystick = sdl.JoystickOpen(0)
		if s.joystick == nil {
			slog.Warn("unable to open joystick", "error", sdl.GetError())
		}
	}

	return nil
}

func (s *Backend) PollEvents() []backend.Event {
	s.pending = s.pending[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			s.pending = append(s.pending, backend.Event{Type: backend.EventQuit})
		case *sdl.KeyboardEvent:
			s.translateKey(e)
		case *sdl.JoyAxisEvent:
			s.translateAxis(e)
		case *sdl.JoyButtonEvent:
			s.translateButton(e)
		}
	}

	return s.pending
}

func (s *Backend) translateKey(event *sdl.KeyboardEvent) {
	pressed := event.Type == sdl.KEYDOWN
	if event.Repeat != 0 {
		return
	}

	switch event.Keysym.Sym {
	case sdl.K_w:
		s.key(memory.KeyUp, pressed)
	case sdl.K_a:
		s.key(memory.KeyLeft, pressed)
	case sdl.K_s:
		s.key(memory.KeyDown, pressed)
	case sdl.K_d:
		s.key(memory.KeyRight, pressed)
	case sdl.K_j:
		s.key(memory.KeyA, pressed)
	case sdl.K_k:
		s.key(memory.KeyB, pressed)
	case sdl.K_t:
		s.key(memory.KeySelect, pressed)
	case sdl.K_RETURN:
		s.key(memory.KeyStart, pressed)
	case sdl.K_q:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventSave})
		}
	case sdl.K_y:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventLoad})
		}
	case sdl.K_l:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventFastForward})
		}
	case sdl.K_p:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventQuitAndSave})
		}
	case sdl.K_ESCAPE:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventQuit})
		}
	}
}

func (s *Backend) translateAxis(event *sdl.JoyAxisEvent) {
	switch event.Axis {
	case 0:
		s.key(memory.KeyLeft, event.Value < -joystickDeadZone)
		s.key(memory.KeyRight, event.Value > joystickDeadZone)
	case 1:
		s.key(memory.KeyUp, event.Value < -joystickDeadZone)
		s.key(memory.KeyDown, event.Value > joystickDeadZone)
	}
}

func (s *Backend) translateButton(event *sdl.JoyButtonEvent) {
	pressed := event.State == sdl.PRESSED
	switch sdl.GameControllerButton(event.Button) {
	case sdl.CONTROLLER_BUTTON_A:
		s.key(memory.KeyA, pressed)
	case sdl.CONTROLLER_BUTTON_B:
		s.key(memory.KeyB, pressed)
	case sdl.CONTROLLER_BUTTON_START:
		s.key(memory.KeyStart, pressed)
	case sdl.CONTROLLER_BUTTON_X:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventSave})
		}
	case sdl.CONTROLLER_BUTTON_Y:
		if pressed {
			s.pending = append(s.pending, backend.Event{Type: backend.EventLoad})
		}
	}
}

func (s *Backend) key(key memory.Key, pressed bool) {
	s.pending = append(s.pending, backend.Event{Type: backend.EventKey, Key: key, Pressed: pressed})
}

func (s *Backend) Present(frame *video.FrameBuffer) error {
	pixels := frame.ToSlice()
	for i, shade := range pixels {
		s.pixels[i] = shadeColors[shade]
	}

	if err := s.texture.UpdateRGBA(nil, s.pixels, video.FramebufferWidth); err != nil {
		return err
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return err
	}
	s.renderer.Present()
	return nil
}

func (s *Backend) Cleanup() error {
	if s.joystick != nil {
		s.joystick.Close()
	}
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}
