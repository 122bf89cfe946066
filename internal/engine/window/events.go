package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
)

// convert maps an SDL event to a viewer event. Events the viewer does not
// use are dropped.
func convert(event sdl.Event) (input.Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return input.Event{Type: input.EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return input.Event{
				Type:   input.EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		}

	case *sdl.KeyboardEvent:
		switch e.Type {
		case sdl.KEYDOWN:
			return input.Event{Type: input.EventKeyDown, Key: int(e.Keysym.Scancode)}, true
		case sdl.KEYUP:
			return input.Event{Type: input.EventKeyUp, Key: int(e.Keysym.Scancode)}, true
		}

	case *sdl.TextInputEvent:
		return input.Event{Type: input.EventTextInput, Text: e.GetText()}, true

	case *sdl.MouseMotionEvent:
		return input.Event{
			Type:   input.EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		ev := input.Event{
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			ev.Type = input.EventMouseDown
			return ev, true
		case sdl.MOUSEBUTTONUP:
			ev.Type = input.EventMouseUp
			return ev, true
		}

	case *sdl.MouseWheelEvent:
		y := float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		mx, my, _ := sdl.GetMouseState()
		return input.Event{
			Type:   input.EventMouseWheel,
			WheelY: y,
			MouseX: int(mx),
			MouseY: int(my),
		}, true
	}
	return input.Event{}, false
}
