package ui2d

import "github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"

// InputState holds the input seen by the UI during one frame.
type InputState struct {
	MouseX float32
	MouseY float32

	MouseLeftDown     bool
	MouseLeftPressed  bool // Went down this frame
	MouseLeftReleased bool // Went up this frame

	// Text typed this frame
	TextInput string

	KeyBackspacePressed bool
	KeyEnterPressed     bool
	KeyEscapePressed    bool
	KeyTabPressed       bool
}

// HandleEvent implements input.Listener.
func (i *InputState) HandleEvent(e input.Event) {
	switch e.Type {
	case input.EventMouseMove:
		i.MouseX, i.MouseY = float32(e.MouseX), float32(e.MouseY)
	case input.EventMouseDown:
		i.MouseX, i.MouseY = float32(e.MouseX), float32(e.MouseY)
		if e.Button == input.ButtonLeft {
			i.MouseLeftDown = true
			i.MouseLeftPressed = true
		}
	case input.EventMouseUp:
		i.MouseX, i.MouseY = float32(e.MouseX), float32(e.MouseY)
		if e.Button == input.ButtonLeft {
			i.MouseLeftDown = false
			i.MouseLeftReleased = true
		}
	case input.EventTextInput:
		i.TextInput += e.Text
	case input.EventKeyDown:
		switch e.Key {
		case input.KeyBackspace:
			i.KeyBackspacePressed = true
		case input.KeyEnter:
			i.KeyEnterPressed = true
		case input.KeyEscape:
			i.KeyEscapePressed = true
		case input.KeyTab:
			i.KeyTabPressed = true
		}
	}
}

// EndFrame clears per-frame input state.
func (i *InputState) EndFrame() {
	i.MouseLeftPressed = false
	i.MouseLeftReleased = false
	i.TextInput = ""
	i.KeyBackspacePressed = false
	i.KeyEnterPressed = false
	i.KeyEscapePressed = false
	i.KeyTabPressed = false
}

// IsMouseInRect checks if the mouse is within a rectangle.
func (i *InputState) IsMouseInRect(x, y, w, h float32) bool {
	return Rect{x, y, w, h}.Contains(i.MouseX, i.MouseY)
}
