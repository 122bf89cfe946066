package ui2d

import "fmt"

// TextScale is the scale the widgets draw text at.
const TextScale = 1

// Context is an immediate-mode UI: widgets are declared every frame
// between Begin and End and report their interaction as return values.
type Context struct {
	renderer *Renderer
	input    *InputState

	// Focused text input or pressed button
	activeWidget string
	focusNext    bool

	windows       map[string]*WindowState
	currentWindow *WindowState

	// Areas that took pointer input last frame and this frame
	prevHits []Rect
	hits     []Rect

	cursorX float32
	cursorY float32
	rowH    float32
}

// WindowState holds state for a UI window.
type WindowState struct {
	ID     string
	X, Y   float32
	W, H   float32
	Open   bool
	Moving bool

	grabX, grabY float32
}

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// NewContext creates a UI context with its own GL renderer.
func NewContext(width, height int) (*Context, error) {
	r, err := New(width, height)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return newContext(r), nil
}

func newContext(r *Renderer) *Context {
	return &Context{
		renderer: r,
		input:    &InputState{},
		windows:  make(map[string]*WindowState),
	}
}

// Close releases resources.
func (c *Context) Close() {
	if c.renderer != nil {
		c.renderer.Close()
	}
}

// Renderer returns the underlying renderer.
func (c *Context) Renderer() *Renderer {
	return c.renderer
}

// Resize updates the screen size.
func (c *Context) Resize(width, height int) {
	c.renderer.Resize(width, height)
}

// Input returns the input state. Feed it events through HandleEvent.
func (c *Context) Input() *InputState {
	return c.input
}

// Captures reports whether a pointer event at (x, y) belongs to the UI
// rather than to the scene below it, based on the last drawn frame.
func (c *Context) Captures(x, y float32) bool {
	for _, r := range c.prevHits {
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}

// TextFocused reports whether a text input has keyboard focus.
func (c *Context) TextFocused() bool {
	return c.activeWidget != "" && c.activeWidget[0] == '#'
}

// Begin starts a new UI frame.
func (c *Context) Begin() {
	c.hits = c.hits[:0]
	c.renderer.Begin()
}

// End finishes the UI frame and draws it.
func (c *Context) End() {
	c.renderer.End()
	c.finish()
}

func (c *Context) finish() {
	// A press nobody consumed moves focus away from text inputs
	if c.input.MouseLeftPressed && c.TextFocused() {
		c.activeWidget = ""
	}
	c.focusNext = false
	c.input.EndFrame()
	c.prevHits = append(c.prevHits[:0], c.hits...)
}

// BeginWindow starts a new window. Returns false if the window is closed.
func (c *Context) BeginWindow(id string, x, y, w, h float32, title string) bool {
	ws, ok := c.windows[id]
	if !ok {
		ws = &WindowState{ID: id, X: x, Y: y, W: w, H: h, Open: true}
		c.windows[id] = ws
	}
	ws.W, ws.H = w, h
	if !ws.Open {
		return false
	}
	c.currentWindow = ws

	titleBarH := float32(20)
	titleBar := Rect{ws.X, ws.Y, ws.W, titleBarH}
	if c.input.MouseLeftPressed && titleBar.Contains(c.input.MouseX, c.input.MouseY) {
		ws.Moving = true
		ws.grabX, ws.grabY = c.input.MouseX-ws.X, c.input.MouseY-ws.Y
		c.input.MouseLeftPressed = false
	}
	if ws.Moving {
		if c.input.MouseLeftDown {
			ws.X = c.input.MouseX - ws.grabX
			ws.Y = c.input.MouseY - ws.grabY
		} else {
			ws.Moving = false
		}
	}
	c.hits = append(c.hits, Rect{ws.X, ws.Y, ws.W, ws.H})

	c.renderer.DrawPanel(ws.X, ws.Y, ws.W, ws.H, ColorPanelBg, ColorPanelBorder)
	c.renderer.DrawRect(ws.X+1, ws.Y+1, ws.W-2, titleBarH-1, ColorButtonNormal)
	_, textH := c.renderer.MeasureText(title, TextScale)
	c.renderer.DrawText(ws.X+8, ws.Y+(titleBarH-textH)/2, title, TextScale, ColorText)

	c.cursorX = ws.X + 8
	c.cursorY = ws.Y + titleBarH + 8
	c.rowH = 0
	return true
}

// EndWindow ends the current window.
func (c *Context) EndWindow() {
	c.currentWindow = nil
}

// Row starts a new row with the given height.
func (c *Context) Row(height float32) {
	if c.currentWindow == nil {
		return
	}
	c.cursorX = c.currentWindow.X + 8
	c.cursorY += c.rowH + 4
	c.rowH = height
}

func (c *Context) widgetRect(width float32) Rect {
	h := c.rowH
	if h == 0 {
		h = 22
	}
	if width == 0 {
		width = c.currentWindow.X + c.currentWindow.W - 8 - c.cursorX
	}
	return Rect{c.cursorX, c.cursorY, width, h}
}

// Button draws a button and returns true if it was pressed this frame.
func (c *Context) Button(id string, width float32, label string) bool {
	if c.currentWindow == nil {
		return false
	}
	rect := c.widgetRect(width)
	fullID := c.currentWindow.ID + "_" + id

	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)
	clicked := false
	if hovered && c.input.MouseLeftPressed {
		c.activeWidget = fullID
		c.input.MouseLeftPressed = false
		clicked = true
	}
	if c.activeWidget == fullID && !c.input.MouseLeftDown {
		c.activeWidget = ""
	}

	color := ColorButtonNormal
	if c.activeWidget == fullID {
		color = ColorButtonActive
	} else if hovered {
		color = ColorButtonHover
	}
	c.renderer.DrawRect(rect.X, rect.Y, rect.W, rect.H, color)
	c.renderer.DrawRectOutline(rect.X, rect.Y, rect.W, rect.H, 1, ColorPanelBorder)

	textW, textH := c.renderer.MeasureText(label, TextScale)
	c.renderer.DrawText(rect.X+(rect.W-textW)/2, rect.Y+(rect.H-textH)/2, label, TextScale, ColorText)

	c.cursorX += rect.W + 4
	return clicked
}

// Label draws a text label.
func (c *Context) Label(text string) {
	c.LabelColored(text, ColorText)
}

// LabelColored draws a text label with a specific color.
func (c *Context) LabelColored(text string, color Color) {
	if c.currentWindow == nil {
		return
	}
	c.renderer.DrawText(c.cursorX, c.cursorY, text, TextScale, color)
	w, _ := c.renderer.MeasureText(text, TextScale)
	c.cursorX += w + 4
}

// TextInput draws a single-line text field.
// Returns (current value, changed, submitted). Tab moves focus to the
// next text field drawn in the same frame.
func (c *Context) TextInput(id string, width float32, value string) (string, bool, bool) {
	if c.currentWindow == nil {
		return value, false, false
	}
	rect := c.widgetRect(width)
	fullID := "#" + c.currentWindow.ID + "_" + id

	if rect.Contains(c.input.MouseX, c.input.MouseY) && c.input.MouseLeftPressed {
		c.activeWidget = fullID
		c.input.MouseLeftPressed = false
	}
	if c.focusNext {
		c.activeWidget = fullID
		c.focusNext = false
	}

	focused := c.activeWidget == fullID
	changed, submitted := false, false
	if focused {
		if c.input.TextInput != "" {
			value += c.input.TextInput
			changed = true
		}
		if c.input.KeyBackspacePressed && value != "" {
			runes := []rune(value)
			value = string(runes[:len(runes)-1])
			changed = true
		}
		if c.input.KeyEnterPressed {
			submitted = true
		}
		if c.input.KeyEscapePressed {
			c.activeWidget = ""
		}
		if c.input.KeyTabPressed {
			c.input.KeyTabPressed = false
			c.activeWidget = ""
			c.focusNext = true
		}
	}

	c.renderer.DrawRect(rect.X, rect.Y, rect.W, rect.H, ColorInputBg)
	border := ColorInputBorder
	if focused {
		border = ColorHighlight
	}
	c.renderer.DrawRectOutline(rect.X, rect.Y, rect.W, rect.H, 1, border)

	_, textH := c.renderer.MeasureText("M", TextScale)
	textY := rect.Y + (rect.H-textH)/2
	c.renderer.DrawText(rect.X+4, textY, value, TextScale, ColorText)
	if focused {
		textW, _ := c.renderer.MeasureText(value, TextScale)
		c.renderer.DrawRect(rect.X+4+textW, rect.Y+4, 1, rect.H-8, ColorText)
	}

	c.cursorX += rect.W + 4
	return value, changed, submitted
}

// Separator draws a horizontal separator line.
func (c *Context) Separator() {
	if c.currentWindow == nil {
		return
	}
	c.cursorY += c.rowH + 4
	c.rowH = 0
	x := c.currentWindow.X + 8
	c.renderer.DrawRect(x, c.cursorY, c.currentWindow.W-16, 1, ColorPanelBorder)
	c.cursorY += 4
}
