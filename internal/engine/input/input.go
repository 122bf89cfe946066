// Package input defines the viewer's pointer and window events and a
// listener hub that lets components subscribe and unsubscribe.
package input

// EventType is the kind of an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventTextInput
)

// Mouse buttons, numbered as SDL reports them.
const (
	ButtonLeft   uint8 = 1
	ButtonMiddle uint8 = 2
	ButtonRight  uint8 = 3
)

// Key scancodes used by the viewer, numbered as SDL reports them.
const (
	KeyM         = 16
	KeyEnter     = 40
	KeyEscape    = 41
	KeyBackspace = 42
	KeyTab       = 43
	KeyF12       = 69
	KeyDelete    = 76
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    int // Scancode for key events
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int // Relative motion for EventMouseMove
	DeltaY int
	WheelY float32
	Button uint8
	Text   string // UTF-8 text for EventTextInput
}

// Listener receives events from a Hub.
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// HandleEvent implements Listener.
func (f ListenerFunc) HandleEvent(e Event) { f(e) }

// Hub fans events out to registered listeners in registration order.
// It is used from a single goroutine.
type Hub struct {
	nextID    int
	listeners []entry
}

type entry struct {
	id int
	l  Listener
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Add registers l and returns a function that removes it. The remove
// function is safe to call more than once.
func (h *Hub) Add(l Listener) (remove func()) {
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, entry{id: id, l: l})
	return func() {
		for i, e := range h.listeners {
			if e.id == id {
				h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers e to every listener. Listeners added or removed during
// dispatch take effect for the next event.
func (h *Hub) Dispatch(e Event) {
	snapshot := make([]entry, len(h.listeners))
	copy(snapshot, h.listeners)
	for _, en := range snapshot {
		en.l.HandleEvent(e)
	}
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	return len(h.listeners)
}
