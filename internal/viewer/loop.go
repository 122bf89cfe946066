package viewer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/BesedinAlex/guides-fusion360-client/internal/annotation"
	"github.com/BesedinAlex/guides-fusion360-client/internal/lifecycle"
	"github.com/BesedinAlex/guides-fusion360-client/internal/overlay"
)

// Scheduler calls a tick function once per display refresh until stopped.
type Scheduler interface {
	Start(tick func())
	Stop()
}

// ManualScheduler ticks when the host calls Step, typically once per
// swapped frame.
type ManualScheduler struct {
	tick func()
}

// Start implements Scheduler.
func (s *ManualScheduler) Start(tick func()) {
	s.tick = tick
}

// Stop implements Scheduler.
func (s *ManualScheduler) Stop() {
	s.tick = nil
}

// Step runs one tick and reports whether the scheduler was running.
func (s *ManualScheduler) Step() bool {
	if s.tick == nil {
		return false
	}
	s.tick()
	return true
}

// TickerScheduler ticks at a fixed rate. Ticks are posted to a Dispatcher
// so they run on the goroutine that pumps it; at most one tick is queued
// at a time.
type TickerScheduler struct {
	Interval   time.Duration
	Dispatcher *Dispatcher

	mu      sync.Mutex
	quit    chan struct{}
	pending atomic.Bool
}

// NewTickerScheduler creates a scheduler running at fps frames per second.
func NewTickerScheduler(fps int, d *Dispatcher) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{Interval: time.Second / time.Duration(fps), Dispatcher: d}
}

// Start implements Scheduler.
func (s *TickerScheduler) Start(tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit != nil {
		return
	}
	quit := make(chan struct{})
	s.quit = quit

	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				if !s.pending.CompareAndSwap(false, true) {
					continue
				}
				s.Dispatcher.Post(func() {
					s.pending.Store(false)
					select {
					case <-quit:
						return
					default:
					}
					tick()
				})
			}
		}
	}()
}

// Stop implements Scheduler. Ticks already queued are discarded.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit == nil {
		return
	}
	close(s.quit)
	s.quit = nil
}

// FrameLoop drives a scene context: each tick updates the controls,
// renders, then projects and ranks the annotation markers.
type FrameLoop struct {
	sc          *SceneContext
	ticket      lifecycle.Ticket
	scheduler   Scheduler
	annotations func() []annotation.Annotation
	options     overlay.Options
	onFrame     func([]overlay.Marker)

	running bool
	frames  uint64
}

// NewFrameLoop binds a loop to a scene context and the ticket of the
// session that owns it.
func NewFrameLoop(sc *SceneContext, ticket lifecycle.Ticket, scheduler Scheduler,
	annotations func() []annotation.Annotation, options overlay.Options,
	onFrame func([]overlay.Marker)) *FrameLoop {
	return &FrameLoop{
		sc:          sc,
		ticket:      ticket,
		scheduler:   scheduler,
		annotations: annotations,
		options:     options,
		onFrame:     onFrame,
	}
}

// Start begins ticking.
func (l *FrameLoop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.scheduler.Start(l.tick)
}

// Stop ends ticking. No tick runs after Stop returns.
func (l *FrameLoop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	l.scheduler.Stop()
}

// Running reports whether the loop is started.
func (l *FrameLoop) Running() bool {
	return l.running
}

// Frames returns the number of completed ticks.
func (l *FrameLoop) Frames() uint64 {
	return l.frames
}

func (l *FrameLoop) tick() {
	if !l.running || !l.ticket.Valid() || !l.sc.Live() {
		return
	}
	l.sc.Update()

	var list []annotation.Annotation
	if l.annotations != nil {
		list = l.annotations()
	}
	width, height := l.sc.Size()
	markers := overlay.Layout(list, l.sc.Camera, width, height, l.options)
	l.frames++
	if l.onFrame != nil {
		l.onFrame(markers)
	}
}
