// Package viewer runs a model viewing session: it owns the scene context,
// the frame loop and the annotation store, sequences remote work on a
// background worker and applies its results on the owning goroutine.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/annotation"
	"github.com/BesedinAlex/guides-fusion360-client/internal/api"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
	"github.com/BesedinAlex/guides-fusion360-client/internal/lifecycle"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/internal/overlay"
)

// MsgNameRequired is shown when an annotation is placed without a name.
const MsgNameRequired = "annotation name is required"

// clickSlop is how far, in pixels, the pointer may travel between press
// and release for the pair to count as a click rather than a drag.
const clickSlop = 4

// Mode is the interaction mode of a session.
type Mode int

const (
	ModeView Mode = iota
	ModeAnnotate
)

func (m Mode) String() string {
	if m == ModeAnnotate {
		return "annotate"
	}
	return "view"
}

// Draft is the annotation being composed.
type Draft struct {
	Name string
	Text string
}

// State is a snapshot of a session.
type State struct {
	ModelID     int
	Annotations []annotation.Annotation
	IsLoaded    bool
	Mode        Mode
	Draft       Draft
	Role        api.Role
}

// ModelSource loads model binaries.
type ModelSource interface {
	Load(ctx context.Context, modelID int) ([]byte, error)
}

// RoleSource resolves the current user's role.
type RoleSource interface {
	CurrentUserRole(ctx context.Context) (api.Role, error)
}

// Config wires a session to its collaborators.
type Config struct {
	ModelID int

	Surface   Surface
	Renderer  Renderer
	Device    gpu.Device
	Scheduler Scheduler

	Models ModelSource
	Remote annotation.Remote
	// Roles is queried at Start. When nil, Role is used as is.
	Roles RoleSource
	Role  api.Role

	EnableDamping bool
	DampingFactor float32
	HideOffscreen bool
	Decode        DecodeFunc

	// Notify shows a message to the user.
	Notify func(msg string)
	// OnAbandon is called once when the model cannot be loaded; the host
	// should leave the viewer.
	OnAbandon func(err error)
	// OnFrame receives the marker layout of every frame.
	OnFrame func(markers []overlay.Marker)

	Log *zap.Logger
}

// Session is one viewer session for one model. All methods except those
// of its Dispatcher must be called from the owning goroutine.
type Session struct {
	ID string

	cfg        Config
	log        *zap.Logger
	gen        *lifecycle.Generation
	dispatcher *Dispatcher
	worker     *Worker
	store      *annotation.Store

	sc      *SceneContext
	loop    *FrameLoop
	markers []overlay.Marker

	mode  Mode
	draft Draft
	role  api.Role

	started   bool
	closed    bool
	abandoned bool

	removeInput func()
	pressed     bool
	pressX      int
	pressY      int
}

// NewSession creates a session. Nothing happens until Start.
func NewSession(cfg Config) *Session {
	id := uuid.NewString()
	log := cfg.Log
	if log == nil {
		log = logger.L()
	}
	log = log.With(zap.String("session", id), zap.Int("model_id", cfg.ModelID))
	if cfg.Scheduler == nil {
		cfg.Scheduler = &ManualScheduler{}
	}

	return &Session{
		ID:         id,
		cfg:        cfg,
		log:        log,
		gen:        lifecycle.New(context.Background()),
		dispatcher: NewDispatcher(),
		worker:     NewWorker(32),
		store:      annotation.NewStore(cfg.ModelID, cfg.Remote, log),
		role:       cfg.Role,
	}
}

// Dispatcher returns the queue that brings background results back to
// the owning goroutine.
func (s *Session) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Pump applies queued background results and ticker frames.
func (s *Session) Pump() int {
	return s.dispatcher.Pump()
}

// Start fetches the model, then initializes the scene and loads the
// annotations. Results arrive through Pump.
func (s *Session) Start() error {
	if s.closed {
		return errors.New("session is closed")
	}
	if s.started {
		return nil
	}
	if s.cfg.Models == nil || s.cfg.Remote == nil || s.cfg.Surface == nil {
		return errors.New("session needs a model source, an annotation remote and a surface")
	}
	s.started = true
	s.log.Info("viewer session started")

	if s.cfg.Roles != nil {
		s.async(func(ctx context.Context) func() {
			role, err := s.cfg.Roles.CurrentUserRole(ctx)
			return func() {
				if err != nil {
					s.log.Warn("role lookup failed, continuing read-only", zap.Error(err))
					role = api.RoleAnonymous
				}
				s.role = role
				if !role.CanEdit() {
					s.mode = ModeView
				}
			}
		})
	}

	s.async(func(ctx context.Context) func() {
		data, err := s.cfg.Models.Load(ctx, s.cfg.ModelID)
		return func() {
			if err != nil {
				s.fail(fmt.Errorf("%w: %w", ErrLoadFailure, err))
				return
			}
			s.initScene(data)
		}
	})
	return nil
}

// async runs work on the worker and posts the closure it returns to the
// dispatcher. The closure is dropped if the session ended in between.
func (s *Session) async(work func(ctx context.Context) func()) {
	ticket := s.gen.Ticket()
	s.worker.Submit(func() {
		apply := work(ticket.Context())
		s.dispatcher.Post(func() {
			if !ticket.Valid() {
				s.log.Debug("dropping result issued before teardown")
				return
			}
			apply()
		})
	})
}

func (s *Session) initScene(data []byte) {
	ticket := s.gen.Ticket()
	sc, err := Initialize(data, s.cfg.Surface, ContextOptions{
		Device:        s.cfg.Device,
		Renderer:      s.cfg.Renderer,
		EnableDamping: s.cfg.EnableDamping,
		DampingFactor: s.cfg.DampingFactor,
		Decode:        s.cfg.Decode,
		Worker:        s.worker,
		Dispatcher:    s.dispatcher,
		Ticket:        ticket,
		OnLoaded:      func() { s.log.Info("model loaded") },
		OnLoadFailure: s.fail,
		Log:           s.log,
	})
	if err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrLoadFailure, err))
		return
	}
	s.sc = sc
	s.removeInput = s.cfg.Surface.AddListener(input.ListenerFunc(s.handleEvent))

	s.loop = NewFrameLoop(sc, ticket, s.cfg.Scheduler, s.store.Annotations,
		overlay.Options{HideOffscreen: s.cfg.HideOffscreen, Expanded: s.store.Visible},
		s.publish)
	s.loop.Start()

	s.ReloadAnnotations()
}

func (s *Session) publish(markers []overlay.Marker) {
	s.markers = markers
	if s.cfg.OnFrame != nil {
		s.cfg.OnFrame(markers)
	}
}

// fail handles a load failure: the user is told, the session is torn
// down and the host asked to leave.
func (s *Session) fail(err error) {
	if s.abandoned || s.closed {
		return
	}
	s.abandoned = true
	s.log.Error("model load failed", zap.Error(err))
	s.notify(api.Message(err))
	s.Teardown()
	if s.cfg.OnAbandon != nil {
		s.cfg.OnAbandon(err)
	}
}

func (s *Session) notify(msg string) {
	if s.cfg.Notify != nil {
		s.cfg.Notify(msg)
	}
}

// syncFailed reports a failed annotation request. State is left as is.
func (s *Session) syncFailed(op string, err error) {
	err = fmt.Errorf("%w: %s: %w", ErrSyncFailure, op, err)
	s.log.Warn("annotation sync failed", zap.String("op", op), zap.Error(err))
	s.notify(api.Message(err))
}

// ReloadAnnotations replaces the annotation set with the server's.
func (s *Session) ReloadAnnotations() {
	if s.closed {
		return
	}
	s.async(func(ctx context.Context) func() {
		list, err := s.store.Fetch(ctx)
		return func() {
			if err != nil {
				s.syncFailed("load", err)
				return
			}
			s.store.Replace(list)
		}
	})
}

// ToggleMode switches between viewing and annotating. Users without edit
// rights stay in view mode.
func (s *Session) ToggleMode() Mode {
	if !s.role.CanEdit() {
		s.mode = ModeView
		return s.mode
	}
	if s.mode == ModeView {
		s.mode = ModeAnnotate
	} else {
		s.mode = ModeView
	}
	s.log.Debug("mode changed", zap.Stringer("mode", s.mode))
	return s.mode
}

// CanEdit reports whether the current user may create and delete annotations.
func (s *Session) CanEdit() bool {
	return s.role.CanEdit()
}

// SetDraft updates the annotation being composed.
func (s *Session) SetDraft(name, text string) {
	s.draft = Draft{Name: name, Text: text}
}

// Click handles a pointer click at pixel (px, py). In annotate mode a hit
// on the model creates an annotation from the draft and reloads the set.
// It reports whether a create request was issued.
func (s *Session) Click(px, py int) bool {
	if s.closed || s.mode != ModeAnnotate || !s.role.CanEdit() || !s.sc.Loaded() {
		return false
	}
	point, ok := s.sc.Pick(px, py)
	if !ok {
		return false
	}
	if s.draft.Name == "" {
		s.notify(MsgNameRequired)
		return false
	}

	draft := s.draft
	s.async(func(ctx context.Context) func() {
		if err := s.store.Create(ctx, point, draft.Name, draft.Text); err != nil {
			return func() { s.syncFailed("create", err) }
		}
		list, err := s.store.Fetch(ctx)
		return func() {
			if err != nil {
				s.syncFailed("load", err)
				return
			}
			s.store.Replace(list)
		}
	})
	return true
}

// DeleteAnnotation removes an annotation and reloads the set.
func (s *Session) DeleteAnnotation(id int64) error {
	if s.closed {
		return errors.New("session is closed")
	}
	if !s.role.CanEdit() {
		return ErrNotEditor
	}
	s.async(func(ctx context.Context) func() {
		if err := s.store.Delete(ctx, id); err != nil {
			return func() { s.syncFailed("delete", err) }
		}
		list, err := s.store.Fetch(ctx)
		return func() {
			if err != nil {
				s.syncFailed("load", err)
				return
			}
			s.store.Replace(list)
		}
	})
	return nil
}

// ToggleMarker shows or hides the details of one marker.
func (s *Session) ToggleMarker(displayIndex int) bool {
	return s.store.ToggleVisibility(displayIndex)
}

// Resize forwards a viewport change to the scene context.
func (s *Session) Resize(width, height int) {
	s.sc.Resize(width, height)
}

// Markers returns the layout of the last frame.
func (s *Session) Markers() []overlay.Marker {
	return s.markers
}

// Scene returns the live scene context, or nil.
func (s *Session) Scene() *SceneContext {
	if !s.sc.Live() {
		return nil
	}
	return s.sc
}

// Closed reports whether Teardown has run.
func (s *Session) Closed() bool {
	return s.closed
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	return State{
		ModelID:     s.cfg.ModelID,
		Annotations: s.store.Annotations(),
		IsLoaded:    s.sc.Loaded() && !s.closed,
		Mode:        s.mode,
		Draft:       s.draft,
		Role:        s.role,
	}
}

func (s *Session) handleEvent(e input.Event) {
	switch e.Type {
	case input.EventMouseDown:
		if e.Button == input.ButtonLeft {
			s.pressed = true
			s.pressX, s.pressY = e.MouseX, e.MouseY
		}
	case input.EventMouseUp:
		if e.Button != input.ButtonLeft || !s.pressed {
			return
		}
		s.pressed = false
		if abs(e.MouseX-s.pressX) <= clickSlop && abs(e.MouseY-s.pressY) <= clickSlop {
			s.Click(e.MouseX, e.MouseY)
		}
	}
}

// Teardown ends the session: pending and late results are discarded, the
// frame loop stops and the scene context is released. It is safe to call
// more than once and before Start.
func (s *Session) Teardown() {
	if s.closed {
		return
	}
	s.closed = true
	s.gen.End()
	s.worker.Stop()

	if s.loop != nil {
		s.loop.Stop()
	}
	if s.removeInput != nil {
		s.removeInput()
		s.removeInput = nil
	}
	s.sc.Teardown()
	s.markers = nil
	s.log.Info("viewer session closed")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

