package viewer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BesedinAlex/guides-fusion360-client/internal/api"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/internal/overlay"
)

type harness struct {
	s         *Session
	surface   *VirtualSurface
	dev       *gpu.MemoryDevice
	renderer  *fakeRenderer
	sched     *ManualScheduler
	models    *fakeModels
	remote    *fakeRemote
	notices   []string
	abandoned error
	frames    int
}

func newHarness(t *testing.T, role api.Role, names ...string) *harness {
	t.Helper()
	h := &harness{
		surface:  NewVirtualSurface(800, 600),
		dev:      gpu.NewMemoryDevice(),
		renderer: &fakeRenderer{},
		sched:    &ManualScheduler{},
		models:   &fakeModels{data: []byte("glb")},
		remote:   newFakeRemote(names...),
	}
	h.s = NewSession(Config{
		ModelID:       3,
		Surface:       h.surface,
		Renderer:      h.renderer,
		Device:        h.dev,
		Scheduler:     h.sched,
		Models:        h.models,
		Remote:        h.remote,
		Role:          role,
		HideOffscreen: true,
		Decode:        decodePlate,
		Notify:        func(msg string) { h.notices = append(h.notices, msg) },
		OnAbandon:     func(err error) { h.abandoned = err },
		OnFrame:       func([]overlay.Marker) { h.frames++ },
	})
	t.Cleanup(h.s.Teardown)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.s.Start())
	pumpUntil(t, h.s.Dispatcher(), func() bool {
		st := h.s.State()
		return st.IsLoaded && h.s.store.Loaded()
	})
}

func (h *harness) waitForLists(t *testing.T, n int) {
	t.Helper()
	pumpUntil(t, h.s.Dispatcher(), func() bool {
		lists, _, _ := h.remote.counts()
		return lists >= n && h.s.Dispatcher().Pending() == 0
	})
	// The reload result may still be in flight from the worker.
	pumpUntil(t, h.s.Dispatcher(), func() bool {
		return h.s.store.Len() == len(h.remote.snapshot())
	})
}

func (r *fakeRemote) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, a := range r.items {
		out[i] = a.Name
	}
	return out
}

func TestSessionLoadsModelAndAnnotations(t *testing.T) {
	h := newHarness(t, api.RoleAnonymous, "hole", "edge")
	h.start(t)

	st := h.s.State()
	assert.Equal(t, 3, st.ModelID)
	assert.Equal(t, ModeView, st.Mode)
	require.Len(t, st.Annotations, 2)
	assert.Equal(t, 1, st.Annotations[0].DisplayIndex)
	assert.Equal(t, 2, st.Annotations[1].DisplayIndex)
	assert.NotEmpty(t, h.s.ID)

	require.True(t, h.sched.Step())
	assert.Equal(t, 1, h.frames)
	assert.Len(t, h.s.Markers(), 2)
	assert.Equal(t, 1, h.models.calls)
}

func TestSessionCreatesAnnotationOnHit(t *testing.T) {
	h := newHarness(t, api.RoleEditor, "hole")
	h.start(t)

	assert.Equal(t, ModeAnnotate, h.s.ToggleMode())
	h.s.SetDraft("bolt", "M6")
	require.True(t, h.s.Click(400, 300))
	h.waitForLists(t, 2)

	st := h.s.State()
	require.Len(t, st.Annotations, 2)
	assert.Equal(t, "bolt", st.Annotations[1].Name)
	assert.Equal(t, 2, st.Annotations[1].DisplayIndex)
	assert.InDelta(t, 1, st.Annotations[1].Position.X, 1e-3)
	assert.InDelta(t, 1, st.Annotations[1].Position.Y, 1e-3)
	assert.Equal(t, ModeAnnotate, st.Mode, "mode stays annotate after creating")
	assert.Equal(t, 3, h.remote.creates[0].ModelID)
}

func TestSessionClickFromSurfaceEvents(t *testing.T) {
	h := newHarness(t, api.RoleAdmin)
	h.start(t)
	h.s.ToggleMode()
	h.s.SetDraft("bolt", "")

	// A drag is not a click.
	h.surface.Dispatch(input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 380, MouseY: 300})
	h.surface.Dispatch(input.Event{Type: input.EventMouseUp, Button: input.ButtonLeft, MouseX: 420, MouseY: 300})
	h.s.Pump()
	_, creates, _ := h.remote.counts()
	assert.Zero(t, creates)

	h.surface.Dispatch(input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 400, MouseY: 300})
	h.surface.Dispatch(input.Event{Type: input.EventMouseUp, Button: input.ButtonLeft, MouseX: 401, MouseY: 299})
	h.waitForLists(t, 2)
	_, creates, _ = h.remote.counts()
	assert.Equal(t, 1, creates)
}

func TestSessionMissIssuesNoCreate(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.start(t)
	h.s.ToggleMode()
	h.s.SetDraft("bolt", "")

	assert.False(t, h.s.Click(1, 1))
	h.s.Pump()
	_, creates, _ := h.remote.counts()
	assert.Zero(t, creates)
	assert.Empty(t, h.notices)
}

func TestSessionEmptyNameOnHit(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.start(t)
	h.s.ToggleMode()

	assert.False(t, h.s.Click(400, 300))
	_, creates, _ := h.remote.counts()
	assert.Zero(t, creates)
	assert.Equal(t, []string{MsgNameRequired}, h.notices)
}

func TestSessionBlankNameIsNotEmpty(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.start(t)
	h.s.ToggleMode()
	h.s.SetDraft("  ", "text")

	require.True(t, h.s.Click(400, 300))
	h.waitForLists(t, 2)
	_, creates, _ := h.remote.counts()
	assert.Equal(t, 1, creates)
	assert.Empty(t, h.notices)
}

func TestSessionViewModeIgnoresClicks(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.start(t)
	h.s.SetDraft("bolt", "")

	assert.False(t, h.s.Click(400, 300))
	assert.Empty(t, h.notices)
}

func TestSessionAnonymousCannotEdit(t *testing.T) {
	h := newHarness(t, api.RoleAnonymous, "hole")
	h.start(t)

	assert.False(t, h.s.CanEdit())
	assert.Equal(t, ModeView, h.s.ToggleMode())
	assert.ErrorIs(t, h.s.DeleteAnnotation(1), ErrNotEditor)
	h.s.SetDraft("bolt", "")
	assert.False(t, h.s.Click(400, 300))
}

func TestSessionRoleFromSource(t *testing.T) {
	h := newHarness(t, api.RoleAnonymous)
	h.s.cfg.Roles = fixedRole(api.RoleEditor)
	h.start(t)
	assert.Equal(t, api.RoleEditor, h.s.State().Role)
	assert.True(t, h.s.CanEdit())
	assert.Equal(t, ModeAnnotate, h.s.ToggleMode())
}

func TestSessionRoleLookupFailureIsReadOnly(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.s.cfg.Roles = failingRole{}
	h.start(t)
	assert.Equal(t, api.RoleAnonymous, h.s.State().Role)
	assert.Empty(t, h.notices)
}

func TestSessionDeleteReloads(t *testing.T) {
	h := newHarness(t, api.RoleEditor, "a", "b", "c")
	h.start(t)
	second := h.s.State().Annotations[1]

	require.NoError(t, h.s.DeleteAnnotation(second.ID))
	h.waitForLists(t, 2)

	st := h.s.State()
	require.Len(t, st.Annotations, 2)
	assert.Equal(t, "a", st.Annotations[0].Name)
	assert.Equal(t, "c", st.Annotations[1].Name)
	assert.Equal(t, 2, st.Annotations[1].DisplayIndex)
}

func TestSessionSyncFailureKeepsState(t *testing.T) {
	h := newHarness(t, api.RoleEditor, "a")
	h.start(t)
	h.remote.setErr(&api.Error{Status: 403, Message: "Access denied"})

	require.NoError(t, h.s.DeleteAnnotation(1))
	pumpUntil(t, h.s.Dispatcher(), func() bool { return len(h.notices) > 0 })

	assert.Equal(t, []string{"Access denied"}, h.notices)
	assert.Len(t, h.s.State().Annotations, 1)
	assert.Nil(t, h.abandoned)
	assert.True(t, h.s.State().IsLoaded)
}

func TestSessionToggleMarker(t *testing.T) {
	h := newHarness(t, api.RoleAnonymous, "a")
	h.start(t)
	assert.True(t, h.s.ToggleMarker(1))
	h.sched.Step()
	require.Len(t, h.s.Markers(), 1)
	assert.True(t, h.s.Markers()[0].Expanded)
}

func TestSessionLoadFailureAbandons(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.models.err = &api.Error{Status: 404, Message: "File not found"}
	require.NoError(t, h.s.Start())
	pumpUntil(t, h.s.Dispatcher(), func() bool { return h.abandoned != nil })

	assert.ErrorIs(t, h.abandoned, ErrLoadFailure)
	assert.Equal(t, []string{"File not found"}, h.notices)
	assert.True(t, h.s.Closed())
	assert.Nil(t, h.s.Scene())
}

func TestSessionDecodeFailureAbandons(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	h.s.cfg.Decode = func([]byte) (*scene.Node, error) { return nil, errors.New("not a glTF file") }
	require.NoError(t, h.s.Start())
	pumpUntil(t, h.s.Dispatcher(), func() bool { return h.abandoned != nil })

	assert.ErrorIs(t, h.abandoned, ErrLoadFailure)
	assert.Zero(t, h.dev.Live())
	assert.True(t, h.renderer.disposed > 0)
}

func TestSessionTeardownReleasesEverything(t *testing.T) {
	h := newHarness(t, api.RoleEditor, "a")
	h.start(t)
	require.Positive(t, h.dev.Live())

	h.s.Teardown()
	assert.Zero(t, h.dev.Live())
	assert.Zero(t, h.surface.Len())
	assert.False(t, h.sched.Step(), "frame loop stopped")
	assert.Nil(t, h.s.Scene())
	assert.False(t, h.s.State().IsLoaded)

	h.s.Teardown()
	assert.Zero(t, h.dev.DoubleFrees())
	assert.Equal(t, 1, h.renderer.disposed)
	assert.False(t, h.s.Click(400, 300))
	assert.Error(t, h.s.Start())
}

func TestSessionTeardownBeforeStart(t *testing.T) {
	h := newHarness(t, api.RoleEditor)
	assert.NotPanics(t, h.s.Teardown)
	assert.NotPanics(t, h.s.Teardown)
	assert.Zero(t, h.renderer.disposed)
}

func TestSessionLateModelAfterTeardown(t *testing.T) {
	h := newHarness(t, api.RoleEditor, "a")
	h.models.gate = make(chan struct{})
	require.NoError(t, h.s.Start())

	// Wait until the fetch is in flight, then leave.
	pumpUntil(t, h.s.Dispatcher(), func() bool {
		h.models.mu.Lock()
		defer h.models.mu.Unlock()
		return h.models.calls == 1
	})
	h.s.Teardown()
	close(h.models.gate)

	require.Eventually(t, func() bool { return h.s.Dispatcher().Pending() > 0 }, 3*time.Second, time.Millisecond)
	h.s.Pump()

	assert.Nil(t, h.s.Scene())
	assert.False(t, h.s.store.Loaded())
	assert.Zero(t, h.dev.Allocated())
	assert.Zero(t, h.renderer.disposed, "no scene context was ever built")
	lists, _, _ := h.remote.counts()
	assert.Zero(t, lists)
	assert.Nil(t, h.abandoned)
}

func TestSessionLateAnnotationsAfterTeardown(t *testing.T) {
	h := newHarness(t, api.RoleEditor, "a", "b")
	h.start(t)
	require.NoError(t, h.s.DeleteAnnotation(1))
	h.s.Teardown()

	// Whatever the worker finished is dropped on the floor.
	h.s.Pump()
	assert.Equal(t, 2, h.s.store.Len())
}
