package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BesedinAlex/guides-fusion360-client/internal/annotation"
	"github.com/BesedinAlex/guides-fusion360-client/internal/api"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/camera"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// plate is a single front-facing triangle in the XY plane whose bounding
// box centre (1,1,0) lies strictly inside it.
func plate() (*scene.Node, error) {
	root := scene.NewNode("model")
	root.Add(scene.NewMesh("plate", scene.NewGeometry(
		[]float32{-2, -2, 0, 4, -2, 0, 1, 4, 0},
		[]float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		nil,
	), scene.DefaultMaterial()))
	return root, nil
}

func decodePlate([]byte) (*scene.Node, error) {
	return plate()
}

type fakeRenderer struct {
	frames    int
	width     int
	height    int
	disposed  int
	onDispose func()
}

func (r *fakeRenderer) Render(*scene.Graph, *camera.Perspective) { r.frames++ }
func (r *fakeRenderer) SetSize(w, h int)                        { r.width, r.height = w, h }
func (r *fakeRenderer) Dispose() {
	r.disposed++
	if r.onDispose != nil {
		r.onDispose()
	}
}

type fakeModels struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
	gate  chan struct{}
}

func (m *fakeModels) Load(ctx context.Context, _ int) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type fakeRemote struct {
	mu      sync.Mutex
	items   []annotation.Annotation
	nextID  int64
	lists   int
	creates []annotation.Annotation
	deletes []int64
	err     error
}

func newFakeRemote(names ...string) *fakeRemote {
	r := &fakeRemote{}
	for i, n := range names {
		r.nextID++
		r.items = append(r.items, annotation.Annotation{ID: r.nextID, Name: n, Position: math.V3(float32(i), 0, 0)})
	}
	return r
}

func (r *fakeRemote) ListAnnotations(_ context.Context, modelID int) ([]annotation.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]annotation.Annotation, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *fakeRemote) CreateAnnotation(_ context.Context, a annotation.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.creates = append(r.creates, a)
	r.nextID++
	a.ID = r.nextID
	r.items = append(r.items, a)
	return nil
}

func (r *fakeRemote) DeleteAnnotation(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.deletes = append(r.deletes, id)
	for i, a := range r.items {
		if a.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRemote) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *fakeRemote) counts() (lists, creates, deletes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists, len(r.creates), len(r.deletes)
}

type fixedRole api.Role

func (f fixedRole) CurrentUserRole(context.Context) (api.Role, error) {
	return api.Role(f), nil
}

type failingRole struct{}

func (failingRole) CurrentUserRole(context.Context) (api.Role, error) {
	return api.RoleAnonymous, errors.New("token expired")
}

// pumpUntil pumps the session's dispatcher on the test goroutine until
// cond holds.
func pumpUntil(t *testing.T, d *Dispatcher, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		d.Pump()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}
