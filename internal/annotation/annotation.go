// Package annotation holds the annotation set of one model: remote sync,
// display numbering, marker visibility and depth ranking.
package annotation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// ErrNameRequired is returned by Create when the name is blank.
var ErrNameRequired = errors.New("annotation name is required")

// Annotation is a named point on the model surface.
type Annotation struct {
	ID       int64 // 0 until persisted
	ModelID  int
	Position math.Vec3
	Name     string
	Text     string

	// DisplayIndex is the 1-based position in the loaded set. It is
	// assigned locally on every reload and never sent to the server.
	DisplayIndex int
}

// Remote persists annotations.
type Remote interface {
	ListAnnotations(ctx context.Context, modelID int) ([]Annotation, error)
	CreateAnnotation(ctx context.Context, a Annotation) error
	DeleteAnnotation(ctx context.Context, id int64) error
}

// AssignDisplayIndices numbers list 1..N in order, in place, and returns it.
func AssignDisplayIndices(list []Annotation) []Annotation {
	for i := range list {
		list[i].DisplayIndex = i + 1
	}
	return list
}

// ClosestToCamera returns the DisplayIndex of the annotation nearest to
// camPos, or 0 for an empty list. On equal distances the earlier
// annotation wins.
func ClosestToCamera(camPos math.Vec3, list []Annotation) int {
	best := 0
	var bestDist float32
	for i, a := range list {
		d := camPos.Distance(a.Position)
		if i == 0 || d < bestDist {
			best, bestDist = a.DisplayIndex, d
		}
	}
	return best
}

// Store is the loaded annotation set of one model. Fetch, Create and
// Delete only talk to the remote and may run on any goroutine; the other
// methods belong to the goroutine that owns the viewer session.
type Store struct {
	modelID int
	remote  Remote
	log     *zap.Logger

	items  []Annotation
	shown  map[int]bool
	loaded bool
}

// NewStore creates an empty store for modelID.
func NewStore(modelID int, remote Remote, log *zap.Logger) *Store {
	if log == nil {
		log = logger.L()
	}
	return &Store{
		modelID: modelID,
		remote:  remote,
		log:     log.With(zap.Int("model_id", modelID)),
		shown:   make(map[int]bool),
	}
}

// ModelID returns the model the store belongs to.
func (s *Store) ModelID() int {
	return s.modelID
}

// Fetch retrieves the remote set and numbers it without touching the store.
func (s *Store) Fetch(ctx context.Context) ([]Annotation, error) {
	list, err := s.remote.ListAnnotations(ctx, s.modelID)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	out := make([]Annotation, len(list))
	copy(out, list)
	for i := range out {
		out[i].ModelID = s.modelID
	}
	return AssignDisplayIndices(out), nil
}

// Replace installs a fetched set. Every marker starts hidden again.
func (s *Store) Replace(list []Annotation) {
	s.items = list
	s.shown = make(map[int]bool, len(list))
	s.loaded = true
	s.log.Debug("annotations replaced", zap.Int("count", len(list)))
}

// LoadAll fetches and installs the remote set.
func (s *Store) LoadAll(ctx context.Context) error {
	list, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	s.Replace(list)
	return nil
}

// Create persists a new annotation. The caller reloads afterwards so
// display numbering stays consistent.
func (s *Store) Create(ctx context.Context, pos math.Vec3, name, text string) error {
	if name == "" {
		return ErrNameRequired
	}
	a := Annotation{ModelID: s.modelID, Position: pos, Name: name, Text: text}
	if err := s.remote.CreateAnnotation(ctx, a); err != nil {
		return fmt.Errorf("create annotation: %w", err)
	}
	s.log.Info("annotation created", zap.String("name", name))
	return nil
}

// Delete removes an annotation remotely. The caller reloads afterwards.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.remote.DeleteAnnotation(ctx, id); err != nil {
		return fmt.Errorf("delete annotation %d: %w", id, err)
	}
	s.log.Info("annotation deleted", zap.Int64("id", id))
	return nil
}

// Annotations returns a copy of the loaded set.
func (s *Store) Annotations() []Annotation {
	out := make([]Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of loaded annotations.
func (s *Store) Len() int {
	return len(s.items)
}

// Loaded reports whether a set has been installed.
func (s *Store) Loaded() bool {
	return s.loaded
}

// ByDisplayIndex looks up an annotation by its display number.
func (s *Store) ByDisplayIndex(idx int) (Annotation, bool) {
	if idx < 1 || idx > len(s.items) {
		return Annotation{}, false
	}
	return s.items[idx-1], true
}

// ToggleVisibility flips the shown flag of one marker and returns the new
// state. Unknown indices are ignored.
func (s *Store) ToggleVisibility(displayIndex int) bool {
	if _, ok := s.ByDisplayIndex(displayIndex); !ok {
		return false
	}
	s.shown[displayIndex] = !s.shown[displayIndex]
	return s.shown[displayIndex]
}

// Visible reports whether a marker's details are shown.
func (s *Store) Visible(displayIndex int) bool {
	return s.shown[displayIndex]
}
