package annotation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

type fakeRemote struct {
	items   []Annotation
	nextID  int64
	creates int
	deletes []int64
	err     error
}

func (f *fakeRemote) ListAnnotations(_ context.Context, modelID int) ([]Annotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Annotation
	for _, a := range f.items {
		if a.ModelID == modelID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateAnnotation(_ context.Context, a Annotation) error {
	if f.err != nil {
		return f.err
	}
	f.creates++
	f.nextID++
	a.ID = f.nextID
	f.items = append(f.items, a)
	return nil
}

func (f *fakeRemote) DeleteAnnotation(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	for i, a := range f.items {
		if a.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func seeded(n int) *fakeRemote {
	f := &fakeRemote{}
	for i := 0; i < n; i++ {
		f.nextID++
		f.items = append(f.items, Annotation{ID: f.nextID, ModelID: 7, Name: string(rune('a' + i)), Position: math.V3(float32(i), 0, 0)})
	}
	return f
}

func displayIndices(list []Annotation) []int {
	out := make([]int, len(list))
	for i, a := range list {
		out[i] = a.DisplayIndex
	}
	return out
}

func TestLoadAllAssignsIndicesInFetchOrder(t *testing.T) {
	s := NewStore(7, seeded(4), nil)
	require.False(t, s.Loaded())
	require.NoError(t, s.LoadAll(context.Background()))

	list := s.Annotations()
	assert.True(t, s.Loaded())
	assert.Equal(t, []int{1, 2, 3, 4}, displayIndices(list))
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{list[0].Name, list[1].Name, list[2].Name, list[3].Name})
}

func TestReloadAfterDeleteIsContiguous(t *testing.T) {
	remote := seeded(4)
	s := NewStore(7, remote, nil)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))

	second, ok := s.ByDisplayIndex(2)
	require.True(t, ok)
	require.NoError(t, s.Delete(ctx, second.ID))
	assert.Equal(t, 4, s.Len(), "delete leaves the local set alone until reload")

	require.NoError(t, s.LoadAll(ctx))
	list := s.Annotations()
	assert.Equal(t, []int{1, 2, 3}, displayIndices(list))
	assert.Equal(t, "c", list[1].Name)
	assert.Equal(t, []int64{second.ID}, remote.deletes)
}

func TestCreateThenReload(t *testing.T) {
	remote := seeded(1)
	s := NewStore(7, remote, nil)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))

	require.NoError(t, s.Create(ctx, math.V3(1, 2, 3), "bolt", "M6"))
	require.NoError(t, s.LoadAll(ctx))

	last, ok := s.ByDisplayIndex(2)
	require.True(t, ok)
	assert.Equal(t, "bolt", last.Name)
	assert.Equal(t, 7, last.ModelID)
	assert.Equal(t, math.V3(1, 2, 3), last.Position)
}

func TestCreateRequiresName(t *testing.T) {
	remote := seeded(0)
	s := NewStore(7, remote, nil)

	err := s.Create(context.Background(), math.Vec3{}, "", "text")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, remote.creates)

	// Only the empty string counts as missing.
	require.NoError(t, s.Create(context.Background(), math.Vec3{}, "  ", "text"))
	assert.Equal(t, 1, remote.creates)
}

func TestRemoteFailureLeavesStateUnchanged(t *testing.T) {
	remote := seeded(2)
	s := NewStore(7, remote, nil)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))

	boom := errors.New("backend down")
	remote.err = boom
	assert.ErrorIs(t, s.LoadAll(ctx), boom)
	assert.ErrorIs(t, s.Create(ctx, math.Vec3{}, "x", ""), boom)
	assert.ErrorIs(t, s.Delete(ctx, 1), boom)
	assert.Equal(t, 2, s.Len())
}

func TestFetchDoesNotMutate(t *testing.T) {
	s := NewStore(7, seeded(3), nil)
	list, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Zero(t, s.Len())
	assert.False(t, s.Loaded())
}

func TestClosestToCamera(t *testing.T) {
	cam := math.Vec3{}
	list := AssignDisplayIndices([]Annotation{
		{Position: math.V3(5, 0, 0)},
		{Position: math.V3(0, 3, 0)},
		{Position: math.V3(0, 0, 9)},
	})
	assert.Equal(t, 2, ClosestToCamera(cam, list))
	assert.Zero(t, ClosestToCamera(cam, nil))
}

func TestClosestToCameraTieKeepsFirst(t *testing.T) {
	list := AssignDisplayIndices([]Annotation{
		{Position: math.V3(0, 0, 4)},
		{Position: math.V3(4, 0, 0)},
		{Position: math.V3(0, 4, 0)},
	})
	assert.Equal(t, 1, ClosestToCamera(math.Vec3{}, list))
}

func TestToggleVisibility(t *testing.T) {
	s := NewStore(7, seeded(2), nil)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))

	assert.False(t, s.Visible(1), "markers start hidden")
	assert.True(t, s.ToggleVisibility(1))
	assert.True(t, s.Visible(1))
	assert.False(t, s.Visible(2))
	assert.False(t, s.ToggleVisibility(1))

	assert.False(t, s.ToggleVisibility(9))
	assert.False(t, s.Visible(9))

	s.ToggleVisibility(2)
	require.NoError(t, s.LoadAll(ctx))
	assert.False(t, s.Visible(2), "reload resets visibility")
}
