package archetype

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	ids   map[string]int64
	err   error
	calls int
}

func (f *fakeDirectory) ArchetypeID(_ context.Context, name string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	id, ok := f.ids[name]
	if !ok {
		return 0, errors.New("unknown archetype")
	}
	return id, nil
}

func TestResolveLooksUpAndCaches(t *testing.T) {
	dir := &fakeDirectory{ids: map[string]int64{"helpful_expert": 7}}
	r, err := NewResolver(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(7), r.Resolve(context.Background(), "helpful_expert"))
	assert.Equal(t, int64(7), r.Resolve(context.Background(), "helpful_expert"))
	assert.Equal(t, 1, dir.calls)
}

func TestResolveUnknownNameIsUnassigned(t *testing.T) {
	dir := &fakeDirectory{ids: map[string]int64{}}
	r, err := NewResolver(dir)
	require.NoError(t, err)

	assert.Equal(t, UnassignedID, r.Resolve(context.Background(), "nonexistent"))
}

func TestResolveDirectoryErrorIsUnassigned(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("db down")}
	r, err := NewResolver(dir)
	require.NoError(t, err)

	assert.Equal(t, UnassignedID, r.Resolve(context.Background(), "helpful_expert"))
	// Failures are not cached; the next call retries.
	r.Resolve(context.Background(), "helpful_expert")
	assert.Equal(t, 2, dir.calls)
}

func TestResolveNilDirectory(t *testing.T) {
	r, err := NewResolver(nil)
	require.NoError(t, err)

	assert.Equal(t, UnassignedID, r.Resolve(context.Background(), "anything"))
}

func TestResolveEmptyName(t *testing.T) {
	dir := &fakeDirectory{ids: map[string]int64{"": 9}}
	r, err := NewResolver(dir)
	require.NoError(t, err)

	assert.Equal(t, UnassignedID, r.Resolve(context.Background(), ""))
	assert.Zero(t, dir.calls)
}
