package fsmap

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFS is an in-memory FileSystem fixture for exercising Search without
// touching disk: a flat map of directory path to its entries.
type memFS struct {
	tree map[string][]Entry
}

func (m *memFS) Root() string { return "mem" }
func (m *memFS) List(dir string) ([]Entry, error) {
	return m.tree[dir], nil
}

func newSearchFixture() *memFS {
	return &memFS{tree: map[string][]Entry{
		"": {
			{Name: "acquisitions", IsDir: true},
			{Name: "readme.txt"},
		},
		"acquisitions": {
			{Name: "run-alpha", IsDir: true},
			{Name: "run-beta", IsDir: true},
		},
		"acquisitions/run-alpha": {
			{Name: "scope-trace.dat"},
			{Name: "notes.txt"},
		},
		"acquisitions/run-beta": {
			{Name: "scope-trace.dat"},
			{Name: "calib.log"},
		},
	}}
}

func TestSearchFindsMatchingNamesAcrossWorkers(t *testing.T) {
	fs := newSearchFixture()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	matches, err := Search(ctx, fs, "", `scope-trace\.dat`, 4)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	dirs := []string{matches[0].Dir, matches[1].Dir}
	sort.Strings(dirs)
	assert.Equal(t, []string{"acquisitions/run-alpha", "acquisitions/run-beta"}, dirs)
}

func TestSearchNoMatchesReturnsEmpty(t *testing.T) {
	fs := newSearchFixture()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	matches, err := Search(ctx, fs, "", `nonexistent-pattern`, 2)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchInvalidPatternReturnsError(t *testing.T) {
	fs := newSearchFixture()

	_, err := Search(context.Background(), fs, "", `[`, 2)
	assert.Error(t, err)
}

func TestSearchSingleWorkerStillWalksWholeTree(t *testing.T) {
	fs := newSearchFixture()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	matches, err := Search(ctx, fs, "", `\.(txt|log)$`, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
