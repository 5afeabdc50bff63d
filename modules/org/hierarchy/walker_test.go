package hierarchy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/modules/org/hierarchy"
)

type orderedChildren map[int64][]int64

func (c orderedChildren) Children(_ context.Context, id int64) ([]int64, error) {
	return c[id], nil
}

func TestWalker_BreadthFirst(t *testing.T) {
	children := orderedChildren{
		1: {2, 3},
		2: {4, 5},
		3: {6},
	}
	w := hierarchy.NewWalker(children, 1)

	var got []int64
	for {
		id, ok, err := w.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, id)
	}
	assert.Equal(t, []int64{2, 3, 4, 5, 6}, got)
}

func TestWalker_Reset(t *testing.T) {
	children := orderedChildren{1: {2}, 2: {3}}
	w := hierarchy.NewWalker(children, 1)

	first, err := hierarchy.CollectDescendants(context.Background(), children, 1)
	require.NoError(t, err)

	id, ok, err := w.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), id)

	w.Reset()
	var again []int64
	for {
		id, ok, err := w.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		again = append(again, id)
	}
	assert.Equal(t, first, again)
}

func TestWalker_DeduplicatesCorruptEdges(t *testing.T) {
	// 3 appears under both 1 and 2; it must be yielded once.
	children := orderedChildren{
		1: {2, 3},
		2: {3},
	}
	got, err := hierarchy.CollectDescendants(context.Background(), children, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, got)
}

func TestWalker_LeafRoot(t *testing.T) {
	got, err := hierarchy.CollectDescendants(context.Background(), orderedChildren{}, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}
