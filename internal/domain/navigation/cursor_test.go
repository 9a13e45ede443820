package navigation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursor_NextSetWithinAndAcrossFolders(t *testing.T) {
	sizes := []int{2, 1}
	c := Cursor{}

	c.NextSet(sizes)
	require.Equal(t, Cursor{Head: 0, Index: 1}, c)

	c.NextSet(sizes)
	require.Equal(t, Cursor{Head: 1, Index: 0}, c)

	// Last set of the last folder wraps to the start.
	c.NextSet(sizes)
	require.Equal(t, Cursor{Head: 0, Index: 0}, c)
}

func TestCursor_PrevSetStopsAtZero(t *testing.T) {
	sizes := []int{3, 3}
	c := Cursor{Head: 1, Index: 0}

	c.PrevSet(sizes)
	require.Equal(t, Cursor{Head: 1, Index: 0}, c)

	c.Index = 2
	c.PrevSet(sizes)
	require.Equal(t, Cursor{Head: 1, Index: 1}, c)
}

func TestCursor_FolderWraparound(t *testing.T) {
	sizes := []int{2, 2, 2}
	c := Cursor{Head: 2, Index: 1}

	c.NextFolder(sizes)
	require.Equal(t, Cursor{Head: 0, Index: 0}, c)

	c.Index = 1
	c.PrevFolder(sizes)
	require.Equal(t, Cursor{Head: 2, Index: 0}, c)

	c.PrevFolder(sizes)
	require.Equal(t, Cursor{Head: 1, Index: 0}, c)
}

func TestCursor_Clamp(t *testing.T) {
	c := Cursor{Head: 5, Index: 3}
	require.True(t, c.Clamp([]int{2, 2}))
	require.Equal(t, Cursor{}, c)

	c = Cursor{Head: 1, Index: 4}
	require.True(t, c.Clamp([]int{2, 2}))
	require.Equal(t, Cursor{Head: 1, Index: 0}, c)

	c = Cursor{Head: -1, Index: 0}
	require.True(t, c.Clamp([]int{2}))
	require.Equal(t, Cursor{}, c)

	c = Cursor{Head: 1, Index: 1}
	require.False(t, c.Clamp([]int{2, 2}))
}

func TestCursor_ShrunkFolderListHeals(t *testing.T) {
	c := Cursor{Head: 3, Index: 2}
	pos := c.Position([]int{1})
	require.Equal(t, 0, pos.Head)
	require.Equal(t, 0, pos.Index)
	require.Equal(t, 1, pos.Sets)
}

func TestCursor_Advance(t *testing.T) {
	sizes := []int{3, 1, 3}
	c := Cursor{Head: 0, Index: 2}

	c.Advance(sizes)
	require.Equal(t, Cursor{Head: 1, Index: 2}, c)
	require.Equal(t, 0, c.Position(sizes).Index)

	c = Cursor{Head: 2, Index: 2}
	c.Advance(sizes)
	require.Equal(t, Cursor{}, c)
}

func TestCursor_EmptyIsNoop(t *testing.T) {
	c := Cursor{}
	c.NextSet(nil)
	c.PrevSet(nil)
	c.NextFolder(nil)
	c.PrevFolder(nil)
	c.Advance(nil)
	require.Equal(t, Cursor{}, c)
	require.Equal(t, Position{}, c.Position(nil))
}

func TestCursor_PositionFlags(t *testing.T) {
	c := Cursor{Head: 1, Index: 0}
	pos := c.Position([]int{1, 2, 1})
	require.True(t, pos.HasPrevFolder)
	require.True(t, pos.HasNextFolder)
	require.False(t, pos.HasPrevSet)
	require.True(t, pos.HasNextSet)
	require.Equal(t, 3, pos.Folders)
	require.Equal(t, 2, pos.Sets)
}
