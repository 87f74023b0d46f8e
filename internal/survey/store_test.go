package survey

import (
	"testing"

	"mag-surveyor/internal/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(ux, uy, uz float64) Reading {
	return Reading{
		Calibrated:   Vec3{ux - 1, uy - 1, uz - 1},
		Uncalibrated: Vec3{ux, uy, uz},
		Bias:         Vec3{1, 1, 1},
	}
}

func TestMagnitudeRounds(t *testing.T) {
	assert.Equal(t, 5, Vec3{3, 4, 0}.Magnitude())
	assert.Equal(t, 5, reading(3, 4, 0).Magnitude())
	assert.Equal(t, 2, Vec3{1, 1, 1}.Magnitude(), "sqrt(3) rounds to 2")
	assert.Equal(t, 0, Vec3{}.Magnitude())
}

func TestFieldsOrder(t *testing.T) {
	r := Reading{
		Calibrated:   Vec3{1, 2, 3},
		Uncalibrated: Vec3{4, 5, 6},
		Bias:         Vec3{7, 8, 9},
	}
	assert.Equal(t, [FieldCount]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, r.Fields())
	assert.Equal(t, r, ReadingFromFields(r.Fields()))
}

func TestPutOverwritesObstacle(t *testing.T) {
	s := NewStore()
	c := grid.Cell{X: 1, Y: 2}

	s.PutObstacle(c)
	e, ok := s.Get(c)
	require.True(t, ok)
	assert.True(t, e.IsObstacle())
	assert.Equal(t, []grid.Cell{c}, s.Obstacles())
	assert.Empty(t, s.Nodes())

	s.Put(c, reading(3, 4, 0))
	e, ok = s.Get(c)
	require.True(t, ok)
	assert.Equal(t, KindNode, e.Kind)
	assert.Empty(t, s.Obstacles())
	assert.Equal(t, []Node{{Cell: c, Magnitude: 5}}, s.Nodes())
	assert.Equal(t, 1, s.Len())
}

func TestPutObstacleOverwritesNode(t *testing.T) {
	s := NewStore()
	c := grid.Cell{X: -4, Y: 0}

	s.Put(c, reading(10, 0, 0))
	s.PutObstacle(c)

	e, ok := s.Get(c)
	require.True(t, ok)
	assert.True(t, e.IsObstacle())
	assert.Equal(t, Reading{}, e.Reading)
	assert.Empty(t, s.Nodes())
	assert.Equal(t, []grid.Cell{c}, s.Obstacles())
}

func TestRemove(t *testing.T) {
	s := NewStore()
	a, b := grid.Cell{X: 0, Y: 0}, grid.Cell{X: 0, Y: 1}
	s.Put(a, reading(1, 0, 0))
	s.PutObstacle(b)

	assert.False(t, s.Remove(grid.Cell{X: 9, Y: 9}), "unknown cell is a no-op")
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove(a))
	assert.True(t, s.Remove(b))
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Nodes())
	assert.Empty(t, s.Obstacles())
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Put(grid.Cell{X: 1}, reading(1, 2, 3))
	s.PutObstacle(grid.Cell{X: 2})
	s.Clear()

	assert.Zero(t, s.Len())
	assert.Nil(t, s.Edges())
	for range s.All() {
		t.Fatal("cleared store must not yield entries")
	}
}

func TestEdgesFollowPinOrder(t *testing.T) {
	s := NewStore()
	a, b, c := grid.Cell{X: 0}, grid.Cell{X: 1}, grid.Cell{X: 2}
	s.Put(a, reading(1, 0, 0))
	s.Put(b, reading(1, 0, 0))
	s.PutObstacle(grid.Cell{X: 5})
	s.Put(c, reading(1, 0, 0))

	assert.Equal(t, []Edge{{From: a, To: b}, {From: b, To: c}}, s.Edges())

	// re-pinning moves the node to the end of the polyline
	s.Put(a, reading(2, 0, 0))
	assert.Equal(t, []Edge{{From: b, To: c}, {From: c, To: a}}, s.Edges())

	s.Remove(c)
	assert.Equal(t, []Edge{{From: b, To: a}}, s.Edges())
}

func TestAllIsSorted(t *testing.T) {
	s := NewStore()
	s.Put(grid.Cell{X: 2, Y: 0}, reading(1, 0, 0))
	s.PutObstacle(grid.Cell{X: -1, Y: 5})
	s.Put(grid.Cell{X: 2, Y: -3}, reading(1, 0, 0))

	var got []grid.Cell
	for c := range s.All() {
		got = append(got, c)
	}
	assert.Equal(t, []grid.Cell{{X: -1, Y: 5}, {X: 2, Y: -3}, {X: 2, Y: 0}}, got)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.Put(grid.Cell{X: 1}, reading(1, 0, 0))
	c := s.Clone()
	c.Put(grid.Cell{X: 2}, reading(1, 0, 0))
	c.Remove(grid.Cell{X: 1})

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(grid.Cell{X: 1})
	assert.True(t, ok)
	assert.Len(t, s.Nodes(), 1)
}

func TestBulkPutKeepsPinOrder(t *testing.T) {
	const n = 100_000
	s := NewStore()
	for i := 0; i < n; i++ {
		s.Put(grid.Cell{X: i % 317, Y: i / 317}, reading(float64(i), 0, 0))
	}
	require.Equal(t, n, s.Len())

	first := grid.Cell{X: 0, Y: 0}
	s.Put(first, reading(1, 0, 0))
	s.PutObstacle(grid.Cell{X: 1, Y: 0})

	nodes := s.Nodes()
	require.Len(t, nodes, n-1)
	assert.Equal(t, grid.Cell{X: 2, Y: 0}, nodes[0].Cell)
	assert.Equal(t, first, nodes[len(nodes)-1].Cell)

	edges := s.Edges()
	require.Len(t, edges, n-2)
	assert.Equal(t, first, edges[len(edges)-1].To)
}

func TestCloneKeepsPinSequence(t *testing.T) {
	s := NewStore()
	a, b := grid.Cell{X: 1}, grid.Cell{X: 2}
	s.Put(a, reading(1, 0, 0))
	s.Put(b, reading(1, 0, 0))

	c := s.Clone()
	c.Put(a, reading(3, 0, 0))
	assert.Equal(t, []Edge{{From: b, To: a}}, c.Edges())
	assert.Equal(t, []Edge{{From: a, To: b}}, s.Edges())
}

func BenchmarkStorePut(b *testing.B) {
	s := NewStore()
	for i := 0; i < b.N; i++ {
		s.Put(grid.Cell{X: i, Y: -i}, reading(1, 0, 0))
	}
}
