package survey

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"mag-surveyor/internal/grid"
)

// Node is a cell with a real reading, labelled with its magnitude.
type Node struct {
	Cell      grid.Cell
	Magnitude int
}

// Edge joins two consecutively pinned nodes.
type Edge struct {
	From grid.Cell
	To   grid.Cell
}

// Store maps grid cells to recorded entries. A cell is either a node or an
// obstacle, never both. The zero value is not usable; call NewStore.
//
// Store is not safe for concurrent use.
type Store struct {
	entries map[grid.Cell]Entry
	// pin sequence number of each node; larger is newer
	pinned map[grid.Cell]uint64
	seq    uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[grid.Cell]Entry),
		pinned:  make(map[grid.Cell]uint64),
	}
}

// Put records a reading at cell, replacing any node or obstacle there.
// The node moves to the end of the pin order.
func (s *Store) Put(cell grid.Cell, r Reading) {
	s.entries[cell] = Entry{Kind: KindNode, Reading: r}
	s.seq++
	s.pinned[cell] = s.seq
}

// PutObstacle marks cell as an obstacle, discarding any reading there.
func (s *Store) PutObstacle(cell grid.Cell) {
	delete(s.pinned, cell)
	s.entries[cell] = Entry{Kind: KindObstacle}
}

// Remove deletes cell from the store. It reports whether anything was removed;
// removing an unknown cell is a no-op.
func (s *Store) Remove(cell grid.Cell) bool {
	if _, ok := s.entries[cell]; !ok {
		return false
	}
	delete(s.entries, cell)
	delete(s.pinned, cell)
	return true
}

// Clear removes every entry.
func (s *Store) Clear() {
	clear(s.entries)
	clear(s.pinned)
}

// Get returns the entry at cell.
func (s *Store) Get(cell grid.Cell) (Entry, bool) {
	e, ok := s.entries[cell]
	return e, ok
}

// Len returns the number of recorded cells.
func (s *Store) Len() int {
	return len(s.entries)
}

// Cells returns every recorded cell sorted by X, then Y.
func (s *Store) Cells() []grid.Cell {
	cells := make([]grid.Cell, 0, len(s.entries))
	for c := range s.entries {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b grid.Cell) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return cells
}

// All iterates over every entry in Cells order.
func (s *Store) All() iter.Seq2[grid.Cell, Entry] {
	return func(yield func(grid.Cell, Entry) bool) {
		for _, c := range s.Cells() {
			if !yield(c, s.entries[c]) {
				return
			}
		}
	}
}

// Nodes returns the node cells in pin order with their magnitude labels.
func (s *Store) Nodes() []Node {
	order := s.pinOrder()
	nodes := make([]Node, 0, len(order))
	for _, c := range order {
		nodes = append(nodes, Node{Cell: c, Magnitude: s.entries[c].Reading.Magnitude()})
	}
	return nodes
}

// Obstacles returns the obstacle cells sorted by X, then Y.
func (s *Store) Obstacles() []grid.Cell {
	var out []grid.Cell
	for c, e := range s.All() {
		if e.IsObstacle() {
			out = append(out, c)
		}
	}
	return out
}

// Edges returns the polyline through the nodes in pin order.
func (s *Store) Edges() []Edge {
	order := s.pinOrder()
	if len(order) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(order)-1)
	for i := 1; i < len(order); i++ {
		edges = append(edges, Edge{From: order[i-1], To: order[i]})
	}
	return edges
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	return &Store{
		entries: maps.Clone(s.entries),
		pinned:  maps.Clone(s.pinned),
		seq:     s.seq,
	}
}

// pinOrder returns the node cells, oldest pin first.
func (s *Store) pinOrder() []grid.Cell {
	order := make([]grid.Cell, 0, len(s.pinned))
	for c := range s.pinned {
		order = append(order, c)
	}
	slices.SortFunc(order, func(a, b grid.Cell) int {
		return cmp.Compare(s.pinned[a], s.pinned[b])
	})
	return order
}
