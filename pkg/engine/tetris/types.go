package tetris

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned by Node.Add when the file does not fit.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// File is an immutable unit of work to place.
type File struct {
	name string
	size int64
}

// NewFile creates a file record. Size must be non-negative.
func NewFile(name string, size int64) File {
	return File{name: name, size: size}
}

func (f File) Name() string { return f.name }
func (f File) Size() int64 { return f.size }

func (f File) String() string {
	return fmt.Sprintf("File '%s' (%d)", f.name, f.size)
}

// Node represents a capacity-limited target for files.
type Node struct {
	name     string
	capacity int64
	occupied int64
	files    int
}

// NewNode creates an empty node. Capacity must be non-negative.
func NewNode(name string, capacity int64) *Node {
	return &Node{name: name, capacity: capacity}
}

func (n *Node) Name() string { return n.name }
func (n *Node) Capacity() int64 { return n.capacity }
func (n *Node) Occupied() int64 { return n.occupied }
func (n *Node) Free() int64 { return n.capacity - n.occupied }
func (n *Node) Files() int { return n.files }

// CanAccept reports whether f fits in the remaining free space.
func (n *Node) CanAccept(f File) bool {
	return f.size <= n.Free()
}

// Add places f on the node. It fails without mutating the node when f does not fit.
func (n *Node) Add(f File) error {
	if !n.CanAccept(f) {
		return fmt.Errorf("node %q (free %d) cannot hold file %q (%d): %w",
			n.name, n.Free(), f.name, f.size, ErrCapacityExceeded)
	}
	n.occupied += f.size
	n.files++
	return nil
}

// Utilization returns occupied/capacity in [0, 1]. Zero-capacity nodes report 0.
func (n *Node) Utilization() float64 {
	if n.capacity == 0 {
		return 0
	}
	return float64(n.occupied) / float64(n.capacity)
}

func (n *Node) String() string {
	return fmt.Sprintf("Node '%s' (%d/%d) [used: %d]", n.name, n.Free(), n.capacity, n.occupied)
}
