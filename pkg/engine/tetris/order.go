package tetris

import "sort"

// FileBefore reports whether a is placed before b: larger files go first.
func FileBefore(a, b File) bool {
	return a.size > b.size
}

// NodeBefore reports whether a is offered files before b.
// Least occupied first; among equally loaded nodes the one with more free space wins.
func NodeBefore(a, b *Node) bool {
	if a.occupied != b.occupied {
		return a.occupied < b.occupied
	}
	return a.Free() > b.Free()
}

// fileOrder returns input indices of files in placement order.
// Equal sizes keep their input order.
func fileOrder(files []File) []int {
	order := identity(len(files))
	sort.SliceStable(order, func(i, j int) bool {
		return FileBefore(files[order[i]], files[order[j]])
	})
	return order
}

// nodeLess orders nodes a and b, given by input index, with NodeBefore and
// falls back to input order when neither node sorts first.
func nodeLess(nodes []*Node, a, b int) bool {
	na, nb := nodes[a], nodes[b]
	if NodeBefore(na, nb) {
		return true
	}
	if NodeBefore(nb, na) {
		return false
	}
	return a < b
}

// nodeOrder returns input indices of nodes sorted by nodeLess.
func nodeOrder(nodes []*Node) []int {
	order := identity(len(nodes))
	sort.Slice(order, func(i, j int) bool {
		return nodeLess(nodes, order[i], order[j])
	})
	return order
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
