package tetris

// Unassigned marks a file that no node could accept.
const Unassigned = -1

// Placement maps each input file index to a node index or Unassigned.
type Placement struct {
	assign []int
}

// Len returns the number of files covered by the placement.
func (p *Placement) Len() int { return len(p.assign) }

// NodeOf returns the node index chosen for file i.
func (p *Placement) NodeOf(i int) (int, bool) {
	n := p.assign[i]
	return n, n != Unassigned
}

// Assignments returns a copy of the file -> node index table.
func (p *Placement) Assignments() []int {
	out := make([]int, len(p.assign))
	copy(out, p.assign)
	return out
}

// Unassigned returns the input indices of files left without a node.
func (p *Placement) Unassigned() []int {
	var out []int
	for i, n := range p.assign {
		if n == Unassigned {
			out = append(out, i)
		}
	}
	return out
}

// Step describes one placement decision. Order is the node ordering after the
// decision and is only valid for the duration of the hook call.
type Step struct {
	File  int
	Node  int
	Order []int
}

// Allocator places files on nodes with a best-fit-decreasing pass.
type Allocator struct {
	hook func(Step)
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithStepHook registers fn to be called after every file decision.
func WithStepHook(fn func(Step)) Option {
	return func(a *Allocator) {
		a.hook = fn
	}
}

func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate is shorthand for NewAllocator().Allocate.
func Allocate(files []File, nodes []*Node) *Placement {
	return NewAllocator().Allocate(files, nodes)
}

// Allocate assigns every file to the first node, in load order, that can hold it.
// Files are taken largest first. Neither input slice is reordered; the chosen
// nodes are mutated in place. Files that fit nowhere stay Unassigned and are
// not retried.
func (a *Allocator) Allocate(files []File, nodes []*Node) *Placement {
	p := &Placement{assign: make([]int, len(files))}
	for i := range p.assign {
		p.assign[i] = Unassigned
	}

	order := nodeOrder(nodes)

	for _, fi := range fileOrder(files) {
		file := files[fi]

		j := -1
		for pos, ni := range order {
			if nodes[ni].CanAccept(file) {
				j = pos
				break
			}
		}

		if j >= 0 {
			ni := order[j]
			// CanAccept was checked above, Add cannot fail here.
			_ = nodes[ni].Add(file)
			p.assign[fi] = ni
			reposition(order, nodes, j)
		}

		if a.hook != nil {
			a.hook(Step{File: fi, Node: p.assign[fi], Order: order})
		}
	}

	return p
}

// reposition moves the node at order[j], whose load just grew or stayed the
// same, rightward past every node that now sorts before it. Only that node's
// key changed and it can only move later, so the rest of the ordering stays
// valid. A zero-size file leaves the node where it is.
func reposition(order []int, nodes []*Node, j int) {
	moved := order[j]
	k := j
	for k+1 < len(order) && nodeLess(nodes, order[k+1], moved) {
		order[k] = order[k+1]
		k++
	}
	order[k] = moved
}
