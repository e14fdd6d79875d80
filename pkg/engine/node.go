package engine

// Node is one step of a compiled template. Name selects the render slot,
// Value carries the slot argument and Children the nested body.
type Node struct {
	Name     string
	Value    interface{}
	Children []*Node
	Parent   *Node
	Line     int
	Col      int
	Filename string
}

// Append adds child to n and wires its Parent pointer.
func (n *Node) Append(children ...*Node) {
	for _, child := range children {
		if child == nil {
			continue
		}
		child.Parent = n
		n.Children = append(n.Children, child)
	}
}

// Walk visits n and every descendant depth first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
