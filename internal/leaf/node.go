package leaf

import (
	"github.com/roach88/tempo/internal/blend"
	"github.com/roach88/tempo/internal/interval"
)

// Vec3 is a translation.
type Vec3 [3]float64

func (v Vec3) add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

func lerpVec(a, b Vec3, bt float64) Vec3 {
	var out Vec3
	for i := range out {
		out[i] = a[i]*(1-bt) + b[i]*bt
	}
	return out
}

// Node is a translation-only hierarchy node.
type Node struct {
	Name   string
	Parent *Node
	Pos    Vec3
}

// NewNode creates a node under parent (nil for a root).
func NewNode(name string, parent *Node) *Node {
	return &Node{Name: name, Parent: parent}
}

// Root returns the top of n's hierarchy.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// WorldPos returns n's translation relative to its root.
func (n *Node) WorldPos() Vec3 {
	var p Vec3
	for c := n; c != nil; c = c.Parent {
		p = p.add(c.Pos)
	}
	return p
}

// SetPosRelative places n at p in other's coordinate space. A nil other
// means n's parent space. It reports false, leaving n untouched, when the
// nodes do not share a root.
func (n *Node) SetPosRelative(other *Node, p Vec3) bool {
	if other == nil {
		n.Pos = p
		return true
	}
	if other.Root() != n.Root() {
		return false
	}
	var parentWorld Vec3
	if n.Parent != nil {
		parentWorld = n.Parent.WorldPos()
	}
	n.Pos = other.WorldPos().add(p).sub(parentWorld)
	return true
}

// PosInterval moves a node between two positions expressed relative to
// another node.
type PosInterval struct {
	*interval.Base
	node  *Node
	other *Node
	from  Vec3
	to    Vec3
	curve blend.Curve
}

// NewPosInterval creates a translation lerp. other may be nil.
func NewPosInterval(name string, duration float64, node, other *Node, from, to Vec3, curve blend.Curve) *PosInterval {
	if curve == nil {
		curve = blend.NoBlend
	}
	p := &PosInterval{node: node, other: other, from: from, to: to, curve: curve}
	p.Base = interval.NewBase(name, duration, true, p)
	return p
}

// Apply implements interval.Action.
func (p *PosInterval) Apply(t float64) error {
	bt := blend.At(p.curve, t, p.Duration())
	if !p.node.SetPosRelative(p.other, lerpVec(p.from, p.to, bt)) {
		return interval.NewNotSameGraphError(p.Name(), p.node.Name, p.other.Name)
	}
	return nil
}
