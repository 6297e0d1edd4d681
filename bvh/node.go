package bvh

import "github.com/kperelygin/lumen/types"

// Nodes are fixed-size records laid out for direct upload to the tracing
// backend: the two box corners followed by a 4-int payload whose meaning
// depends on the node type:
//
// - internal nodes: Data[0] and Data[1] hold the left/right child indices
//   (the right child is always left+1 since children are appended as a
//   contiguous pair) and Data[3] is 0.
// - leaf nodes: Data[0] and Data[2] hold the first triangle index into the
//   remapped triangle list and Data[3] holds the triangle count (>0).
//
// Data[3] is the discriminator: any consumer, including device code, can
// branch on triangleCount > 0 to detect a leaf.
type Node struct {
	Min  types.Vec3
	Max  types.Vec3
	Data [4]int32
}

// Set bounding box.
func (n *Node) SetBounds(bounds AABB) {
	n.Min = bounds.Min
	n.Max = bounds.Max
}

// Get bounding box.
func (n *Node) Bounds() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}

// Mark node as internal and set the left child index. The right child is
// implied as left+1.
func (n *Node) SetChildren(left uint32) {
	n.Data[0] = int32(left)
	n.Data[1] = int32(left + 1)
	n.Data[2] = 0
	n.Data[3] = 0
}

// Get left and right child node indices.
func (n *Node) Children() (left, right uint32) {
	return uint32(n.Data[0]), uint32(n.Data[1])
}

// Mark node as a leaf referencing count triangles starting at first in the
// remapped triangle list.
func (n *Node) SetTriangles(first, count uint32) {
	n.Data[0] = int32(first)
	n.Data[1] = 0
	n.Data[2] = int32(first)
	n.Data[3] = int32(count)
}

// Get first triangle index and triangle count for a leaf.
func (n *Node) Triangles() (first, count uint32) {
	return uint32(n.Data[2]), uint32(n.Data[3])
}

// Check whether this node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Data[3] > 0
}
