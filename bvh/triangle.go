package bvh

import (
	"sort"

	"github.com/kperelygin/lumen/types"
)

// Triangle is the fixed-size triangle record shared with the ray-tracing
// backend. Vertices are stored as Vec4 with an unused w component so that
// each vertex maps to a device float4 without host-side repacking.
type Triangle struct {
	V0 types.Vec4
	V1 types.Vec4
	V2 types.Vec4
}

// Create a triangle from three world-space positions.
func NewTriangle(v0, v1, v2 types.Vec3) Triangle {
	return Triangle{
		V0: v0.Vec4(0),
		V1: v1.Vec4(0),
		V2: v2.Vec4(0),
	}
}

// Calculate the triangle bounding box.
func (t Triangle) Bounds() AABB {
	return TriangleBounds(t.V0.Vec3(), t.V1.Vec3(), t.V2.Vec3())
}

// Calculate the triangle centroid.
func (t Triangle) Centroid() types.Vec3 {
	return TriangleCentroid(t.V0.Vec3(), t.V1.Vec3(), t.V2.Vec3())
}

// A buildTriangle caches the per-triangle data the splitter needs plus the
// index of the triangle in the caller's input slice. Entries are immutable;
// only their position inside the partition changes during a build.
type buildTriangle struct {
	centroid types.Vec3
	bounds   AABB
	source   uint32
}

// The partition holds the build triangles for one build and supports the
// in-place reordering the splitter performs. Triangles are swapped between
// slots, never copied or mutated.
type partition struct {
	items []buildTriangle
}

// Populate the partition from the input triangle soup.
func newPartition(triangles []Triangle) partition {
	items := make([]buildTriangle, len(triangles))
	for i, tri := range triangles {
		items[i] = buildTriangle{
			centroid: tri.Centroid(),
			bounds:   tri.Bounds(),
			source:   uint32(i),
		}
	}
	return partition{items: items}
}

func (p *partition) len() int {
	return len(p.items)
}

func (p *partition) at(i int) *buildTriangle {
	return &p.items[i]
}

func (p *partition) swap(i, j int) {
	p.items[i], p.items[j] = p.items[j], p.items[i]
}

// Get the centroid coordinate of triangle i along the given axis.
func (p *partition) axisCentroid(i, axis int) float32 {
	return p.items[i].centroid[axis]
}

// Reorder the range [start, start+count) so that triangles whose centroid
// lies below point on the split axis come first. Returns the index of the
// first triangle of the right side. Classic two-pointer swap partition;
// runs in O(count) with no allocations.
func (p *partition) split(start, count, axis int, point float32) int {
	left := start
	right := start + count - 1
	for left <= right {
		if p.items[left].centroid[axis] < point {
			left++
			continue
		}
		p.swap(left, right)
		right--
	}
	return left
}

// Sort the range [start, start+count) by centroid along the given axis.
// Used by the median-split fallback when a SAH partition degenerates.
func (p *partition) sortByCentroid(start, count, axis int) {
	rng := p.items[start : start+count]
	sort.Slice(rng, func(i, j int) bool {
		return rng[i].centroid[axis] < rng[j].centroid[axis]
	})
}
