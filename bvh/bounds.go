package bvh

import (
	"math"

	"github.com/kperelygin/lumen/types"
)

// An axis-aligned bounding box.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty AABB. The box is initialized to an inverted infinite
// extent so that the first Include/Union call snaps it to real geometry.
func NewAABB() AABB {
	return AABB{
		Min: types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Calculate the bounding box of a triangle given its three vertices.
func TriangleBounds(v0, v1, v2 types.Vec3) AABB {
	return AABB{
		Min: types.MinVec3(v0, types.MinVec3(v1, v2)),
		Max: types.MaxVec3(v0, types.MaxVec3(v1, v2)),
	}
}

// Calculate the centroid of a triangle given its three vertices.
func TriangleCentroid(v0, v1, v2 types.Vec3) types.Vec3 {
	return v0.Add(v1).Add(v2).Mul(1.0 / 3.0)
}

// Expand the box so it also encloses other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}

// Expand the box so it encloses a point.
func (b AABB) Include(p types.Vec3) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, p),
		Max: types.MaxVec3(b.Max, p),
	}
}

// Get the box side lengths.
func (b AABB) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Calculate the total surface area of the box faces.
func (b AABB) SurfaceArea() float32 {
	side := b.Max.Sub(b.Min)
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[2]*side[0])
}
