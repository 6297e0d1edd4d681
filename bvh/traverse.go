package bvh

import (
	"github.com/chewxy/math32"

	"github.com/kperelygin/lumen/types"
)

// The triangle test reports a miss when the determinant magnitude drops
// below this threshold (ray parallel to the triangle plane).
const intersectEpsilon float32 = 1e-7

// A ray with a precomputed reciprocal direction for the slab test.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	invDir types.Vec3
}

// Create a ray. Zero direction components get an infinite reciprocal: the
// ray is parallel to that axis and only the other two slabs constrain it.
func NewRay(origin, dir types.Vec3) Ray {
	var inv types.Vec3
	for axis := 0; axis < 3; axis++ {
		if dir[axis] != 0 {
			inv[axis] = 1.0 / dir[axis]
		} else {
			inv[axis] = math32.Inf(1)
		}
	}
	return Ray{Origin: origin, Dir: dir, invDir: inv}
}

// Hit describes the nearest intersection found by Intersect.
type Hit struct {
	// Distance to the hit point in units of the ray direction length.
	Distance float32

	// Index into the tree's remapped triangle list. Translate through
	// SourceIndex to address per-triangle data keyed by input order.
	Triangle int

	// Barycentric coordinates of the hit point.
	U, V float32

	// True when the ray struck the back side of the triangle.
	BackFace bool

	// Unnormalized geometric normal of the struck triangle.
	Normal types.Vec3
}

// Slab test the ray against a box. The reported distance is the entry
// distance, or the exit distance when the ray origin lies inside the box.
func (r Ray) intersectAABB(min, max types.Vec3) (dist float32, hit bool) {
	tmin := (min[0] - r.Origin[0]) * r.invDir[0]
	tmax := (max[0] - r.Origin[0]) * r.invDir[0]
	if tmin > tmax {
		tmin, tmax = tmax, tmin
	}

	for axis := 1; axis < 3; axis++ {
		t1 := (min[axis] - r.Origin[axis]) * r.invDir[axis]
		t2 := (max[axis] - r.Origin[axis]) * r.invDir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax <= 0 {
		return 0, false
	}
	if tmin > 0 {
		return tmin, true
	}
	return tmax, true
}

// Möller–Trumbore ray/triangle test. A near-zero determinant means the ray
// runs parallel to the triangle plane and is a definitive miss. The sign of
// the determinant discriminates front from back face hits.
func (r Ray) intersectTriangle(tri *Triangle) (Hit, bool) {
	v0 := tri.V0.Vec3()
	edge1 := tri.V1.Vec3().Sub(v0)
	edge2 := tri.V2.Vec3().Sub(v0)

	pvec := r.Dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if math32.Abs(det) < intersectEpsilon {
		return Hit{}, false
	}
	invDet := 1.0 / det

	tvec := r.Origin.Sub(v0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	qvec := tvec.Cross(edge1)
	v := r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	dist := edge2.Dot(qvec) * invDet
	if dist < 0 {
		return Hit{}, false
	}

	return Hit{
		Distance: dist,
		U:        u,
		V:        v,
		BackFace: det < 0,
		Normal:   edge1.Cross(edge2),
	}, true
}

// Intersect finds the nearest triangle hit along the ray. The traversal is
// iterative over an explicit stack so memory stays bounded regardless of
// tree shape. Children are visited near-first, which tightens the best
// distance early; subtrees whose boxes start at or beyond the current best
// hit are pruned without being pushed.
//
// Intersect is read-only and safe for concurrent use once the build that
// produced the tree has returned.
func (t *Tree) Intersect(ray Ray) (Hit, bool) {
	if len(t.Nodes) == 0 {
		return Hit{}, false
	}
	if _, hit := ray.intersectAABB(t.Nodes[0].Min, t.Nodes[0].Max); !hit {
		return Hit{}, false
	}

	best := Hit{Distance: math32.MaxFloat32, Triangle: -1}
	found := false

	stack := make([]uint32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[index]

		if node.IsLeaf() {
			first, count := node.Triangles()
			for i := first; i < first+count; i++ {
				hit, ok := ray.intersectTriangle(&t.Triangles[i])
				if ok && hit.Distance < best.Distance {
					hit.Triangle = int(i)
					best = hit
					found = true
				}
			}
			continue
		}

		left, right := node.Children()
		leftDist, leftHit := ray.intersectAABB(t.Nodes[left].Min, t.Nodes[left].Max)
		rightDist, rightHit := ray.intersectAABB(t.Nodes[right].Min, t.Nodes[right].Max)

		if leftHit && leftDist >= best.Distance {
			leftHit = false
		}
		if rightHit && rightDist >= best.Distance {
			rightHit = false
		}

		// Push the farther child first so the nearer one pops first.
		switch {
		case leftHit && rightHit:
			if leftDist <= rightDist {
				stack = append(stack, right, left)
			} else {
				stack = append(stack, left, right)
			}
		case leftHit:
			stack = append(stack, left)
		case rightHit:
			stack = append(stack, right)
		}
	}

	if !found {
		return Hit{}, false
	}
	return best, true
}
