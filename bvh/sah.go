package bvh

// The evaluators will not attempt to produce split candidates along an axis
// whose centroid extent is below this threshold; such an axis cannot
// discriminate between triangles.
const minAxisExtent float32 = 1e-6

// A candidate split selected by one of the SAH evaluators. Lower cost is
// better; valid is false when no axis produced a usable split.
type splitCandidate struct {
	axis  int
	point float32
	cost  float32
	valid bool
}

// binSet holds the per-bin accumulators and the prefix/suffix scratch used
// by the binned evaluator. It is allocated once per build and reused across
// nodes to keep the evaluator allocation-free.
type binSet struct {
	counts []int32
	bounds []AABB

	leftCount   []int32
	leftBounds  []AABB
	rightCount  []int32
	rightBounds []AABB
}

func newBinSet(binCount int) *binSet {
	return &binSet{
		counts:      make([]int32, binCount),
		bounds:      make([]AABB, binCount),
		leftCount:   make([]int32, binCount),
		leftBounds:  make([]AABB, binCount),
		rightCount:  make([]int32, binCount),
		rightBounds: make([]AABB, binCount),
	}
}

func (s *binSet) reset() {
	for i := range s.counts {
		s.counts[i] = 0
		s.bounds[i] = NewAABB()
	}
}

// Select the best split for the range [start, start+count) using binned SAH.
//
// Each axis is processed independently: triangles are bucketed into
// len(s.counts) bins spanning the centroid bounds, per-bin counts and boxes
// are aggregated, and a prefix/suffix sweep turns them into left/right
// aggregates for every interior bin boundary. The candidate with the lowest
// surfaceArea(left)*leftCount + surfaceArea(right)*rightCount wins. The whole
// evaluation is O(count) per axis; the bin boundary sweeps are O(bins).
func findBinnedSplit(p *partition, start, count int, centroidBounds AABB, s *binSet) splitCandidate {
	var best splitCandidate

	numBins := len(s.counts)
	for axis := 0; axis < 3; axis++ {
		axisMin := centroidBounds.Min[axis]
		extent := centroidBounds.Max[axis] - axisMin
		if extent < minAxisExtent {
			continue
		}

		// Bin triangles by centroid.
		s.reset()
		scale := float32(numBins) / extent
		for i := start; i < start+count; i++ {
			bin := int((p.axisCentroid(i, axis) - axisMin) * scale)
			if bin < 0 {
				bin = 0
			} else if bin >= numBins {
				bin = numBins - 1
			}
			s.counts[bin]++
			s.bounds[bin] = s.bounds[bin].Union(p.at(i).bounds)
		}

		// Prefix aggregates: triangles and bounds for bins [0..k].
		runCount := int32(0)
		runBounds := NewAABB()
		for k := 0; k < numBins; k++ {
			runCount += s.counts[k]
			if s.counts[k] > 0 {
				runBounds = runBounds.Union(s.bounds[k])
			}
			s.leftCount[k] = runCount
			s.leftBounds[k] = runBounds
		}

		// Suffix aggregates: triangles and bounds for bins [k..numBins-1].
		runCount = 0
		runBounds = NewAABB()
		for k := numBins - 1; k >= 0; k-- {
			runCount += s.counts[k]
			if s.counts[k] > 0 {
				runBounds = runBounds.Union(s.bounds[k])
			}
			s.rightCount[k] = runCount
			s.rightBounds[k] = runBounds
		}

		// Score every interior bin boundary that separates two non-empty
		// sides.
		for k := 1; k < numBins; k++ {
			leftCount := s.leftCount[k-1]
			rightCount := s.rightCount[k]
			if leftCount == 0 || rightCount == 0 {
				continue
			}

			cost := s.leftBounds[k-1].SurfaceArea()*float32(leftCount) +
				s.rightBounds[k].SurfaceArea()*float32(rightCount)
			if !best.valid || cost < best.cost {
				best = splitCandidate{
					axis:  axis,
					point: axisMin + extent*float32(k)/float32(numBins),
					cost:  cost,
					valid: true,
				}
			}
		}
	}

	return best
}

// Select the best split for the range [start, start+count) by scoring a
// fixed set of evenly spaced candidate positions per axis with a full range
// scan each. This is O(count*steps) and only worth using for small ranges
// where the binning machinery costs more than it saves.
func findSampledSplit(p *partition, start, count int, centroidBounds AABB, steps int) splitCandidate {
	var best splitCandidate

	for axis := 0; axis < 3; axis++ {
		axisMin := centroidBounds.Min[axis]
		extent := centroidBounds.Max[axis] - axisMin
		if extent < minAxisExtent {
			continue
		}

		for step := 1; step < steps; step++ {
			point := axisMin + extent*float32(step)/float32(steps)

			leftCount := 0
			rightCount := 0
			leftBounds := NewAABB()
			rightBounds := NewAABB()
			for i := start; i < start+count; i++ {
				item := p.at(i)
				if item.centroid[axis] < point {
					leftCount++
					leftBounds = leftBounds.Union(item.bounds)
				} else {
					rightCount++
					rightBounds = rightBounds.Union(item.bounds)
				}
			}

			// Don't generate empty partitions.
			if leftCount == 0 || rightCount == 0 {
				continue
			}

			cost := leftBounds.SurfaceArea()*float32(leftCount) +
				rightBounds.SurfaceArea()*float32(rightCount)
			if !best.valid || cost < best.cost {
				best = splitCandidate{
					axis:  axis,
					point: point,
					cost:  cost,
					valid: true,
				}
			}
		}
	}

	return best
}
