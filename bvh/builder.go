// Package bvh compiles world-space triangle soups into flat bounding volume
// hierarchies that can be traversed on the CPU or uploaded as-is to a
// parallel ray-tracing backend.
package bvh

import (
	"time"

	"github.com/kperelygin/lumen/log"
)

const (
	DefaultLeafSize = 4
	DefaultBinCount = 12
	DefaultMaxDepth = 64

	minBinCount = 4
	maxBinCount = 64
	maxDepthCap = 512
)

// Options control the build quality/speed trade-offs. Out-of-range values
// are clamped to the nearest valid value rather than rejected; a build
// always completes. The zero value selects the defaults.
type Options struct {
	// Ranges with at most this many triangles become leafs.
	LeafSize int

	// Number of SAH bins per axis. Also the number of candidate positions
	// scored by the sampled evaluator on small ranges.
	BinCount int

	// Hard cap on recursion depth.
	MaxDepth int
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		LeafSize: DefaultLeafSize,
		BinCount: DefaultBinCount,
		MaxDepth: DefaultMaxDepth,
	}
}

func (o Options) clamp() Options {
	if o.LeafSize == 0 {
		o.LeafSize = DefaultLeafSize
	} else if o.LeafSize < 1 {
		o.LeafSize = 1
	}

	if o.BinCount == 0 {
		o.BinCount = DefaultBinCount
	} else if o.BinCount < minBinCount {
		o.BinCount = minBinCount
	} else if o.BinCount > maxBinCount {
		o.BinCount = maxBinCount
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	} else if o.MaxDepth < 1 {
		o.MaxDepth = 1
	} else if o.MaxDepth > maxDepthCap {
		o.MaxDepth = maxDepthCap
	}

	return o
}

// Tree is the output of one build: the flat node list plus the remapped
// triangle list it indexes into. SourceIndex maps each remapped triangle
// back to its position in the caller's input slice so that externally
// attached per-triangle data (materials, ids) survives the reordering.
type Tree struct {
	Nodes       []Node
	Triangles   []Triangle
	SourceIndex []uint32

	Stats Stats
}

type builder struct {
	logger log.Logger
	opts   Options

	part  partition
	nodes []Node
	bins  *binSet

	stats Stats
}

// Build a BVH over the given world-space triangle soup. The input slice is
// not modified; the returned tree owns its buffers. An empty input yields an
// empty tree.
func Build(triangles []Triangle, opts Options) *Tree {
	opts = opts.clamp()

	b := &builder{
		logger: log.New("bvh"),
		opts:   opts,
	}
	b.stats.TriangleCount = len(triangles)

	if len(triangles) == 0 {
		return &Tree{
			Nodes:       []Node{},
			Triangles:   []Triangle{},
			SourceIndex: []uint32{},
			Stats:       b.stats,
		}
	}

	start := time.Now()
	b.part = newPartition(triangles)
	b.bins = newBinSet(opts.BinCount)

	root := b.alloc()
	b.split(root, 0, len(triangles), 0)

	tree := &Tree{
		Nodes:       b.nodes,
		Triangles:   make([]Triangle, len(triangles)),
		SourceIndex: make([]uint32, len(triangles)),
	}

	// Emit the triangle list in partition order. Geometry is copied from
	// the original input via each build triangle's source index; the same
	// index lands in the lookup table.
	for i, item := range b.part.items {
		tree.Triangles[i] = triangles[item.source]
		tree.SourceIndex[i] = item.source
	}

	b.stats.Nodes = len(b.nodes)
	b.stats.BuildTime = time.Since(start)
	tree.Stats = b.stats

	b.logger.Debugf(
		"BVH build time: %d ms, nodes: %d, leafs: %d, max depth: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.Nodes, b.stats.Leafs, b.stats.MaxLeafDepth,
	)
	return tree
}

// Append a zero-value placeholder node and return its index. The slot is
// finalized by split/makeLeaf once its contents are known.
func (b *builder) alloc() uint32 {
	b.nodes = append(b.nodes, Node{})
	return uint32(len(b.nodes) - 1)
}

// Decide leaf vs. internal for the node at nodeIndex covering the triangle
// range [start, start+count) and recurse until the range is fully
// partitioned.
func (b *builder) split(nodeIndex uint32, start, count, depth int) {
	nodeBounds := NewAABB()
	centroidBounds := NewAABB()
	for i := start; i < start+count; i++ {
		item := b.part.at(i)
		nodeBounds = nodeBounds.Union(item.bounds)
		centroidBounds = centroidBounds.Include(item.centroid)
	}
	b.nodes[nodeIndex].SetBounds(nodeBounds)

	// All centroids coincide when every axis extent collapses; no split
	// can discriminate the range.
	extent := centroidBounds.Extent()
	degenerate := extent[0] < minAxisExtent &&
		extent[1] < minAxisExtent &&
		extent[2] < minAxisExtent

	if count <= b.opts.LeafSize || depth >= b.opts.MaxDepth || degenerate {
		b.makeLeaf(nodeIndex, start, count, depth)
		return
	}

	var best splitCandidate
	if count > b.opts.BinCount {
		best = findBinnedSplit(&b.part, start, count, centroidBounds, b.bins)
		b.stats.BinnedSplits++
	} else {
		best = findSampledSplit(&b.part, start, count, centroidBounds, b.opts.BinCount)
		b.stats.SampledSplits++
	}

	// Splitting has to be at least as good as keeping the whole range as
	// one leaf. Ties split: with leafSize 1 a pair of coplanar triangles
	// costs the same either way and the tree is only usable if they end up
	// in separate leafs.
	if !best.valid || best.cost > nodeBounds.SurfaceArea()*float32(count) {
		b.makeLeaf(nodeIndex, start, count, depth)
		return
	}

	mid := b.part.split(start, count, best.axis, best.point)
	if mid == start || mid == start+count {
		// The cost model promised two non-empty sides but the in-place
		// partition still produced an empty one (bin boundaries and exact
		// centroid positions do not always agree). Fall back to a median
		// split; both sides are then non-empty and the recursion keeps
		// shrinking.
		b.part.sortByCentroid(start, count, best.axis)
		mid = start + count/2
		b.stats.MedianFallbacks++
	}

	// Children occupy two adjacent slots so consumers only need the left
	// child index.
	left := b.alloc()
	right := b.alloc()
	b.nodes[nodeIndex].SetChildren(left)

	b.split(left, start, mid-start, depth+1)
	b.split(right, mid, start+count-mid, depth+1)

	// Finalize the parent box as the union of the finished children.
	b.nodes[nodeIndex].SetBounds(
		b.nodes[left].Bounds().Union(b.nodes[right].Bounds()),
	)
}

func (b *builder) makeLeaf(nodeIndex uint32, start, count, depth int) {
	b.nodes[nodeIndex].SetTriangles(uint32(start), uint32(count))
	b.stats.recordLeaf(depth, count)
}
