package bvh

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/kperelygin/lumen/types"
)

// A small triangle centered at center, lying in a plane of constant z.
func triAt(center types.Vec3, size float32) Triangle {
	h := size / 2
	return NewTriangle(
		types.XYZ(center[0]-h, center[1]-h, center[2]),
		types.XYZ(center[0]+h, center[1]-h, center[2]),
		types.XYZ(center[0], center[1]+h, center[2]),
	)
}

// Two triangles sharing an edge, forming the unit square in the xy plane.
func quadTriangles() []Triangle {
	return []Triangle{
		NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(1, 1, 0)),
		NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 1, 0), types.XYZ(0, 1, 0)),
	}
}

func cloudTriangles(count int) []Triangle {
	rng := rand.New(rand.NewSource(42))
	out := make([]Triangle, count)
	for i := range out {
		center := types.XYZ(rng.Float32()*10, rng.Float32()*10, rng.Float32()*10)
		out[i] = triAt(center, 0.5)
	}
	return out
}

func boundsEqual(node *Node, exp AABB) bool {
	const eps = 1e-5
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(node.Min[axis]-exp.Min[axis]) > eps ||
			math32.Abs(node.Max[axis]-exp.Max[axis]) > eps {
			return false
		}
	}
	return true
}

// Walk a finished tree and verify every structural invariant: child
// contiguity, leaf/internal tagging, triangle conservation, source-index
// permutation and tight bounds recomputed bottom-up.
func validateTree(t *testing.T, tree *Tree, inputCount int) {
	t.Helper()

	if len(tree.Triangles) != inputCount {
		t.Fatalf("expected %d remapped triangles; got %d", inputCount, len(tree.Triangles))
	}
	if len(tree.SourceIndex) != inputCount {
		t.Fatalf("expected %d source index entries; got %d", inputCount, len(tree.SourceIndex))
	}
	if inputCount == 0 {
		if len(tree.Nodes) != 0 {
			t.Fatalf("expected no nodes for empty input; got %d", len(tree.Nodes))
		}
		return
	}
	if len(tree.Nodes) == 0 {
		t.Fatal("expected tree to have a root node")
	}

	seen := make([]bool, inputCount)
	for _, src := range tree.SourceIndex {
		if int(src) >= inputCount {
			t.Fatalf("source index %d out of range [0, %d)", src, inputCount)
		}
		if seen[src] {
			t.Fatalf("source index %d appears more than once", src)
		}
		seen[src] = true
	}

	totalLeafTris := 0
	var walk func(index uint32, depth int) AABB
	walk = func(index uint32, depth int) AABB {
		if depth > maxDepthCap {
			t.Fatalf("tree exceeds the maximum depth cap at node %d", index)
		}
		node := &tree.Nodes[index]

		if node.IsLeaf() {
			first, count := node.Triangles()
			if count < 1 {
				t.Fatalf("leaf %d has no triangles", index)
			}
			if int(first+count) > len(tree.Triangles) {
				t.Fatalf("leaf %d triangle range [%d, %d) out of bounds", index, first, first+count)
			}
			totalLeafTris += int(count)

			bounds := NewAABB()
			for i := first; i < first+count; i++ {
				bounds = bounds.Union(tree.Triangles[i].Bounds())
			}
			if !boundsEqual(node, bounds) {
				t.Fatalf("leaf %d bounds %v-%v not tight; expected %v-%v", index, node.Min, node.Max, bounds.Min, bounds.Max)
			}
			return bounds
		}

		if node.Data[3] != 0 {
			t.Fatalf("internal node %d has non-zero triangle count %d", index, node.Data[3])
		}
		left, right := node.Children()
		if right != left+1 {
			t.Fatalf("node %d children %d, %d are not contiguous", index, left, right)
		}
		if int(right) >= len(tree.Nodes) {
			t.Fatalf("node %d child index %d out of bounds", index, right)
		}

		bounds := walk(left, depth+1).Union(walk(right, depth+1))
		if !boundsEqual(node, bounds) {
			t.Fatalf("node %d bounds %v-%v not tight; expected %v-%v", index, node.Min, node.Max, bounds.Min, bounds.Max)
		}
		return bounds
	}
	walk(0, 0)

	if totalLeafTris != inputCount {
		t.Fatalf("expected leaf triangle counts to sum to %d; got %d", inputCount, totalLeafTris)
	}
}

func TestEmptyInput(t *testing.T) {
	tree := Build(nil, DefaultOptions())
	validateTree(t, tree, 0)

	if _, ok := tree.Intersect(NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))); ok {
		t.Fatal("expected intersection against an empty tree to miss")
	}
}

func TestSingleTriangle(t *testing.T) {
	tree := Build([]Triangle{triAt(types.XYZ(0, 0, 0), 1)}, DefaultOptions())
	validateTree(t, tree, 1)

	if len(tree.Nodes) != 1 {
		t.Fatalf("expected a single leaf node; got %d nodes", len(tree.Nodes))
	}
}

func TestQuadSplit(t *testing.T) {
	tree := Build(quadTriangles(), Options{LeafSize: 1})
	validateTree(t, tree, 2)

	if len(tree.Nodes) != 3 {
		t.Fatalf("expected 3 nodes (1 internal + 2 leafs); got %d", len(tree.Nodes))
	}
	if tree.Nodes[0].IsLeaf() {
		t.Fatal("expected root to be an internal node")
	}
	for _, index := range []int{1, 2} {
		node := &tree.Nodes[index]
		if !node.IsLeaf() {
			t.Fatalf("expected node %d to be a leaf", index)
		}
		if _, count := node.Triangles(); count != 1 {
			t.Fatalf("expected leaf %d to hold exactly 1 triangle; got %d", index, count)
		}
	}
}

func TestUniformCloud(t *testing.T) {
	triangles := cloudTriangles(100)
	tree := Build(triangles, Options{LeafSize: 4})
	validateTree(t, tree, 100)

	if tree.Stats.MaxLeafDepth > DefaultMaxDepth {
		t.Fatalf("expected max leaf depth <= %d; got %d", DefaultMaxDepth, tree.Stats.MaxLeafDepth)
	}
	if tree.Stats.Leafs < 2 {
		t.Fatalf("expected the cloud to be partitioned into multiple leafs; got %d", tree.Stats.Leafs)
	}
	if tree.Stats.BinnedSplits == 0 {
		t.Fatal("expected the binned evaluator to run on ranges larger than the bin count")
	}
	if tree.Stats.Nodes != len(tree.Nodes) {
		t.Fatalf("expected stats to report %d nodes; got %d", len(tree.Nodes), tree.Stats.Nodes)
	}
}

func TestCoincidentCentroidsTerminate(t *testing.T) {
	tri := triAt(types.XYZ(1, 1, 1), 2)
	triangles := make([]Triangle, 16)
	for i := range triangles {
		triangles[i] = tri
	}

	tree := Build(triangles, Options{LeafSize: 1})
	validateTree(t, tree, 16)

	// No axis can discriminate identical centroids; the whole range
	// collapses into one leaf.
	if len(tree.Nodes) != 1 {
		t.Fatalf("expected a single leaf for coincident centroids; got %d nodes", len(tree.Nodes))
	}
	if tree.Stats.MaxLeafDepth > DefaultMaxDepth {
		t.Fatalf("expected build to stay within the depth cap; got %d", tree.Stats.MaxLeafDepth)
	}
}

func TestRemapPreservesGeometry(t *testing.T) {
	input := cloudTriangles(25)
	tree := Build(input, Options{LeafSize: 2})
	validateTree(t, tree, 25)

	for i, src := range tree.SourceIndex {
		if tree.Triangles[i] != input[src] {
			t.Fatalf("remapped triangle %d does not match input triangle %d", i, src)
		}
	}
}

func TestOptionsClamp(t *testing.T) {
	opts := Options{LeafSize: -3, BinCount: 128, MaxDepth: 9999}.clamp()
	exp := Options{LeafSize: 1, BinCount: 64, MaxDepth: 512}
	if opts != exp {
		t.Fatalf("expected options to clamp to %+v; got %+v", exp, opts)
	}

	opts = Options{BinCount: 2, MaxDepth: -1, LeafSize: 7}.clamp()
	exp = Options{LeafSize: 7, BinCount: 4, MaxDepth: 1}
	if opts != exp {
		t.Fatalf("expected options to clamp to %+v; got %+v", exp, opts)
	}

	if opts = (Options{}).clamp(); opts != DefaultOptions() {
		t.Fatalf("expected zero options to default to %+v; got %+v", DefaultOptions(), opts)
	}
}

func TestPartitionSplit(t *testing.T) {
	triangles := []Triangle{
		triAt(types.XYZ(0, 0, 0), 1),
		triAt(types.XYZ(5, 0, 0), 1),
		triAt(types.XYZ(1, 0, 0), 1),
		triAt(types.XYZ(6, 0, 0), 1),
	}
	p := newPartition(triangles)

	mid := p.split(0, 4, 0, 3.0)
	if mid != 2 {
		t.Fatalf("expected split boundary at 2; got %d", mid)
	}
	for i := 0; i < 4; i++ {
		x := p.axisCentroid(i, 0)
		if i < mid && x >= 3.0 {
			t.Fatalf("triangle %d (centroid x %f) should be on the left side", i, x)
		}
		if i >= mid && x < 3.0 {
			t.Fatalf("triangle %d (centroid x %f) should be on the right side", i, x)
		}
	}
}

func TestPartitionSplitDegenerate(t *testing.T) {
	triangles := []Triangle{
		triAt(types.XYZ(2, 0, 0), 1),
		triAt(types.XYZ(1, 0, 0), 1),
		triAt(types.XYZ(3, 0, 0), 1),
	}
	p := newPartition(triangles)

	if mid := p.split(0, 3, 0, 100); mid != 3 {
		t.Fatalf("expected all triangles on the left side; boundary at %d", mid)
	}
	if mid := p.split(0, 3, 0, -100); mid != 0 {
		t.Fatalf("expected all triangles on the right side; boundary at %d", mid)
	}

	// The median fallback sorts the degenerate range before splitting it
	// down the middle.
	p.sortByCentroid(0, 3, 0)
	for i := 1; i < 3; i++ {
		if p.axisCentroid(i-1, 0) > p.axisCentroid(i, 0) {
			t.Fatal("expected centroids to be sorted along the split axis")
		}
	}
}

func TestSummarizeMatchesBuildStats(t *testing.T) {
	tree := Build(cloudTriangles(64), Options{LeafSize: 4})

	s := Summarize(tree)
	if s.Nodes != tree.Stats.Nodes || s.Leafs != tree.Stats.Leafs {
		t.Fatalf("expected summary node/leaf counts %d/%d; got %d/%d",
			tree.Stats.Nodes, tree.Stats.Leafs, s.Nodes, s.Leafs)
	}
	if s.MinLeafDepth != tree.Stats.MinLeafDepth || s.MaxLeafDepth != tree.Stats.MaxLeafDepth {
		t.Fatalf("expected summary leaf depths %d/%d; got %d/%d",
			tree.Stats.MinLeafDepth, tree.Stats.MaxLeafDepth, s.MinLeafDepth, s.MaxLeafDepth)
	}
	if s.MinLeafTris != tree.Stats.MinLeafTris || s.MaxLeafTris != tree.Stats.MaxLeafTris {
		t.Fatalf("expected summary leaf triangle counts %d/%d; got %d/%d",
			tree.Stats.MinLeafTris, tree.Stats.MaxLeafTris, s.MinLeafTris, s.MaxLeafTris)
	}
	if s.MeanLeafTris() != tree.Stats.MeanLeafTris() {
		t.Fatalf("expected summary mean leaf triangles %f; got %f",
			tree.Stats.MeanLeafTris(), s.MeanLeafTris())
	}
}
