package bvh

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats aggregates informational counters collected during a build. They
// are a best-effort summary and never affect the produced tree.
type Stats struct {
	TriangleCount int
	Nodes         int
	Leafs         int

	MinLeafDepth int
	MaxLeafDepth int
	MinLeafTris  int
	MaxLeafTris  int

	// How many internal-node decisions each evaluator made.
	BinnedSplits  int
	SampledSplits int

	// How often a SAH partition degenerated and the median split took over.
	MedianFallbacks int

	BuildTime time.Duration

	sumLeafDepth int
	sumLeafTris  int
}

func (s *Stats) recordLeaf(depth, count int) {
	if s.Leafs == 0 || depth < s.MinLeafDepth {
		s.MinLeafDepth = depth
	}
	if depth > s.MaxLeafDepth {
		s.MaxLeafDepth = depth
	}
	if s.Leafs == 0 || count < s.MinLeafTris {
		s.MinLeafTris = count
	}
	if count > s.MaxLeafTris {
		s.MaxLeafTris = count
	}
	s.Leafs++
	s.sumLeafDepth += depth
	s.sumLeafTris += count
}

// Get the mean leaf depth.
func (s Stats) MeanLeafDepth() float64 {
	if s.Leafs == 0 {
		return 0
	}
	return float64(s.sumLeafDepth) / float64(s.Leafs)
}

// Get the mean triangle count per leaf.
func (s Stats) MeanLeafTris() float64 {
	if s.Leafs == 0 {
		return 0
	}
	return float64(s.sumLeafTris) / float64(s.Leafs)
}

// Build a tabular representation of the collected counters.
func (s Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", s.TriangleCount)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", s.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprintf("%d", s.Leafs)})
	table.Append([]string{"Leaf depth (min/max/mean)", fmt.Sprintf("%d / %d / %.1f", s.MinLeafDepth, s.MaxLeafDepth, s.MeanLeafDepth())})
	table.Append([]string{"Leaf triangles (min/max/mean)", fmt.Sprintf("%d / %d / %.1f", s.MinLeafTris, s.MaxLeafTris, s.MeanLeafTris())})
	table.Append([]string{"Binned splits", fmt.Sprintf("%d", s.BinnedSplits)})
	table.Append([]string{"Sampled splits", fmt.Sprintf("%d", s.SampledSplits)})
	table.Append([]string{"Median fallbacks", fmt.Sprintf("%d", s.MedianFallbacks)})
	table.Append([]string{"Build time", fmt.Sprintf("%d ms", s.BuildTime.Nanoseconds()/1e6)})
	table.Render()
	return buf.String()
}

// Summarize recomputes the structural statistics for a finished tree. Build
// already fills these in; this exists for trees loaded from storage where
// only the flat buffers survive. Evaluator counters and timings cannot be
// recovered and stay zero.
func Summarize(t *Tree) Stats {
	var s Stats
	s.TriangleCount = len(t.Triangles)
	s.Nodes = len(t.Nodes)
	if len(t.Nodes) == 0 {
		return s
	}

	type visit struct {
		index uint32
		depth int
	}
	stack := make([]visit, 0, 64)
	stack = append(stack, visit{0, 0})
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.Nodes[v.index]
		if node.IsLeaf() {
			_, count := node.Triangles()
			s.recordLeaf(v.depth, int(count))
			continue
		}

		left, right := node.Children()
		stack = append(stack, visit{left, v.depth + 1}, visit{right, v.depth + 1})
	}
	return s
}

// Build a tabular representation of the tree's buffer sizes, i.e. what a
// backend would have to upload.
func (t *Tree) SizeStats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer", "Entries", "Size"})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", len(t.Nodes)), fmtSize(t.Nodes)})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", len(t.Triangles)), fmtSize(t.Triangles)})
	table.Append([]string{"Source index", fmt.Sprintf("%d", len(t.SourceIndex)), fmtSize(t.SourceIndex)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(t.Nodes, t.Triangles, t.SourceIndex), " ")})
	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%3.1f mb", totalBytes/1e6)
}
