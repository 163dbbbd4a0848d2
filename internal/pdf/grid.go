package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/kpauljoseph/pipespec/pkg/utils"
)

// Glyph is one positioned run of text from a page's text layer, often a single
// character. X and Y are the baseline origin in device space (y grows upwards).
// W and Size may still be in text space when the page scales its content.
type Glyph struct {
	X, Y float64
	W    float64
	Size float64
	S    string
}

// Box is an axis-aligned rectangle drawn on the page. A stroked straight
// segment is a box with zero thickness.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// GridOptions tunes ruling detection.
type GridOptions struct {
	// Rulings closer than this (in points) are snapped onto one line.
	SnapTolerance float64

	// Boxes thinner than this are treated as a single ruling line.
	MaxRuleThickness float64

	// Shorter rulings are ignored.
	MinRuleLength float64
}

func DefaultGridOptions() GridOptions {
	return GridOptions{
		SnapTolerance:    2.0,
		MaxRuleThickness: 2.5,
		MinRuleLength:    3.0,
	}
}

type edge struct {
	pos      float64
	from, to float64
}

type cell struct {
	x0, y0, x1, y1 float64
}

// BuildTables assembles ruled tables from the page's boxes and fills their
// cells with glyph text. Tables come back top to bottom, then left to right.
// Cells covered by a merged neighbour are empty strings.
func BuildTables(glyphs []Glyph, boxes []Box, opts GridOptions) [][][]string {
	horizontals, verticals := boxesToEdges(boxes, opts)
	horizontals = mergeEdges(horizontals, opts.SnapTolerance)
	verticals = mergeEdges(verticals, opts.SnapTolerance)
	if len(horizontals) < 2 || len(verticals) < 2 {
		return nil
	}

	cells := findCells(horizontals, verticals, opts.SnapTolerance)
	if len(cells) == 0 {
		return nil
	}

	groups := groupCells(cells)
	sort.SliceStable(groups, func(i, j int) bool {
		ti, tj := tableTop(groups[i]), tableTop(groups[j])
		if ti != tj {
			return ti > tj
		}
		return tableLeft(groups[i]) < tableLeft(groups[j])
	})

	tables := make([][][]string, 0, len(groups))
	for _, group := range groups {
		tables = append(tables, tableRows(group, glyphs, opts.SnapTolerance))
	}
	return tables
}

func boxesToEdges(boxes []Box, opts GridOptions) (horizontals, verticals []edge) {
	for _, b := range boxes {
		x0, x1 := math.Min(b.X0, b.X1), math.Max(b.X0, b.X1)
		y0, y1 := math.Min(b.Y0, b.Y1), math.Max(b.Y0, b.Y1)
		w, h := x1-x0, y1-y0

		switch {
		case h <= opts.MaxRuleThickness && w >= opts.MinRuleLength:
			horizontals = append(horizontals, edge{pos: (y0 + y1) / 2, from: x0, to: x1})
		case w <= opts.MaxRuleThickness && h >= opts.MinRuleLength:
			verticals = append(verticals, edge{pos: (x0 + x1) / 2, from: y0, to: y1})
		case w >= opts.MinRuleLength && h >= opts.MinRuleLength:
			horizontals = append(horizontals,
				edge{pos: y0, from: x0, to: x1},
				edge{pos: y1, from: x0, to: x1},
			)
			verticals = append(verticals,
				edge{pos: x0, from: y0, to: y1},
				edge{pos: x1, from: y0, to: y1},
			)
		}
	}
	return horizontals, verticals
}

// mergeEdges snaps edges onto shared positions and joins collinear segments
// that touch or overlap.
func mergeEdges(edges []edge, tolerance float64) []edge {
	if len(edges) == 0 {
		return nil
	}

	sorted := append([]edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].pos < sorted[j].pos
	})

	// Snap positions: consecutive edges within tolerance share the group mean.
	var snapped []edge
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].pos-sorted[i-1].pos <= tolerance {
			continue
		}
		sum := 0.0
		for _, e := range sorted[start:i] {
			sum += e.pos
		}
		mean := sum / float64(i-start)
		for _, e := range sorted[start:i] {
			snapped = append(snapped, edge{pos: mean, from: e.from, to: e.to})
		}
		start = i
	}

	sort.Slice(snapped, func(i, j int) bool {
		if snapped[i].pos != snapped[j].pos {
			return snapped[i].pos < snapped[j].pos
		}
		return snapped[i].from < snapped[j].from
	})

	merged := []edge{snapped[0]}
	for _, e := range snapped[1:] {
		last := &merged[len(merged)-1]
		if e.pos == last.pos && e.from <= last.to+tolerance {
			last.to = math.Max(last.to, e.to)
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

type point struct {
	x, y float64
}

type intersection struct {
	h, v int
}

func findCells(horizontals, verticals []edge, tolerance float64) []cell {
	points := make(map[point]intersection)
	for hi, h := range horizontals {
		for vi, v := range verticals {
			if v.pos < h.from-tolerance || v.pos > h.to+tolerance {
				continue
			}
			if h.pos < v.from-tolerance || h.pos > v.to+tolerance {
				continue
			}
			points[point{x: v.pos, y: h.pos}] = intersection{h: hi, v: vi}
		}
	}

	ordered := make([]point, 0, len(points))
	for p := range points {
		ordered = append(ordered, p)
	}
	// Top to bottom, then left to right.
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].y != ordered[j].y {
			return ordered[i].y > ordered[j].y
		}
		return ordered[i].x < ordered[j].x
	})

	sameH := func(a, b point) bool { return points[a].h == points[b].h }
	sameV := func(a, b point) bool { return points[a].v == points[b].v }

	var cells []cell
	for i, topLeft := range ordered {
		var below, right []point
		for _, p := range ordered[i+1:] {
			if p.x == topLeft.x {
				below = append(below, p)
			}
			if p.y == topLeft.y {
				right = append(right, p)
			}
		}

	search:
		for _, bottomLeft := range below {
			if !sameV(topLeft, bottomLeft) {
				continue
			}
			for _, topRight := range right {
				if !sameH(topLeft, topRight) {
					continue
				}
				bottomRight := point{x: topRight.x, y: bottomLeft.y}
				if _, ok := points[bottomRight]; !ok {
					continue
				}
				if sameH(bottomLeft, bottomRight) && sameV(topRight, bottomRight) {
					cells = append(cells, cell{
						x0: topLeft.x, y0: bottomLeft.y,
						x1: topRight.x, y1: topLeft.y,
					})
					break search
				}
			}
		}
	}
	return cells
}

// groupCells splits cells into tables: cells sharing a corner belong together.
func groupCells(cells []cell) [][]cell {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[point]int)
	for i, c := range cells {
		for _, corner := range []point{{c.x0, c.y0}, {c.x0, c.y1}, {c.x1, c.y0}, {c.x1, c.y1}} {
			if j, ok := owner[corner]; ok {
				parent[find(i)] = find(j)
				continue
			}
			owner[corner] = i
		}
	}

	byRoot := make(map[int][]cell)
	var roots []int
	for i, c := range cells {
		root := find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], c)
	}

	groups := make([][]cell, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	return groups
}

func tableTop(cells []cell) float64 {
	top := -math.MaxFloat64
	for _, c := range cells {
		top = math.Max(top, c.y1)
	}
	return top
}

func tableLeft(cells []cell) float64 {
	left := math.MaxFloat64
	for _, c := range cells {
		left = math.Min(left, c.x0)
	}
	return left
}

func tableRows(cells []cell, glyphs []Glyph, tolerance float64) [][]string {
	var columns []float64
	var tops []float64
	for _, c := range cells {
		columns = appendUnique(columns, c.x0)
		tops = appendUnique(tops, c.y1)
	}
	sort.Float64s(columns)
	sort.Sort(sort.Reverse(sort.Float64Slice(tops)))

	rows := make([][]string, len(tops))
	for i := range rows {
		rows[i] = make([]string, len(columns))
	}

	for _, c := range cells {
		r := sort.Search(len(tops), func(i int) bool { return tops[i] <= c.y1 })
		col := sort.SearchFloat64s(columns, c.x0)
		rows[r][col] = cellText(c, glyphs, tolerance)
	}
	return rows
}

func appendUnique(values []float64, v float64) []float64 {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

// contains tests a point just inside the glyph's origin. Width and size are
// not scaled by the CTM, so the inset is capped at two points.
func (c cell) contains(g Glyph) bool {
	inset := math.Min(g.Size*0.25, 2)
	cx := g.X + math.Min(g.W/2, inset)
	cy := g.Y + inset
	return cx >= c.x0 && cx < c.x1 && cy > c.y0 && cy <= c.y1
}

// cellText joins the glyphs inside c in reading order. Visual lines become
// "\n"; horizontal gaps wider than a fifth of the font size become spaces.
func cellText(c cell, glyphs []Glyph, tolerance float64) string {
	var inside []Glyph
	for _, g := range glyphs {
		if g.S != "" && c.contains(g) {
			inside = append(inside, g)
		}
	}
	if len(inside) == 0 {
		return ""
	}

	sort.SliceStable(inside, func(i, j int) bool {
		return inside[i].Y > inside[j].Y
	})

	var lines [][]Glyph
	for _, g := range inside {
		if n := len(lines); n > 0 {
			ref := lines[n-1][0]
			if math.Abs(ref.Y-g.Y) <= math.Max(tolerance, ref.Size*0.5) {
				lines[n-1] = append(lines[n-1], g)
				continue
			}
		}
		lines = append(lines, []Glyph{g})
	}

	var sb strings.Builder
	for i, line := range lines {
		sort.SliceStable(line, func(a, b int) bool {
			return line[a].X < line[b].X
		})
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, g := range line {
			if j > 0 {
				prev := line[j-1]
				gap := g.X - (prev.X + prev.W)
				if gap > math.Max(prev.Size, 1)*0.2 && !isSpace(prev.S) && !isSpace(g.S) {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(g.S)
		}
	}

	return utils.NormalizeText(sb.String())
}

func isSpace(s string) bool {
	return strings.TrimSpace(s) == ""
}
