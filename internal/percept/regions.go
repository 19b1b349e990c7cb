package percept

import "time"

// gridCell accumulates difference statistics for one grid cell.
type gridCell struct {
	count   int     // difference pixels above zero
	sum     int64   // summed difference magnitude
	ratio   float64 // count / cell pixel count
	flagged bool    // motion-dense cell
}

// extractRegions overlays a coarse grid on the difference map, flags
// motion-dense cells, and merges adjacent flagged cells into bounding-box
// regions. The grid keeps time and memory cost fixed regardless of scene
// content; output is capped at t.MaxRegions and regions found later in the
// scan order are dropped.
//
// Merging is a row-wise expansion: a seed cell claims its contiguous
// flagged run, then each following row contributes the run connected to the
// region's column span. A row with no connected flagged cell ends the
// region; flagged cells beyond that gap seed their own regions as the outer
// scan reaches them. Diagonal-only adjacency does not merge; the temporal
// filter's region-count penalties are tuned against this rule.
func extractRegions(diff []byte, width, height int, t Tuning, now time.Time) []MotionRegion {
	cols, rows := t.GridCols, t.GridRows
	if cols < 1 || rows < 1 {
		return nil
	}
	cellW := width / cols
	cellH := height / rows
	if cellW == 0 || cellH == 0 {
		return nil
	}

	// Per-cell pixel extents; the last row/column absorbs the remainder.
	cellX0 := func(c int) int { return c * cellW }
	cellX1 := func(c int) int {
		if c == cols-1 {
			return width
		}
		return (c + 1) * cellW
	}
	cellY0 := func(r int) int { return r * cellH }
	cellY1 := func(r int) int {
		if r == rows-1 {
			return height
		}
		return (r + 1) * cellH
	}

	cells := make([]gridCell, cols*rows)
	countFloor := t.MinChangedPixels / (cols * rows)

	for r := 0; r < rows; r++ {
		y0, y1 := cellY0(r), cellY1(r)
		for c := 0; c < cols; c++ {
			x0, x1 := cellX0(c), cellX1(c)
			cell := &cells[r*cols+c]
			for y := y0; y < y1; y++ {
				row := diff[y*width : (y+1)*width]
				for x := x0; x < x1; x++ {
					if v := row[x]; v > 0 {
						cell.count++
						cell.sum += int64(v)
					}
				}
			}
			pixels := (x1 - x0) * (y1 - y0)
			cell.ratio = float64(cell.count) / float64(pixels)
			cell.flagged = cell.ratio > t.CellMotionRatio && cell.count > countFloor
		}
	}

	flagged := func(r, c int) bool { return cells[r*cols+c].flagged }
	visited := make([]bool, cols*rows)

	var regions []MotionRegion
	for r := 0; r < rows && len(regions) < t.MaxRegions; r++ {
		for c := 0; c < cols && len(regions) < t.MaxRegions; c++ {
			if visited[r*cols+c] || !flagged(r, c) {
				continue
			}

			// Seed: claim the contiguous flagged run in this row.
			minC, maxC := c, c
			for maxC+1 < cols && flagged(r, maxC+1) && !visited[r*cols+maxC+1] {
				maxC++
			}
			var members []int
			for cc := minC; cc <= maxC; cc++ {
				visited[r*cols+cc] = true
				members = append(members, r*cols+cc)
			}
			maxR := r

			// Row-wise expansion into following rows.
			for rr := r + 1; rr < rows; rr++ {
				first := -1
				for cc := minC; cc <= maxC; cc++ {
					if flagged(rr, cc) && !visited[rr*cols+cc] {
						first = cc
						break
					}
				}
				if first == -1 {
					break
				}
				lo, hi := first, first
				for lo-1 >= 0 && flagged(rr, lo-1) && !visited[rr*cols+lo-1] {
					lo--
				}
				for hi+1 < cols && flagged(rr, hi+1) && !visited[rr*cols+hi+1] {
					hi++
				}
				for cc := lo; cc <= hi; cc++ {
					visited[rr*cols+cc] = true
					members = append(members, rr*cols+cc)
				}
				if lo < minC {
					minC = lo
				}
				if hi > maxC {
					maxC = hi
				}
				maxR = rr
			}

			var ratioSum float64
			var pixelCount int
			for _, idx := range members {
				ratioSum += cells[idx].ratio
				pixelCount += cells[idx].count
			}

			box := BoundingBox{
				X:      cellX0(minC),
				Y:      cellY0(r),
				Width:  cellX1(maxC) - cellX0(minC),
				Height: cellY1(maxR) - cellY0(r),
			}.clip(width, height)

			regions = append(regions, MotionRegion{
				Box:        box,
				Intensity:  clamp01(ratioSum / float64(len(members))),
				PixelCount: pixelCount,
				DetectedAt: now,
			})
		}
	}
	return regions
}
