package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	The dense path matrix and its modified Floyd-Warshall
 *		rebuild: pick the lexicographically best
 *		(rateChange, cost, multistep) path between every pair
 *		of formats, never trading quality for a cheaper path.
 *
 *----------------------------------------------------------------*/

// matrixCell is one entry of the N x N path matrix.
type matrixCell struct {
	nextHop    *Transcoder
	cost       int
	multistep  bool
	rateChange RateChange
	populated  bool
}

// rebuildMatrix recomputes the whole path matrix from scratch. Must
// be called with the write-lock held; exported callers go through
// Register/Unregister/Activate/Deactivate/Recalc, all of which already
// hold it.
func (r *Registry) rebuildMatrix(samples int) {
	r.matrix = [MaxFormat][MaxFormat]matrixCell{}

	for _, t := range r.translators {
		if !t.active {
			continue
		}
		if samples > 0 {
			r.calcCost(t, samples)
		}

		srcInfo, srcOK := LookupFormat(t.Src)
		dstInfo, dstOK := LookupFormat(t.Dst)
		if !srcOK || !dstOK {
			continue
		}
		rc := rateChangeOf(srcInfo, dstInfo)

		cell := &r.matrix[t.srcIdx][t.dstIdx]
		if !cell.populated ||
			(t.cost < cell.cost && rc <= cell.rateChange) ||
			rc < cell.rateChange {
			cell.nextHop = t
			cell.cost = t.cost
			cell.rateChange = rc
			cell.multistep = false
			cell.populated = true
		}
	}

	for {
		changed := false
		for x := 0; x < MaxFormat; x++ {
			for y := 0; y < MaxFormat; y++ {
				if x == y || !r.matrix[x][y].populated {
					continue
				}
				for z := 0; z < MaxFormat; z++ {
					if z == x || z == y || !r.matrix[y][z].populated {
						continue
					}

					xz := &r.matrix[x][z]
					xy := r.matrix[x][y]
					yz := r.matrix[y][z]

					// Never downgrade quality for a cost win: if the
					// direct x->z already beats either leg's rate
					// class, the composite can't be an improvement.
					if xz.populated && (xz.rateChange < xy.rateChange || xz.rateChange < yz.rateChange) {
						continue
					}

					newRate := xy.rateChange + yz.rateChange
					newCost := xy.cost + yz.cost

					better := !xz.populated || newRate < xz.rateChange
					if !better {
						continue
					}

					xz.nextHop = xy.nextHop
					xz.cost = newCost
					xz.multistep = true
					xz.rateChange = newRate
					xz.populated = true
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}
