package weights

// postprocess rescales row to sum to 1 when normalize is set, then clips it
// to [0,1] and zeroes entries below limit. Negative entries count as zero in
// the sum. Detaching changes the sum, so a normalized row repeats until no
// further entry drops out.
func postprocess(row []float64, normalize bool, limit float64) {
	for {
		if normalize {
			var sum float64
			for _, x := range row {
				if x > 0 {
					sum += x
				}
			}
			if sum > 0 {
				for i := range row {
					row[i] /= sum
				}
			}
		}
		detached := false
		for i, x := range row {
			switch {
			case x <= 0:
				row[i] = 0
			case x < limit:
				row[i] = 0
				detached = true
			case x > 1:
				row[i] = 1
			}
		}
		if !normalize || !detached {
			return
		}
	}
}
