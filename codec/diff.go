package codec

// CompareFrames computes the pixel changes needed to turn prev into curr
// using the default perceptual threshold.
func CompareFrames(prev, curr []byte, width, height uint32) []PixelChange {
	return CompareFramesThreshold(prev, curr, width, height, DefaultThreshold)
}

// CompareFramesThreshold computes pixel changes with an explicit threshold.
// A pixel is changed when any channel differs from prev by strictly more than
// threshold. Changed pixels with identical new RGB are folded into runs of up
// to MaxRunLength. Both frames must be 3*width*height bytes; otherwise the
// result is empty.
//
// Threshold 0 makes the diff exact, which the archive writer uses for
// lossless recording.
func CompareFramesThreshold(prev, curr []byte, width, height uint32, threshold uint8) []PixelChange {
	totalPixels := int(width) * int(height)
	if len(prev) != len(curr) || len(prev) != totalPixels*3 || len(prev) == 0 {
		return nil
	}

	var changes []PixelChange

	pixel := 0
	for pixel < totalPixels {
		if !pixelChanged(prev, curr, pixel, threshold) {
			pixel++
			continue
		}

		idx := pixel * 3
		change := PixelChange{
			Offset: uint32(pixel),
			Count:  1,
			R:      curr[idx],
			G:      curr[idx+1],
			B:      curr[idx+2],
		}

		// Extend the run while the next pixel is both changed and has the
		// exact same new color.
		for pixel+int(change.Count) < totalPixels && change.Count < MaxRunLength {
			next := pixel + int(change.Count)
			if !pixelChanged(prev, curr, next, threshold) {
				break
			}
			nextIdx := next * 3
			if curr[nextIdx] != change.R || curr[nextIdx+1] != change.G || curr[nextIdx+2] != change.B {
				break
			}
			change.Count++
		}

		changes = append(changes, change)
		pixel += int(change.Count)
	}

	return changes
}

func pixelChanged(prev, curr []byte, pixel int, threshold uint8) bool {
	idx := pixel * 3
	return absDiff(prev[idx], curr[idx]) > int(threshold) ||
		absDiff(prev[idx+1], curr[idx+1]) > int(threshold) ||
		absDiff(prev[idx+2], curr[idx+2]) > int(threshold)
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}

// ApplyChanges paints the changes onto a copy of base and returns the result.
// Changes whose offset lies outside the frame are skipped; runs extending past
// the last pixel are clamped. The contract is best-effort paint: no error is
// reported for out-of-range records.
func ApplyChanges(base []byte, changes []PixelChange, width, height uint32) []byte {
	result := make([]byte, len(base))
	copy(result, base)

	totalPixels := int(width) * int(height)
	if len(result) == 0 || totalPixels == 0 {
		return result
	}

	for _, change := range changes {
		if int(change.Offset) >= totalPixels {
			continue
		}
		end := int(change.Offset) + int(change.Count)
		if end > totalPixels {
			end = totalPixels
		}
		for pixel := int(change.Offset); pixel < end; pixel++ {
			idx := pixel * 3
			if idx+2 >= len(result) {
				break
			}
			result[idx] = change.R
			result[idx+1] = change.G
			result[idx+2] = change.B
		}
	}

	return result
}

// DiffPercentage returns the share of pixels, in percent, that differ between
// the two frames in any channel. Mismatched or empty frames count as fully
// changed.
func DiffPercentage(prev, curr []byte, width, height uint32) float64 {
	if len(prev) != len(curr) || len(prev) == 0 {
		return 100.0
	}

	totalPixels := int(width) * int(height)
	if totalPixels == 0 || len(prev) != totalPixels*3 {
		return 100.0
	}

	changed := 0
	for pixel := 0; pixel < totalPixels; pixel++ {
		idx := pixel * 3
		if prev[idx] != curr[idx] || prev[idx+1] != curr[idx+1] || prev[idx+2] != curr[idx+2] {
			changed++
		}
	}

	return float64(changed) * 100.0 / float64(totalPixels)
}
