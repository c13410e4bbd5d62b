package mapfile

// Coordinates are stored as a flat list of microdegree values: lat0, lon0, lat1, lon1 ...
// The first pair is absolute, every following pair is relative to the pair before it.

// DeltaEncode converts absolute coordinates to the single delta encoding.
func DeltaEncode(coords []int32) []int32 {
	out := make([]int32, len(coords))
	for i := range coords {
		if i < 2 {
			out[i] = coords[i]
			continue
		}
		out[i] = coords[i] - coords[i-2]
	}
	return out
}

// DeltaDecode reverses DeltaEncode.
func DeltaDecode(deltas []int32) []int32 {
	out := make([]int32, len(deltas))
	for i := range deltas {
		if i < 2 {
			out[i] = deltas[i]
			continue
		}
		out[i] = out[i-2] + deltas[i]
	}
	return out
}

// DoubleDeltaEncode converts absolute coordinates to the double delta encoding.
// Every value after the first pair is the difference between two consecutive single deltas.
func DoubleDeltaEncode(coords []int32) []int32 {
	out := make([]int32, len(coords))
	var prev [2]int32
	for i := range coords {
		if i < 2 {
			out[i] = coords[i]
			continue
		}
		single := coords[i] - coords[i-2]
		out[i] = single - prev[i&1]
		prev[i&1] = single
	}
	return out
}

// DoubleDeltaDecode reverses DoubleDeltaEncode.
func DoubleDeltaDecode(deltas []int32) []int32 {
	out := make([]int32, len(deltas))
	var prev [2]int32
	for i := range deltas {
		if i < 2 {
			out[i] = deltas[i]
			continue
		}
		single := deltas[i] + prev[i&1]
		out[i] = out[i-2] + single
		prev[i&1] = single
	}
	return out
}
