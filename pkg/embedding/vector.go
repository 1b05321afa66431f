package embedding

import "math"

// Assemble concatenates sub-vectors in order and fits the result to exactly
// target elements: shorter compositions are zero-padded at the tail, longer
// ones lose their trailing elements. Later sub-vectors are truncated first,
// so sub-vector ordering is a meaningful choice made by the caller.
// Assemble is pure and total: it never fails and identical inputs produce
// identical outputs.
func Assemble(target int, parts ...[]float64) []float64 {
	out := make([]float64, 0, target)
	for _, part := range parts {
		out = append(out, part...)
	}
	return FitDimension(out, target)
}

// FitDimension pads vec with zeros or truncates its tail so the result has
// exactly n elements. The input is never mutated; when the length already
// matches, a copy is still returned so callers can retain the result safely.
func FitDimension(vec []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, vec)
	return out
}

// SanitizeFinite replaces NaN and infinite elements with zero, in place,
// and reports how many elements were replaced. Every vector handed to the
// persistence sink must carry finite reals only, regardless of what the
// text-embedding collaborator returned.
func SanitizeFinite(vec []float64) int {
	replaced := 0
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vec[i] = 0
			replaced++
		}
	}
	return replaced
}
