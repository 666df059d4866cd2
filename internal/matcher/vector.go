package matcher

import "math"

// Vector is a sparse vector with strictly increasing indices.
type Vector struct {
	Indices []int
	Values  []float64
}

// Empty reports whether the vector has no non-zero components.
func (v Vector) Empty() bool { return len(v.Indices) == 0 }

// Dot computes the inner product by merging both index lists in order,
// so the summation order and therefore the result are deterministic.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (v Vector) SquaredNorm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

// DotDense computes the inner product with a dense vector.
func (v Vector) DotDense(dense []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		if idx < len(dense) {
			sum += v.Values[k] * dense[idx]
		}
	}
	return sum
}

// Cosine returns the cosine similarity, 0 when either vector is empty.
func Cosine(a, b Vector) float64 {
	na, nb := a.SquaredNorm(), b.SquaredNorm()
	if na == 0 || nb == 0 {
		return 0
	}
	c := a.Dot(b) / math.Sqrt(na*nb)
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}
