package maxpool

import (
	"math"

	dot "github.com/ajroetker/go-highway/hwy/contrib/vec"
)

// SentenceVectors is the growable dense store holding one pooled vector
// per sentence index. Rows are contiguous float32 in row-major order.
//
// Freshly prepared rows are zero-filled; the kernels rely on the zero row
// as the identity element of the max reduction. Rows addressed by disjoint
// sentence indices may be written concurrently without locking, which is
// exactly how the training driver uses the store.
type SentenceVectors struct {
	dim  int
	data []float32
}

// NewSentenceVectors returns an empty store for dim-length vectors.
func NewSentenceVectors(dim int) *SentenceVectors {
	return &SentenceVectors{dim: dim}
}

// Dim returns the vector dimensionality.
func (sv *SentenceVectors) Dim() int { return sv.dim }

// Rows returns the number of prepared rows.
func (sv *SentenceVectors) Rows() int {
	if sv.dim == 0 {
		return 0
	}
	return len(sv.data) / sv.dim
}

// Prepare sizes the store for a training call.
//
// With update false the store is reinitialized to exactly total zero rows.
// With update true the store keeps its current rows and appends total zero
// rows after them; subsequent writes target indices beyond the old length.
func (sv *SentenceVectors) Prepare(total int, update bool) {
	if !update {
		sv.data = make([]float32, total*sv.dim)
		return
	}
	sv.data = append(sv.data, make([]float32, total*sv.dim)...)
}

// Row returns the vector at a sentence index. The slice aliases the
// store's backing array; writing through it writes the store.
func (sv *SentenceVectors) Row(index int) []float32 {
	return sv.data[index*sv.dim : (index+1)*sv.dim : (index+1)*sv.dim]
}

// Similarity returns the cosine similarity between two rows. A zero row
// (for example a sentence whose tokens were all out of vocabulary) has
// similarity 0 to everything.
func (sv *SentenceVectors) Similarity(i, j int) float32 {
	a, b := sv.Row(i), sv.Row(j)
	den := math.Sqrt(float64(dot.Dot(a, a)) * float64(dot.Dot(b, b)))
	if den == 0 {
		return 0
	}
	return float32(float64(dot.Dot(a, b)) / den)
}
