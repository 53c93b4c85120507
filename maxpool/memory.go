package maxpool

// WorkingMemory is the per-worker scratch state reused across batches.
// Each worker owns exactly one instance; none of the buffers may be
// shared. The index and vector buffers grow to the largest batch the
// worker has seen (bounded by the scheduler's limits except for single
// oversized sentences) and keep their capacity between batches.
type WorkingMemory struct {
	dim int

	// Resolved per batch by the optimized kernel.
	words  []int32   // vocabulary index per effective token, -1 for pure n-gram tokens
	spans  []int32   // n-gram count per effective token
	ngrams []int32   // n-gram indices, flat, grouped by token
	counts []int32   // effective token count per sentence in the batch
	vecs   []float32 // weighted composed vectors, one dim-length row per effective token

	acc []float32 // pooling accumulator
	sum []float32 // sliding-window running sum
}

// NewWorkingMemory returns scratch state for dim-length vectors.
func NewWorkingMemory(dim int) *WorkingMemory {
	return &WorkingMemory{
		dim: dim,
		acc: make([]float32, dim),
		sum: make([]float32, dim),
	}
}

// reset empties the batch-scoped buffers while keeping their capacity.
func (m *WorkingMemory) reset() {
	m.words = m.words[:0]
	m.spans = m.spans[:0]
	m.ngrams = m.ngrams[:0]
	m.counts = m.counts[:0]
}

// vecsFor returns the weighted-vector matrix resized to n rows, reusing
// the previous allocation when it is large enough.
func (m *WorkingMemory) vecsFor(n int) []float32 {
	need := n * m.dim
	if cap(m.vecs) < need {
		m.vecs = make([]float32, need)
	}
	m.vecs = m.vecs[:need]
	return m.vecs
}
