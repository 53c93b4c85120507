package maxpool

// Embedder is the read-only lookup capability of a pre-trained word
// embedding model. Implementations must be safe for concurrent use; the
// engine shares one Embedder across all workers without synchronization.
type Embedder interface {
	// Dim returns the embedding dimensionality D.
	Dim() int

	// VocabSize returns the number of in-vocabulary words.
	VocabSize() int

	// IndexOf resolves a token to its vocabulary index. The second
	// return value is false for out-of-vocabulary tokens.
	IndexOf(token string) (int, bool)

	// VectorOf returns the D-length vector for a vocabulary index.
	// The returned slice is owned by the model and is never modified
	// by the engine.
	VectorOf(index int) []float32
}

// SubwordEmbedder extends Embedder with FastText-style character n-gram
// lookups. Word vectors are composed by averaging the word's own vector
// with its n-gram vectors, which also gives out-of-vocabulary tokens a
// usable representation.
type SubwordEmbedder interface {
	Embedder

	// NgramIndicesOf returns the n-gram bucket indices for a token.
	// An empty result means the token contributes no n-gram vectors.
	NgramIndicesOf(token string) []int

	// NgramVectorOf returns the D-length vector for an n-gram bucket.
	NgramVectorOf(index int) []float32
}

// Sentence is an ordered token sequence paired with the store row its
// pooled vector is written to. Row indices are caller-assigned and need
// not be contiguous or sorted; they are write targets, not counters.
type Sentence struct {
	Tokens []string
	Index  int
}
