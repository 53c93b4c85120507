// Package maxpool turns sequences of tokens into fixed-size sentence
// vectors by max-pooling pre-trained word embeddings. No training of the
// embeddings themselves takes place: the embedding model is consumed as a
// read-only lookup capability (see Embedder and SubwordEmbedder), and each
// sentence is reduced to one D-dimensional vector.
//
// # Pooling modes
//
// Flat mode reduces a sentence with a single elementwise maximum over its
// weighted token vectors. Hierarchical mode first averages token vectors
// inside sliding windows of WindowSize tokens and then takes the
// elementwise maximum over the window means, capturing local co-occurrence
// structure that a single global max discards.
//
// The accumulator is seeded with the zero vector, which is also the value
// of every freshly prepared store row. Zero is the identity element of the
// max reduction here, so a sentence without a single resolvable token
// leaves its row as the exact zero vector, and every output dimension is
// >= 0 regardless of the sign of the embeddings.
//
// # Kernels
//
// The numeric core ships as two interchangeable implementations:
//
//   - PoolBatchScalar, a straightforward nested-loop reference
//   - PoolBatch, an optimized variant with batch-level index resolution,
//     reused scratch buffers and hwy-vectorized inner loops
//
// Both produce identical counters and, for identical inputs, elementwise
// equal rows (bit-for-bit on integer-valued embeddings, within floating
// tolerance otherwise). The test suite holds them to that contract.
//
// # Usage
//
//	trainer, err := maxpool.New(model, maxpool.WithWorkers(4))
//	if err != nil {
//		...
//	}
//	sentences, words, err := trainer.Train(corpus)
//	vec := trainer.Vectors().Row(0)
package maxpool
