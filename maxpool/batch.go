// Copyright 2025 The go-maxpool Authors. SPDX-License-Identifier: Apache-2.0

package maxpool

import "iter"

// Batch size limits. These bound the per-worker scratch memory, not the
// output: batches never span a sentence, so batching has no effect on the
// pooled values. Both are overridable per Batcher so tests can exercise
// the splitting behavior with small streams.
const (
	// MaxWordsInBatch is the default cap on resolved word tokens per
	// batch.
	MaxWordsInBatch = 10000

	// MaxNgramsInBatch is the per-word n-gram budget; the default cap on
	// resolved n-grams per batch is MaxNgramsInBatch * MaxWordsInBatch.
	MaxNgramsInBatch = 40
)

// Batch is a bounded group of sentences pooled together by one kernel
// call. Words and Ngrams carry the resolved token and n-gram counts the
// scheduler measured while building the batch.
type Batch struct {
	Sentences []Sentence
	Words     int
	Ngrams    int
}

// Batcher splits a sentence stream into batches bounded by a maximum
// resolved word count and a maximum resolved n-gram count. A sentence
// whose own cost exceeds a limit still forms a batch by itself; sentences
// are never dropped or truncated.
type Batcher struct {
	model     Embedder
	sub       SubwordEmbedder // nil for whole-word models
	maxWords  int
	maxNgrams int
}

// NewBatcher returns a scheduler for the given model. Non-positive limits
// select the defaults (MaxWordsInBatch words, MaxNgramsInBatch words'
// worth of n-grams).
func NewBatcher(model Embedder, maxWords, maxNgrams int) *Batcher {
	if maxWords <= 0 {
		maxWords = MaxWordsInBatch
	}
	if maxNgrams <= 0 {
		maxNgrams = MaxNgramsInBatch * maxWords
	}
	sub, _ := model.(SubwordEmbedder)
	return &Batcher{model: model, sub: sub, maxWords: maxWords, maxNgrams: maxNgrams}
}

// Batches returns a lazy, single-use sequence of batches. Batch order and
// the sentence order within each batch follow the input order. A batch is
// closed as soon as admitting the next sentence would exceed a limit.
func (b *Batcher) Batches(sentences iter.Seq[Sentence]) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		var cur Batch
		for s := range sentences {
			words, ngrams := b.cost(s)
			full := cur.Words+words > b.maxWords || cur.Ngrams+ngrams > b.maxNgrams
			if len(cur.Sentences) > 0 && full {
				if !yield(cur) {
					return
				}
				cur = Batch{}
			}
			cur.Sentences = append(cur.Sentences, s)
			cur.Words += words
			cur.Ngrams += ngrams
		}
		if len(cur.Sentences) > 0 {
			yield(cur)
		}
	}
}

// cost counts the tokens and n-grams of one sentence that will actually
// resolve against the model. Out-of-vocabulary tokens without n-grams
// contribute nothing to the batch budget, matching the kernels.
func (b *Batcher) cost(s Sentence) (words, ngrams int) {
	for _, tok := range s.Tokens {
		_, ok := b.model.IndexOf(tok)
		if b.sub == nil {
			if ok {
				words++
			}
			continue
		}
		n := len(b.sub.NgramIndicesOf(tok))
		if ok || n > 0 {
			words++
			ngrams += n
		}
	}
	return words, ngrams
}
