// Copyright 2025 go-maxpool Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package maxpool

import "fmt"

// Kernel pools one batch into the store and reports how many sentences
// and effective words it processed. The two implementations, PoolBatch
// and PoolBatchScalar, are interchangeable and must agree elementwise.
type Kernel func(model Embedder, p Params, batch Batch, sv *SentenceVectors, mem *WorkingMemory) (sentences, words int, err error)

// PoolBatchScalar is the reference kernel: plain nested loops, one token
// at a time, windows recomputed from scratch in hierarchical mode. It is
// kept deliberately simple; PoolBatch is held to elementwise equality
// with it by the test suite.
func PoolBatchScalar(model Embedder, p Params, batch Batch, sv *SentenceVectors, mem *WorkingMemory) (sentences, words int, err error) {
	dim := model.Dim()
	sub, _ := model.(SubwordEmbedder)
	oov := p.oovWeight()

	for _, s := range batch.Sentences {
		if len(s.Tokens) == 0 {
			continue
		}
		if s.Index < 0 || s.Index >= sv.Rows() {
			return sentences, words, fmt.Errorf("%w: index %d, store has %d rows",
				ErrStoreSize, s.Index, sv.Rows())
		}
		sentences++

		// Resolve and weight every token that the model knows.
		var vecs [][]float32
		for _, tok := range s.Tokens {
			if v := resolveToken(model, sub, p, oov, tok); v != nil {
				vecs = append(vecs, v)
			}
		}
		words += len(vecs)
		if len(vecs) == 0 {
			// Every token was out of vocabulary: the row stays the
			// zero vector.
			continue
		}

		row := sv.Row(s.Index)
		if !p.Hierarchical {
			// Global max. The row starts at zero, which is the
			// identity of the reduction, so every output dimension
			// ends up >= 0.
			for _, v := range vecs {
				for d, x := range v {
					if x > row[d] {
						row[d] = x
					}
				}
			}
			continue
		}

		// Local pooling: mean within each sliding window, max across
		// windows. A sentence shorter than one window is pooled as a
		// single whole-sentence window.
		w := p.WindowSize
		if w > len(vecs) {
			w = len(vecs)
		}
		inv := 1 / float32(w)
		for start := 0; start+w <= len(vecs); start++ {
			for d := 0; d < dim; d++ {
				var sum float32
				for _, v := range vecs[start : start+w] {
					sum += v[d]
				}
				if m := sum * inv; m > row[d] {
					row[d] = m
				}
			}
		}
	}
	return sentences, words, nil
}

// resolveToken returns the weighted embedding of one token, or nil when
// the token resolves to nothing and must be skipped.
//
// Whole-word models look the token up directly. Subword models compose
// the word vector with its n-gram vectors by elementwise average; a token
// missing from the vocabulary falls back to the n-gram average alone,
// weighted by the largest configured word weight.
func resolveToken(model Embedder, sub SubwordEmbedder, p Params, oov float32, tok string) []float32 {
	idx, ok := model.IndexOf(tok)
	var grams []int
	if sub != nil {
		grams = sub.NgramIndicesOf(tok)
	}
	if !ok && len(grams) == 0 {
		return nil
	}

	out := make([]float32, model.Dim())
	var scale float32
	if ok {
		copy(out, model.VectorOf(idx))
		scale = p.weight(idx)
		if len(grams) > 0 {
			scale *= 1 / float32(1+len(grams))
		}
	} else {
		scale = oov * (1 / float32(len(grams)))
	}
	for _, g := range grams {
		gv := sub.NgramVectorOf(g)
		for d := range out {
			out[d] += gv[d]
		}
	}
	for d := range out {
		out[d] *= scale
	}
	return out
}
