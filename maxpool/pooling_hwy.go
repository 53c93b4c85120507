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

import (
	"fmt"

	"github.com/ajroetker/go-highway/hwy"
)

// DefaultKernel is the kernel the training driver uses unless one is
// injected with WithKernel.
var DefaultKernel Kernel = PoolBatch

// PoolBatch is the optimized kernel. It resolves the whole batch into the
// working memory's index buffers first, composes the weighted vectors
// into one reused matrix, and runs the reductions with hwy vector ops.
// Hierarchical windows are slid with a running sum, O(n*D) per sentence
// instead of the reference kernel's O(n*w*D).
//
// For identical inputs it produces the same counters as PoolBatchScalar
// and elementwise-equal rows: bit-for-bit on integer-valued embeddings,
// within floating tolerance otherwise (the running-sum slide reassociates
// additions).
func PoolBatch(model Embedder, p Params, batch Batch, sv *SentenceVectors, mem *WorkingMemory) (sentences, words int, err error) {
	dim := model.Dim()
	sub, _ := model.(SubwordEmbedder)

	// Pass 1: resolve the batch into the index buffers.
	mem.reset()
	for _, s := range batch.Sentences {
		count := int32(0)
		for _, tok := range s.Tokens {
			idx, ok := model.IndexOf(tok)
			var grams []int
			if sub != nil {
				grams = sub.NgramIndicesOf(tok)
			}
			if !ok && len(grams) == 0 {
				continue
			}
			if !ok {
				idx = -1
			}
			mem.words = append(mem.words, int32(idx))
			mem.spans = append(mem.spans, int32(len(grams)))
			for _, g := range grams {
				mem.ngrams = append(mem.ngrams, int32(g))
			}
			count++
		}
		mem.counts = append(mem.counts, count)
	}

	// Pass 2: compose the weighted vector of every effective token.
	oov := p.oovWeight()
	vecs := mem.vecsFor(len(mem.words))
	gcur := 0
	for t, idx := range mem.words {
		out := vecs[t*dim : (t+1)*dim]
		k := int(mem.spans[t])
		grams := mem.ngrams[gcur : gcur+k]
		gcur += k

		var scale float32
		if idx >= 0 {
			copy(out, model.VectorOf(int(idx)))
			scale = p.weight(int(idx))
			if k > 0 {
				scale *= 1 / float32(1+k)
			}
		} else {
			clear(out)
			scale = oov * (1 / float32(k))
		}
		for _, g := range grams {
			addInto(out, sub.NgramVectorOf(int(g)))
		}
		scaleBy(out, scale)
	}

	// Pass 3: pool each sentence into its store row.
	base := 0
	for si, s := range batch.Sentences {
		if len(s.Tokens) == 0 {
			continue
		}
		if s.Index < 0 || s.Index >= sv.Rows() {
			return sentences, words, fmt.Errorf("%w: index %d, store has %d rows",
				ErrStoreSize, s.Index, sv.Rows())
		}
		sentences++
		n := int(mem.counts[si])
		words += n
		if n == 0 {
			continue
		}
		sent := vecs[base*dim : (base+n)*dim]
		base += n

		row := sv.Row(s.Index)
		copy(mem.acc, row) // zero seed
		if !p.Hierarchical {
			for t := 0; t < n; t++ {
				maxInto(mem.acc, sent[t*dim:(t+1)*dim])
			}
			copy(row, mem.acc)
			continue
		}

		w := p.WindowSize
		if w > n {
			w = n
		}
		inv := 1 / float32(w)

		// Seed the running sum with the first window, then slide by
		// adding the entering vector and subtracting the leaving one.
		clear(mem.sum)
		for t := 0; t < w; t++ {
			addInto(mem.sum, sent[t*dim:(t+1)*dim])
		}
		for start := 0; ; start++ {
			maxMeanInto(mem.acc, mem.sum, inv)
			if start+w >= n {
				break
			}
			slideWindow(mem.sum, sent[(start+w)*dim:(start+w+1)*dim], sent[start*dim:(start+1)*dim])
		}
		copy(row, mem.acc)
	}
	return sentences, words, nil
}

// addInto computes dst += src elementwise.
func addInto(dst, src []float32) {
	lanes := hwy.MaxLanes[float32]()
	i := 0
	for ; i+lanes <= len(dst); i += lanes {
		v := hwy.Add(hwy.LoadSlice(dst[i:]), hwy.LoadSlice(src[i:]))
		hwy.StoreSlice(v, dst[i:])
	}
	for ; i < len(dst); i++ {
		dst[i] += src[i]
	}
}

// scaleBy computes dst *= s elementwise.
func scaleBy(dst []float32, s float32) {
	lanes := hwy.MaxLanes[float32]()
	vs := hwy.Set(s)
	i := 0
	for ; i+lanes <= len(dst); i += lanes {
		hwy.StoreSlice(hwy.Mul(hwy.LoadSlice(dst[i:]), vs), dst[i:])
	}
	for ; i < len(dst); i++ {
		dst[i] *= s
	}
}

// maxInto computes dst = max(dst, src) elementwise.
func maxInto(dst, src []float32) {
	lanes := hwy.MaxLanes[float32]()
	i := 0
	for ; i+lanes <= len(dst); i += lanes {
		v := hwy.Max(hwy.LoadSlice(dst[i:]), hwy.LoadSlice(src[i:]))
		hwy.StoreSlice(v, dst[i:])
	}
	for ; i < len(dst); i++ {
		if src[i] > dst[i] {
			dst[i] = src[i]
		}
	}
}

// maxMeanInto computes dst = max(dst, sum*inv) elementwise.
func maxMeanInto(dst, sum []float32, inv float32) {
	lanes := hwy.MaxLanes[float32]()
	vinv := hwy.Set(inv)
	i := 0
	for ; i+lanes <= len(dst); i += lanes {
		m := hwy.Mul(hwy.LoadSlice(sum[i:]), vinv)
		hwy.StoreSlice(hwy.Max(hwy.LoadSlice(dst[i:]), m), dst[i:])
	}
	for ; i < len(dst); i++ {
		if m := sum[i] * inv; m > dst[i] {
			dst[i] = m
		}
	}
}

// slideWindow computes sum += enter - leave elementwise.
func slideWindow(sum, enter, leave []float32) {
	lanes := hwy.MaxLanes[float32]()
	i := 0
	for ; i+lanes <= len(sum); i += lanes {
		v := hwy.Sub(hwy.Add(hwy.LoadSlice(sum[i:]), hwy.LoadSlice(enter[i:])), hwy.LoadSlice(leave[i:]))
		hwy.StoreSlice(v, sum[i:])
	}
	for ; i < len(sum); i++ {
		sum[i] += enter[i] - leave[i]
	}
}
