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
	"context"
	"iter"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Trainer orchestrates a pooling run: it validates the parameters,
// prepares the sentence-vector store, streams batches to parallel workers
// and aggregates the processed-sentence and processed-word counters.
type Trainer struct {
	model     Embedder
	params    Params
	sv        *SentenceVectors
	kernel    Kernel
	workers   int
	maxWords  int
	maxNgrams int
	log       *zap.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithHierarchical enables window-local pooling with the given window
// width. A width of 0 keeps the current window size.
func WithHierarchical(windowSize int) Option {
	return func(t *Trainer) {
		t.params.Hierarchical = true
		if windowSize != 0 {
			t.params.WindowSize = windowSize
		}
	}
}

// WithWindowSize sets the hierarchical window width without switching
// modes. Default: DefaultWindowSize.
func WithWindowSize(w int) Option {
	return func(t *Trainer) { t.params.WindowSize = w }
}

// WithWordWeights sets one non-negative scalar per vocabulary index,
// applied to each word vector before pooling. Default: uniform 1.
func WithWordWeights(w []float32) Option {
	return func(t *Trainer) { t.params.WordWeights = w }
}

// WithWorkers sets the number of parallel pooling workers.
// Default: runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(t *Trainer) { t.workers = n }
}

// WithKernel pins the pooling kernel. Default: DefaultKernel.
func WithKernel(k Kernel) Option {
	return func(t *Trainer) { t.kernel = k }
}

// WithBatchLimits overrides the per-batch word and n-gram caps. Zero
// keeps a limit at its default. Batching never changes the output rows;
// this only tunes peak scratch memory.
func WithBatchLimits(maxWords, maxNgrams int) Option {
	return func(t *Trainer) {
		t.maxWords = maxWords
		t.maxNgrams = maxNgrams
	}
}

// WithLogger sets the logger for training progress. Default: no-op.
func WithLogger(log *zap.Logger) Option {
	return func(t *Trainer) { t.log = log }
}

// New returns a Trainer for the given embedding model. The configuration
// is validated here, before any work is accepted.
func New(model Embedder, opts ...Option) (*Trainer, error) {
	t := &Trainer{
		model:   model,
		params:  Params{WindowSize: DefaultWindowSize},
		kernel:  DefaultKernel,
		workers: runtime.GOMAXPROCS(0),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.params.Validate(model.VocabSize()); err != nil {
		return nil, err
	}
	t.sv = NewSentenceVectors(model.Dim())
	return t, nil
}

// Params returns the validated pooling parameters.
func (t *Trainer) Params() Params { return t.params }

// Vectors returns the sentence-vector store the trainer writes to.
func (t *Trainer) Vectors() *SentenceVectors { return t.sv }

// Train pools every sentence and returns the number of sentences and
// effective words processed. The store is reinitialized to one zero row
// per sentence first; sentence indices address those rows.
func (t *Trainer) Train(sentences []Sentence) (int, int, error) {
	t.sv.Prepare(len(sentences), false)
	return t.train(slices.Values(sentences))
}

// TrainUpdate pools additional sentences incrementally: the store keeps
// its existing rows and grows by one zero row per new sentence. Sentence
// indices still address absolute rows, so callers continue numbering
// where the previous call left off.
func (t *Trainer) TrainUpdate(sentences []Sentence) (int, int, error) {
	t.sv.Prepare(len(sentences), true)
	return t.train(slices.Values(sentences))
}

func (t *Trainer) train(sentences iter.Seq[Sentence]) (int, int, error) {
	if err := t.params.Validate(t.model.VocabSize()); err != nil {
		return 0, 0, err
	}
	workers := t.workers
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	t.log.Debug("pooling started",
		zap.Int("rows", t.sv.Rows()),
		zap.Int("workers", workers),
		zap.Bool("hierarchical", t.params.Hierarchical))

	var sentTotal, wordTotal atomic.Int64
	batcher := NewBatcher(t.model, t.maxWords, t.maxNgrams)
	batches := make(chan Batch, workers)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(batches)
		for b := range batcher.Batches(sentences) {
			select {
			case batches <- b:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			mem := NewWorkingMemory(t.model.Dim())
			for b := range batches {
				ns, nw, err := t.kernel(t.model, t.params, b, t.sv, mem)
				sentTotal.Add(int64(ns))
				wordTotal.Add(int64(nw))
				if err != nil {
					return err
				}
				t.log.Debug("batch pooled",
					zap.Int("sentences", ns),
					zap.Int("words", nw))
			}
			return nil
		})
	}

	err := g.Wait()
	ns, nw := int(sentTotal.Load()), int(wordTotal.Load())
	if err != nil {
		// The store is left in whatever partial state the workers
		// reached; there is no rollback.
		return ns, nw, err
	}
	t.log.Info("pooling finished",
		zap.Int("sentences", ns),
		zap.Int("words", nw),
		zap.Duration("took", time.Since(start)))
	return ns, nw, nil
}
