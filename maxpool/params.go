package maxpool

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports a pooling configuration that fails validation.
	// Nothing is processed when a training call starts with an invalid
	// configuration.
	ErrConfig = errors.New("maxpool: invalid configuration")

	// ErrStoreSize reports a sentence index outside the prepared store.
	// This is a caller contract violation: the store was sized for fewer
	// rows than the sentence indices address. The engine fails loudly
	// instead of growing or wrapping.
	ErrStoreSize = errors.New("maxpool: sentence index outside prepared store")
)

// DefaultWindowSize is the hierarchical window width used when none is
// configured.
const DefaultWindowSize = 3

// Params configures the pooling reduction.
type Params struct {
	// Hierarchical switches from one global max over the sentence to
	// window-local means reduced by a global max.
	Hierarchical bool

	// WindowSize is the width, in tokens, of the hierarchical window.
	// Ignored in flat mode. Must be >= 1.
	WindowSize int

	// WordWeights holds one non-negative scalar per vocabulary index.
	// Each word vector is scaled by its weight before the max
	// comparison. nil means uniform weights of 1.
	WordWeights []float32
}

// Validate checks the parameters against the model's vocabulary size.
// It is pure and is run once before any batch is processed.
func (p Params) Validate(vocabSize int) error {
	if p.WindowSize < 1 {
		return fmt.Errorf("%w: window size %d, must be at least 1", ErrConfig, p.WindowSize)
	}
	if p.WordWeights != nil && len(p.WordWeights) != vocabSize {
		return fmt.Errorf("%w: %d word weights for a vocabulary of %d words",
			ErrConfig, len(p.WordWeights), vocabSize)
	}
	return nil
}

// weight returns the scalar applied to the vector of a vocabulary index.
func (p Params) weight(index int) float32 {
	if p.WordWeights == nil {
		return 1
	}
	return p.WordWeights[index]
}

// oovWeight returns the weight applied to tokens composed purely from
// n-grams. Such tokens have no vocabulary index of their own, so the
// largest configured word weight is used.
func (p Params) oovWeight() float32 {
	if p.WordWeights == nil {
		return 1
	}
	var heaviest float32
	for _, w := range p.WordWeights {
		if w > heaviest {
			heaviest = w
		}
	}
	return heaviest
}
