package maxpool

import (
	"math"
	"math/rand"
	"strings"
	"testing"
)

const fixtureDim = 5

// lexicon is a deterministic whole-word model: every word's vector is its
// vocabulary index broadcast across all dimensions, which makes pooled
// outputs easy to compute by hand.
type lexicon struct {
	dim   int
	vocab int
	index map[string]int
}

func (l *lexicon) Dim() int       { return l.dim }
func (l *lexicon) VocabSize() int { return l.vocab }

func (l *lexicon) IndexOf(token string) (int, bool) {
	idx, ok := l.index[token]
	return idx, ok
}

func (l *lexicon) VectorOf(index int) []float32 {
	v := make([]float32, l.dim)
	for d := range v {
		v[d] = float32(index)
	}
	return v
}

// subwordLexicon adds explicit n-gram assignments on top of lexicon.
// N-gram bucket g has the vector 1000+10*g broadcast across all
// dimensions.
type subwordLexicon struct {
	lexicon
	grams map[string][]int
}

func (l *subwordLexicon) NgramIndicesOf(token string) []int {
	return l.grams[token]
}

func (l *subwordLexicon) NgramVectorOf(index int) []float32 {
	v := make([]float32, l.dim)
	for d := range v {
		v[d] = float32(1000 + 10*index)
	}
	return v
}

// fixtureWords pins the vocabulary indices the known-value tests rely on.
var fixtureWords = map[string]int{
	"They":     125,
	"admit":    241,
	"So":       102,
	"Apple":    306,
	"bought":   40,
	"buds":     7,
	"go":       50,
	"pull":     77,
	"this":     12,
	"is":       21,
	"a":        30,
	"longer":   702,
	"sentence": 3,
}

func newFixtureLexicon() *lexicon {
	return &lexicon{dim: fixtureDim, vocab: 703, index: fixtureWords}
}

// newFixtureSubwordLexicon gives n-grams to the out-of-vocabulary tokens
// of the fixture corpus ("12345", "12345678910111213", "test",
// "sentences") and to one in-vocabulary word ("admit"), so both
// composition paths are exercised.
func newFixtureSubwordLexicon() *subwordLexicon {
	return &subwordLexicon{
		lexicon: *newFixtureLexicon(),
		grams: map[string][]int{
			"12345":             {0, 1},
			"12345678910111213": {2, 3, 4},
			"test":              {5},
			"sentences":         {6, 7},
			"admit":             {8},
		},
	}
}

// fixtureSentences is the five-sentence corpus: 19 tokens, of which 14
// resolve against the whole-word lexicon and all 19 against the subword
// one.
func fixtureSentences() []Sentence {
	return []Sentence{
		{Tokens: []string{"They", "admit"}, Index: 0},
		{Tokens: []string{"So", "Apple", "bought", "buds"}, Index: 1},
		{Tokens: []string{"go", "12345"}, Index: 2},
		{Tokens: []string{"pull", "12345678910111213"}, Index: 3},
		{Tokens: strings.Fields("this is a longer test sentence test longer sentences"), Index: 4},
	}
}

// randomLexicon returns a model with vectors drawn from [-1, 1), negative
// dimensions included.
func randomLexicon(rng *rand.Rand, dim, vocab int) *randomModel {
	words := make(map[string]int, vocab)
	vecs := make([][]float32, vocab)
	for i := range vecs {
		words[word(i)] = i
		v := make([]float32, dim)
		for d := range v {
			v[d] = rng.Float32()*2 - 1
		}
		vecs[i] = v
	}
	return &randomModel{dim: dim, index: words, vecs: vecs}
}

type randomModel struct {
	dim   int
	index map[string]int
	vecs  [][]float32
}

func (m *randomModel) Dim() int       { return m.dim }
func (m *randomModel) VocabSize() int { return len(m.vecs) }

func (m *randomModel) IndexOf(token string) (int, bool) {
	idx, ok := m.index[token]
	return idx, ok
}

func (m *randomModel) VectorOf(index int) []float32 { return m.vecs[index] }

// word returns a synthetic token for vocabulary index i.
func word(i int) string {
	return "w" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+(i/676)%26))
}

// randomSentences draws sentences over the random vocabulary, with the
// occasional out-of-vocabulary token mixed in.
func randomSentences(rng *rand.Rand, m *randomModel, n int) []Sentence {
	sents := make([]Sentence, n)
	for i := range sents {
		length := 1 + rng.Intn(12)
		tokens := make([]string, length)
		for j := range tokens {
			if rng.Intn(10) == 0 {
				tokens[j] = "zzz-oov"
			} else {
				tokens[j] = word(rng.Intn(m.VocabSize()))
			}
		}
		sents[i] = Sentence{Tokens: tokens, Index: i}
	}
	return sents
}

// checkRowAll asserts that every dimension of a row equals want.
func checkRowAll(t *testing.T, row []float32, want float32, tol float64) {
	t.Helper()
	for d, x := range row {
		if math.Abs(float64(x-want)) > tol {
			t.Fatalf("row[%d] = %v, want %v (tolerance %v)", d, x, want, tol)
		}
	}
}

// checkRowsClose asserts two stores hold elementwise-close rows.
func checkRowsClose(t *testing.T, a, b *SentenceVectors, tol float64) {
	t.Helper()
	if a.Rows() != b.Rows() {
		t.Fatalf("row count mismatch: %d vs %d", a.Rows(), b.Rows())
	}
	for i := 0; i < a.Rows(); i++ {
		ra, rb := a.Row(i), b.Row(i)
		for d := range ra {
			if math.Abs(float64(ra[d]-rb[d])) > tol {
				t.Fatalf("row %d dim %d: %v vs %v", i, d, ra[d], rb[d])
			}
		}
	}
}
