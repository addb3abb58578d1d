package codes

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed corpus.txt
var defaultCorpus []byte

// start is the transition key for the first letter of a word.
const start rune = 0

// separators end a word. Any other character outside a-z is skipped
// without breaking the word.
const separators = " \t\r\n-_.:,;"

// Generator produces pronounceable pseudo-words from letter transition
// counts learned from a corpus.
type Generator struct {
	weights map[rune]map[rune]int
}

var loadDefault = sync.OnceValues(func() (*Generator, error) {
	return Train(bytes.NewReader(defaultCorpus))
})

// Default returns the generator trained on the built-in corpus.
func Default() *Generator {
	g, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("codes: built-in corpus: %v", err))
	}
	return g
}

// LoadFile trains a generator on the corpus at path.
func LoadFile(path string) (*Generator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return Train(f)
}

// Train builds a generator from a text corpus. Letters are lower-cased and
// folded to a-z: diacritics are stripped and ß becomes s.
func Train(r io.Reader) (*Generator, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	text := Fold(string(raw))

	g := &Generator{weights: make(map[rune]map[rune]int)}
	last := start
	for _, c := range text {
		switch {
		case c >= 'a' && c <= 'z':
			next := g.weights[last]
			if next == nil {
				next = make(map[rune]int)
				g.weights[last] = next
			}
			next[c]++
			last = c
		case strings.ContainsRune(separators, c):
			last = start
		}
	}
	if len(g.weights[start]) == 0 {
		return nil, errors.New("corpus contains no letters")
	}
	return g, nil
}

// Fold lower-cases s and strips diacritics.
func Fold(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ß", "s")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Generate returns a word of the given length drawn with rng.
func (g *Generator) Generate(length int, rng *rand.Rand) string {
	var b strings.Builder
	last := start
	for range length {
		last = g.next(last, rng)
		b.WriteRune(last)
	}
	return b.String()
}

// next draws the successor of prev. Letters that never had a successor in
// the corpus continue as if a new word started.
func (g *Generator) next(prev rune, rng *rand.Rand) rune {
	choices := g.weights[prev]
	if len(choices) == 0 {
		choices = g.weights[start]
	}
	keys := make([]rune, 0, len(choices))
	total := 0
	for k, w := range choices {
		keys = append(keys, k)
		total += w
	}
	slices.Sort(keys)
	n := rng.IntN(total)
	for _, k := range keys {
		n -= choices[k]
		if n < 0 {
			return k
		}
	}
	return keys[len(keys)-1]
}
