package textproc

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
)

// Segmenter splits a run of text without whitespace into words.
type Segmenter interface {
	Cut(text string) []string
}

// GseSegmenter is a dictionary based segmenter for chinese that also
// splits latin words and digits.
type GseSegmenter struct {
	seg gse.Segmenter
}

func (g *GseSegmenter) Cut(text string) []string {
	return g.seg.Cut(text, true)
}

var (
	defaultSegmenter     *GseSegmenter
	defaultSegmenterErr  error
	defaultSegmenterOnce sync.Once
)

// DefaultSegmenter returns a process wide segmenter backed by the embedded
// gse dictionary, the dictionary is only loaded once.
func DefaultSegmenter() (*GseSegmenter, error) {
	defaultSegmenterOnce.Do(func() {
		s := &GseSegmenter{}
		s.seg.SkipLog = true
		err := s.seg.LoadDictEmbed()
		if err != nil {
			defaultSegmenterErr = fmt.Errorf("load segmenter dictionary: %w", err)
			return
		}
		defaultSegmenter = s
	})
	return defaultSegmenter, defaultSegmenterErr
}

// re-cutting a word the segmenter produced may split it again, this bounds
// how deep that goes.
const maxSegmentDepth = 4

type Tokenizer struct {
	seg   Segmenter
	stop  StopWords
	rules Rules
}

func NewTokenizer(seg Segmenter, stop StopWords, rules Rules) *Tokenizer {
	if stop == nil {
		stop = StopWords{}
	}
	return &Tokenizer{
		seg:   seg,
		stop:  stop,
		rules: rules,
	}
}

// segment cuts `chunk` until every word is one the segmenter leaves alone,
// so that tokenizing the joined tokens again gives the same words.
func (t *Tokenizer) segment(chunk string, depth int, out []string) []string {
	parts := t.seg.Cut(chunk)
	if depth >= maxSegmentDepth || len(parts) == 0 || (len(parts) == 1 && parts[0] == chunk) {
		return append(out, chunk)
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == chunk {
			out = append(out, p)
			continue
		}
		for _, sub := range strings.Fields(p) {
			out = t.segment(sub, depth+1, out)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (t *Tokenizer) keep(token string) bool {
	if t.stop.Contains(token) {
		return false
	}
	if utf8.RuneCountInString(token) == 1 {
		r, _ := utf8.DecodeRuneInString(token)
		if !unicode.Is(unicode.Han, r) {
			return false
		}
	}
	return !isDigits(token)
}

// Tokenize cleans `text` and returns its words in order, without stop words,
// numbers or single latin letters.
func (t *Tokenizer) Tokenize(text string) []string {
	cleaned := Clean(text, t.rules)
	var words []string
	for _, chunk := range strings.Fields(cleaned) {
		words = t.segment(chunk, 0, words)
	}

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if t.keep(w) {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// TokenizeAll tokenizes every text, keeping their order.
func (t *Tokenizer) TokenizeAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, text := range texts {
		out[i] = t.Tokenize(text)
	}
	return out
}
