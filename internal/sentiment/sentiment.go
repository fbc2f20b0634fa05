// Package sentiment scores comments with a naive bayes classifier trained on
// an embedded corpus of labelled positive and negative comments.
package sentiment

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
)

//go:embed corpus/*.txt
var corpusFS embed.FS

// DefaultNeutral is the score of comments that have no tokens.
const DefaultNeutral = 0.5

const (
	classPos = iota
	classNeg
)

// Model is a multinomial naive bayes classifier with laplace smoothing.
type Model struct {
	logPrior [2]float64
	logProb  [2]map[string]float64
}

// features are the tokens plus the han characters of multi character
// tokens, which lets words the corpus never saw whole still count.
func features(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	for _, t := range tokens {
		out = append(out, t)
		if utf8.RuneCountInString(t) < 2 {
			continue
		}
		for _, r := range t {
			if unicode.Is(unicode.Han, r) {
				out = append(out, string(r))
			}
		}
	}
	return out
}

// Train fits a model on documents that are already split into tokens.
func Train(pos, neg [][]string) (*Model, error) {
	if len(pos) == 0 || len(neg) == 0 {
		return nil, fmt.Errorf("both classes need at least one document")
	}

	var counts [2]map[string]int
	var totals [2]int
	vocab := map[string]bool{}
	for class, docs := range [2][][]string{pos, neg} {
		counts[class] = map[string]int{}
		for _, doc := range docs {
			for _, f := range features(doc) {
				counts[class][f]++
				totals[class]++
				vocab[f] = true
			}
		}
	}

	m := &Model{}
	n := float64(len(pos) + len(neg))
	m.logPrior[classPos] = math.Log(float64(len(pos)) / n)
	m.logPrior[classNeg] = math.Log(float64(len(neg)) / n)

	v := float64(len(vocab))
	for class := range counts {
		m.logProb[class] = make(map[string]float64, len(vocab))
		denominator := float64(totals[class]) + v
		for f := range vocab {
			m.logProb[class][f] = math.Log((float64(counts[class][f]) + 1) / denominator)
		}
	}
	return m, nil
}

// Score returns the probability that `tokens` are positive, features the
// model has never seen are ignored.
func (m *Model) Score(tokens []string) float64 {
	lp := m.logPrior
	for _, f := range features(tokens) {
		pos, ok := m.logProb[classPos][f]
		if !ok {
			continue
		}
		lp[classPos] += pos
		lp[classNeg] += m.logProb[classNeg][f]
	}
	score := math.Exp(lp[classPos] - floats.LogSumExp(lp[:]))
	return math.Min(1, math.Max(0, score))
}

// ScoreAll scores every token list, empty lists get `neutral`.
func (m *Model) ScoreAll(tokens [][]string, neutral float64) []float64 {
	out := make([]float64, len(tokens))
	for i, t := range tokens {
		if len(t) == 0 {
			out[i] = neutral
			continue
		}
		out[i] = m.Score(t)
	}
	return out
}

// Tokenizer splits raw comments into the tokens the model is trained and
// scored on.
type Tokenizer interface {
	TokenizeAll(texts []string) [][]string
}

// Corpus returns the raw lines of the embedded labelled corpus.
func Corpus() (pos, neg []string, err error) {
	pos, err = readCorpus("corpus/pos.txt")
	if err != nil {
		return nil, nil, err
	}
	neg, err = readCorpus("corpus/neg.txt")
	if err != nil {
		return nil, nil, err
	}
	return pos, neg, nil
}

func readCorpus(name string) ([]string, error) {
	contents, err := corpusFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func nonEmpty(docs [][]string) [][]string {
	out := docs[:0]
	for _, d := range docs {
		if len(d) > 0 {
			out = append(out, d)
		}
	}
	return out
}

// TrainDefault trains a model on the embedded corpus, the corpus goes
// through `tok` so that training sees the same tokens as scoring.
func TrainDefault(tok Tokenizer) (*Model, error) {
	pos, neg, err := Corpus()
	if err != nil {
		return nil, err
	}
	return Train(nonEmpty(tok.TokenizeAll(pos)), nonEmpty(tok.TokenizeAll(neg)))
}
