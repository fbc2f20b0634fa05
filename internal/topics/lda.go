// Package topics fits a latent dirichlet allocation topic model with
// collapsed gibbs sampling.
package topics

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrEmptyCorpus = errors.New("corpus has no tokens")

type Config struct {
	NumTopics  int `json:"num_topics"`
	Iterations int `json:"iterations"`
	// Alpha and Eta default to 1/NumTopics.
	Alpha float64 `json:"alpha"`
	Eta   float64 `json:"eta"`
	Seed  int64   `json:"seed"`
	TopN  int     `json:"top_n"`
}

func (c Config) WithDefaults() Config {
	if c.NumTopics == 0 {
		c.NumTopics = 3
	}
	if c.Iterations == 0 {
		c.Iterations = 200
	}
	if c.Alpha == 0 {
		c.Alpha = 1 / float64(c.NumTopics)
	}
	if c.Eta == 0 {
		c.Eta = 1 / float64(c.NumTopics)
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.TopN == 0 {
		c.TopN = 10
	}
	return c
}

func (c Config) Validate() error {
	if c.NumTopics <= 0 {
		return fmt.Errorf("number of topics must be positive, got %d", c.NumTopics)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Alpha <= 0 || c.Eta <= 0 {
		return fmt.Errorf("alpha and eta must be positive")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top n must be positive, got %d", c.TopN)
	}
	return nil
}

type Term struct {
	Token  string
	Weight float64
}

type Topic struct {
	Index int
	Terms []Term
}

type Model struct {
	Vocab []string
	// Phi is the topic-word distribution, one row per topic.
	Phi *mat.Dense
	// Theta is the document-topic distribution, one row per document.
	Theta  *mat.Dense
	Topics []Topic
}

type corpus struct {
	vocab []string
	docs  [][]int
	words int
}

func buildCorpus(docs [][]string) corpus {
	index := map[string]int{}
	c := corpus{docs: make([][]int, len(docs))}
	for d, doc := range docs {
		ids := make([]int, len(doc))
		for i, token := range doc {
			id, ok := index[token]
			if !ok {
				id = len(c.vocab)
				index[token] = id
				c.vocab = append(c.vocab, token)
			}
			ids[i] = id
		}
		c.docs[d] = ids
		c.words += len(ids)
	}
	return c
}

// Fit fits a model to `docs`, every document is a list of tokens. The same
// documents and config always give the same model.
func Fit(docs [][]string, cfg Config) (*Model, error) {
	cfg = cfg.WithDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	c := buildCorpus(docs)
	if c.words == 0 {
		return nil, ErrEmptyCorpus
	}

	k := cfg.NumTopics
	v := len(c.vocab)
	rng := rand.New(rand.NewSource(cfg.Seed))

	ndk := make([][]int, len(c.docs))
	nkw := make([][]int, k)
	nk := make([]int, k)
	for t := range nkw {
		nkw[t] = make([]int, v)
	}
	z := make([][]int, len(c.docs))
	for d, doc := range c.docs {
		ndk[d] = make([]int, k)
		z[d] = make([]int, len(doc))
		for i, w := range doc {
			t := rng.Intn(k)
			z[d][i] = t
			ndk[d][t]++
			nkw[t][w]++
			nk[t]++
		}
	}

	vEta := float64(v) * cfg.Eta
	p := make([]float64, k)
	for iter := 0; iter < cfg.Iterations; iter++ {
		for d, doc := range c.docs {
			for i, w := range doc {
				t := z[d][i]
				ndk[d][t]--
				nkw[t][w]--
				nk[t]--

				sum := 0.0
				for j := 0; j < k; j++ {
					sum += (float64(ndk[d][j]) + cfg.Alpha) *
						(float64(nkw[j][w]) + cfg.Eta) /
						(float64(nk[j]) + vEta)
					p[j] = sum
				}
				u := rng.Float64() * sum
				t = sort.SearchFloat64s(p, u)
				if t >= k {
					t = k - 1
				}

				z[d][i] = t
				ndk[d][t]++
				nkw[t][w]++
				nk[t]++
			}
		}
	}

	phi := mat.NewDense(k, v, nil)
	for t := 0; t < k; t++ {
		for w := 0; w < v; w++ {
			phi.Set(t, w, (float64(nkw[t][w])+cfg.Eta)/(float64(nk[t])+vEta))
		}
	}
	theta := mat.NewDense(len(c.docs), k, nil)
	kAlpha := float64(k) * cfg.Alpha
	for d, doc := range c.docs {
		for t := 0; t < k; t++ {
			theta.Set(d, t, (float64(ndk[d][t])+cfg.Alpha)/(float64(len(doc))+kAlpha))
		}
	}

	m := &Model{
		Vocab: c.vocab,
		Phi:   phi,
		Theta: theta,
	}
	m.Topics = m.topTerms(cfg.TopN)
	return m, nil
}

func (m *Model) topTerms(n int) []Topic {
	k, v := m.Phi.Dims()
	if n > v {
		n = v
	}

	topics := make([]Topic, k)
	for t := 0; t < k; t++ {
		row := m.Phi.RawRowView(t)
		order := make([]int, v)
		for w := range order {
			order[w] = w
		}
		sort.SliceStable(order, func(i, j int) bool {
			return row[order[i]] > row[order[j]]
		})

		terms := make([]Term, n)
		for i := 0; i < n; i++ {
			terms[i] = Term{Token: m.Vocab[order[i]], Weight: row[order[i]]}
		}
		topics[t] = Topic{Index: t, Terms: terms}
	}
	return topics
}

// Format renders every topic on its own line, for example
// `topic 0: 0.052*"加油" + 0.031*"中国"`.
func (m *Model) Format() string {
	var out strings.Builder
	for _, topic := range m.Topics {
		parts := make([]string, len(topic.Terms))
		for i, term := range topic.Terms {
			parts[i] = fmt.Sprintf("%.3f*%q", term.Weight, term.Token)
		}
		fmt.Fprintf(&out, "topic %d: %s\n", topic.Index, strings.Join(parts, " + "))
	}
	return out.String()
}
