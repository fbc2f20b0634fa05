// Package wordfreq counts tokens across comments.
package wordfreq

import "sort"

type Entry struct {
	Token string
	Count int
}

// Table is ordered by count, highest first, ties keep the order in which
// the tokens were first seen.
type Table []Entry

// Count flattens `tokens` into a frequency table.
func Count(tokens [][]string) Table {
	index := map[string]int{}
	var table Table
	for _, list := range tokens {
		for _, token := range list {
			i, ok := index[token]
			if !ok {
				index[token] = len(table)
				table = append(table, Entry{Token: token, Count: 1})
				continue
			}
			table[i].Count++
		}
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Count > table[j].Count
	})
	return table
}

// Total is the sum of every count.
func (t Table) Total() int {
	total := 0
	for _, e := range t {
		total += e.Count
	}
	return total
}

// Top returns at most `n` of the most frequent entries.
func (t Table) Top(n int) Table {
	if n < 0 || n >= len(t) {
		return t
	}
	return t[:n]
}

func (t Table) Map() map[string]int {
	out := make(map[string]int, len(t))
	for _, e := range t {
		out[e.Token] = e.Count
	}
	return out
}
