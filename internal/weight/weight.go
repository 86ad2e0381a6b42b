package weight

import (
	"fmt"
	"strings"
)

// Strategy scores a topic name with an estimated study effort.
type Strategy interface {
	Weight(topic string) float64
}

// KeywordTable maps lowercase keyword substrings to a complexity tier.
type KeywordTable map[string]int

// DefaultKeywords is the built-in complexity table.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		"asymptotic notations": 3,
		"searching algorithms": 2,
		"sorting algorithms":   2,
		"graph algorithms":     3,
		"binary search":        2,
		"exponential search":   2,
		"recursion":            3,
		"dynamic programming":  3,
		"greedy":               2,
		"dijkstra":             3,
		"bellman ford":         3,
		"master theorem":       3,
		"complexity":           2,
	}
}

// KeywordComplexity weighs a topic by the highest tier among the keywords
// it contains. Topics matching nothing weigh 1.
type KeywordComplexity struct {
	Table KeywordTable
}

// NewKeywordComplexity returns a strategy over table, or the defaults when table is empty.
func NewKeywordComplexity(table KeywordTable) *KeywordComplexity {
	if len(table) == 0 {
		table = DefaultKeywords()
	}
	normalized := make(KeywordTable, len(table))
	for k, tier := range table {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			normalized[k] = tier
		}
	}
	return &KeywordComplexity{Table: normalized}
}

func (k *KeywordComplexity) Weight(topic string) float64 {
	lower := strings.ToLower(topic)
	best := 1
	for kw, tier := range k.Table {
		if tier > best && strings.Contains(lower, kw) {
			best = tier
		}
	}
	return float64(best)
}

// WordCount weighs a topic by the number of words in its name.
type WordCount struct{}

func (WordCount) Weight(topic string) float64 {
	n := len(strings.Fields(topic))
	if n < 1 {
		n = 1
	}
	return float64(n)
}

// Strategy names accepted by ForName.
const (
	Keyword = "keyword"
	Length  = "length"
)

// ForName returns the strategy registered under name. table is only used by
// the keyword strategy.
func ForName(name string, table KeywordTable) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Keyword:
		return NewKeywordComplexity(table), nil
	case Length:
		return WordCount{}, nil
	default:
		return nil, fmt.Errorf("unknown weight strategy %q", name)
	}
}

// Assign scores every topic with s. Weights below 1 are raised to 1 so no
// topic can end up with zero or negative study time.
func Assign(s Strategy, topics []string) []float64 {
	weights := make([]float64, len(topics))
	for i, t := range topics {
		w := s.Weight(t)
		if !(w >= 1) {
			w = 1
		}
		weights[i] = w
	}
	return weights
}
