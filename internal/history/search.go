package history

import "github.com/sahilm/fuzzy"

// Match is a search hit. Indexes are the matched rune positions in the
// item's content.
type Match struct {
	Item    Item
	Score   int
	Indexes []int
}

type textSource []Item

func (s textSource) String(i int) string { return s[i].Content }
func (s textSource) Len() int            { return len(s) }

// Search fuzzy-matches query against the text entries of items, best match
// first. An empty query returns every text entry in the given order.
func Search(items []Item, query string) []Match {
	var texts textSource
	for _, it := range items {
		if it.Kind == KindText {
			texts = append(texts, it)
		}
	}

	if query == "" {
		out := make([]Match, len(texts))
		for i, it := range texts {
			out[i] = Match{Item: it}
		}
		return out
	}

	found := fuzzy.FindFrom(query, texts)
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{Item: texts[m.Index], Score: m.Score, Indexes: m.MatchedIndexes}
	}
	return out
}
