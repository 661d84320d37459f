package local

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Augmenter answers augmentation requests without a remote model: contexts are
// frequency-ranked sentences of the document context plus the chunk's top terms.
type Augmenter struct {
	maxSentences int
	maxKeywords  int
}

// NewAugmenter creates an offline augmenter.
func NewAugmenter() *Augmenter {
	return &Augmenter{maxSentences: 2, maxKeywords: 8}
}

// DescribeTable names the columns of the sample's first line and its row count.
func (a *Augmenter) DescribeTable(ctx context.Context, sample string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(sample), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "Empty table.", nil
	}
	desc := fmt.Sprintf("Table with columns: %s.", lines[0])
	if rows := len(lines) - 1; rows > 0 {
		desc += fmt.Sprintf(" Sample of %d rows.", rows)
	}
	if kw := keywords(strings.Join(lines[1:], " "), a.maxKeywords); len(kw) > 0 {
		desc += " Values include " + strings.Join(kw, ", ") + "."
	}
	return desc, nil
}

func (a *Augmenter) Contextualize(ctx context.Context, docContext, chunk string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	parts := make([]string, 0, 2)
	if s := summarize(docContext, a.maxSentences); s != "" {
		parts = append(parts, s)
	}
	if kw := keywords(chunk, a.maxKeywords); len(kw) > 0 {
		parts = append(parts, "Keywords: "+strings.Join(kw, ", ")+".")
	}
	return strings.Join(parts, " "), nil
}

// summarize returns up to maxSentences sentences ranked by normalized token
// frequency, kept in their original order.
func summarize(text string, maxSentences int) string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokenize(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := tokenize(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok] / maxF
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

// keywords returns the n most frequent tokens, ties broken alphabetically.
func keywords(text string, n int) []string {
	counts := map[string]int{}
	for _, tok := range tokenize(text) {
		counts[tok]++
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
