package question

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	fileTokenRe   = regexp.MustCompile(`\b\w+\.\w+\b`)
	numberTokenRe = regexp.MustCompile(`\b\d+\b`)
)

// questionConcepts is the fixed concept set used for the semantic
// component of question similarity.
var questionConcepts = []string{
	"file", "directory", "path", "name", "create", "edit", "delete",
	"install", "configure", "setup", "permission", "access",
	"framework", "library", "package", "version", "option",
	"choice", "select", "confirm", "proceed", "continue",
}

// SameQuestion reports whether two question texts are near-duplicates.
// An exact match (after trimming and lowercasing) short-circuits to
// 1.0; otherwise four similarity measures are combined with fixed
// weights and compared against the configured threshold.
func (t *Tracker) SameQuestion(a, b string) (bool, float64, string) {
	if a == "" || b == "" {
		return false, 0, "empty_question"
	}

	qa := strings.ToLower(strings.TrimSpace(a))
	qb := strings.ToLower(strings.TrimSpace(b))
	if qa == qb {
		return true, 1.0, "exact_match"
	}

	score := t.similarity(qa, qb)
	return score >= t.vocab.SimilarityThreshold, score, t.similarityReason(score)
}

// similarity combines sequence alignment, word overlap, extracted
// pattern overlap, and concept overlap. Weights sum to 1.
func (t *Tracker) similarity(a, b string) float64 {
	return sequenceSimilarity(a, b)*0.3 +
		jaccard(wordSet(a), wordSet(b), 0.0)*0.3 +
		jaccard(t.extractPatterns(a), t.extractPatterns(b), 0.5)*0.2 +
		jaccard(extractConcepts(a), extractConcepts(b), 0.5)*0.2
}

func (t *Tracker) similarityReason(score float64) string {
	switch {
	case score >= t.vocab.SimilarityHigh:
		return "high_similarity"
	case score >= t.vocab.SimilarityMedium:
		return "medium_similarity"
	case score >= t.vocab.SimilarityLow:
		return "low_similarity"
	default:
		return "different_questions"
	}
}

// sequenceSimilarity is a normalized edit-distance ratio in [0, 1].
func sequenceSimilarity(a, b string) float64 {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, true)
	dist := dmp.DiffLevenshtein(diffs)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// jaccard is intersection over union of two sets. When both sets are
// empty the comparison is uninformative and bothEmpty is returned;
// when exactly one is empty the sets are maximally different.
func jaccard(a, b map[string]struct{}, bothEmpty float64) float64 {
	if len(a) == 0 && len(b) == 0 {
		return bothEmpty
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		set[w] = struct{}{}
	}
	return set
}

// extractPatterns collects file-name tokens, numbers, and any of the
// configured keyword phrases present in the text.
func (t *Tracker) extractPatterns(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range fileTokenRe.FindAllString(text, -1) {
		set[m] = struct{}{}
	}
	for _, m := range numberTokenRe.FindAllString(text, -1) {
		set[m] = struct{}{}
	}
	for _, group := range [][]string{
		t.vocab.HighConfidence, t.vocab.MediumConfidence, t.vocab.LowConfidence,
		t.vocab.FileOperations, t.vocab.Permissions, t.vocab.Configuration,
	} {
		for _, phrase := range group {
			if strings.Contains(text, strings.ToLower(phrase)) {
				set[phrase] = struct{}{}
			}
		}
	}
	return set
}

func extractConcepts(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range questionConcepts {
		if strings.Contains(text, c) {
			set[c] = struct{}{}
		}
	}
	return set
}
