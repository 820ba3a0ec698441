// Package mapping suggests and applies source-column to CRM-field
// mappings for imported files.
package mapping

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rpattn/crmimport/internal/catalog"
	"github.com/rpattn/crmimport/internal/domain"
)

// MinConfidence is the floor below which no mapping is auto-suggested.
const MinConfidence = 0.6

// Scoring ladder weights, strongest signal first.
const (
	weightExact       = 1.0
	weightAliasExact  = 0.95
	weightContains    = 0.85
	weightLevenshtein = 0.75
	weightSimilarText = 0.65
	weightWordOverlap = 0.55
	weightSemantic    = 0.45
)

// Suggest scores every source column against the field catalog and
// returns the best candidate per column plus up to five alternatives.
func Suggest(sourceColumns []string) []domain.SuggestedMapping {
	targets := catalog.TargetKeys()
	suggestions := make([]domain.SuggestedMapping, 0, len(sourceColumns))

	for _, column := range sourceColumns {
		best := ""
		bestScore := 0.0
		bestMethod := ""
		var candidates []domain.MappingAlternative

		for _, target := range targets {
			score, method := matchScore(column, target)
			if score > 0.3 {
				candidates = append(candidates, domain.MappingAlternative{
					TargetField: target,
					Confidence:  round3(score),
				})
			}
			if score > bestScore && score >= MinConfidence {
				bestScore = score
				best = target
				bestMethod = method
			}
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Confidence > candidates[j].Confidence
		})
		if len(candidates) > 5 {
			candidates = candidates[:5]
		}

		suggestions = append(suggestions, domain.SuggestedMapping{
			SourceColumn: column,
			TargetField:  best,
			Confidence:   round3(bestScore),
			Method:       bestMethod,
			Alternatives: candidates,
		})
	}
	return suggestions
}

// matchScore rates one column against one target field. The ladder is
// exclusive at the top (exact and alias hits return immediately) and
// takes the best of the fuzzy signals below.
func matchScore(sourceColumn, targetField string) (float64, string) {
	source := normalizeForMatching(sourceColumn)
	target := normalizeForMatching(targetField)
	if source == "" {
		return 0, ""
	}
	if source == target {
		return weightExact, "exact"
	}

	bestScore := 0.0
	bestMethod := ""
	consider := func(score float64, method string) {
		if score > bestScore {
			bestScore = score
			bestMethod = method
		}
	}

	for index, alias := range aliasesFor(targetField) {
		normalizedAlias := normalizeForMatching(alias)

		if source == normalizedAlias {
			bonus := 0.04 - float64(index)*0.003
			if bonus < 0 {
				bonus = 0
			}
			return weightAliasExact + bonus, "alias"
		}

		if len(normalizedAlias) >= 4 && len(source) >= 4 {
			if strings.Contains(source, normalizedAlias) {
				ratio := float64(len(normalizedAlias)) / float64(len(source))
				consider(weightContains*ratio, "contains")
			}
			if strings.Contains(normalizedAlias, source) {
				ratio := float64(len(source)) / float64(len(normalizedAlias))
				consider(weightContains*ratio, "contains")
			}
		}

		if score := editSimilarity(source, normalizedAlias); score > 0.65 {
			consider(weightLevenshtein*score, "levenshtein")
		}

		if pct := similarTextPercent(source, normalizedAlias); pct > 65 {
			consider(weightSimilarText*(pct/100), "similar")
		}

		if overlap := wordOverlap(source, normalizedAlias); overlap > 0.4 {
			consider(weightWordOverlap*overlap, "word_overlap")
		}
	}

	if score := semanticScore(source, targetField); score > 0 {
		consider(weightSemantic*score, "semantic")
	}

	return bestScore, bestMethod
}

// editSimilarity blends the Levenshtein ratio with the common-character
// ratio so that transposed word orders are not over-penalized.
func editSimilarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	levScore := 1 - float64(distance)/float64(maxLen)
	overlap := similarTextPercent(a, b) / 100
	return (levScore + overlap) / 2
}

// similarTextPercent reports the shared-character percentage computed
// over recursive longest common substrings.
func similarTextPercent(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	common := commonChars(a, b)
	return float64(common) * 200 / float64(total)
}

func commonChars(a, b string) int {
	posA, posB, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	sum := length
	sum += commonChars(a[:posA], b[:posB])
	sum += commonChars(a[posA+length:], b[posB+length:])
	return sum
}

func longestCommonSubstring(a, b string) (int, int, int) {
	bestA, bestB, bestLen := 0, 0, 0
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > bestLen {
				bestA, bestB, bestLen = i, j, k
			}
		}
	}
	return bestA, bestB, bestLen
}

func wordOverlap(a, b string) float64 {
	wordsA := splitWords(a)
	wordsB := splitWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	union := make(map[string]bool, len(wordsA)+len(wordsB))
	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		union[w] = true
		setA[w] = true
	}
	intersection := 0
	counted := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		union[w] = true
		if setA[w] && !counted[w] {
			intersection++
			counted[w] = true
		}
	}
	return float64(intersection) / float64(len(union))
}

var wordSplitPattern = regexp.MustCompile(`[\s_]+`)

func splitWords(s string) []string {
	parts := wordSplitPattern.Split(s, -1)
	words := parts[:0]
	for _, part := range parts {
		if part != "" {
			words = append(words, part)
		}
	}
	return words
}

// semanticScore checks whether the source column shares domain
// vocabulary with the target field's group.
func semanticScore(normalizedSource, targetField string) float64 {
	var keywords []string
	for _, group := range []string{
		"identity", "contact", "professional", "family", "health",
		"prevoyance", "retraite", "epargne", "immobilier", "credit", "fiscal",
	} {
		for _, keyword := range semanticGroups[group] {
			if strings.Contains(targetField, keyword) {
				keywords = semanticGroups[group]
				break
			}
		}
		if keywords != nil {
			break
		}
	}
	if keywords == nil {
		return 0
	}

	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(normalizedSource, keyword) {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	score := float64(matches) / 2
	if score > 1 {
		score = 1
	}
	return score
}

var (
	nonMatchable  = regexp.MustCompile(`[^a-z0-9\s_]`)
	spaceCollapse = regexp.MustCompile(`[\s_]+`)
	deaccenter    = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// normalizeForMatching folds a header to lowercase ascii words so
// "Prénom  Conjoint" and "prenom_conjoint" compare equal.
func normalizeForMatching(value string) string {
	lowered := strings.ToLower(value)
	if ascii, _, err := transform.String(deaccenter, lowered); err == nil {
		lowered = ascii
	}
	lowered = nonMatchable.ReplaceAllString(lowered, "")
	lowered = spaceCollapse.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(lowered)
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
