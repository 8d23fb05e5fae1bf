package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	unbaseScale       = 0.95
	partialScale      = 0.9
	longPartialScale  = 0.6
	longPartialCutoff = 8.0
	tokenRatioCutoff  = 1.5
)

// Process prepares a string for scoring: NFKC, lowercase, every rune that is
// not a letter or digit becomes a space, and whitespace is collapsed.
func Process(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Ratio is the normalized Indel similarity of two strings in [0,100].
func Ratio(s1, s2 string) float64 {
	return ratioRunes([]rune(s1), []rune(s2))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLength(a, b)) / float64(total)
}

// lcsLength returns the length of the longest common subsequence.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// PartialRatio scores the shorter string against the best aligned window of
// the longer one, including windows that hang off either end.
func PartialRatio(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	if len(a) > len(b) {
		a, b = b, a
	}
	m, n := len(a), len(b)
	if m == 0 {
		if n == 0 {
			return 100
		}
		return 0
	}

	best := 0.0
	consider := func(window []rune) bool {
		if score := ratioRunes(a, window); score > best {
			best = score
		}
		return best == 100
	}

	for i := 0; i+m <= n; i++ {
		if consider(b[i : i+m]) {
			return best
		}
	}
	for k := 1; k < m && k <= n; k++ {
		if consider(b[:k]) || consider(b[n-k:]) {
			return best
		}
	}
	return best
}

func tokenize(s string) []string {
	return strings.Fields(s)
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func setKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

// splitSets returns the sorted intersection and the two sorted differences.
func splitSets(s1, s2 string) (sect, diffAB, diffBA []string) {
	a := tokenSet(tokenize(s1))
	b := tokenSet(tokenize(s2))
	for t := range a {
		if _, ok := b[t]; ok {
			sect = append(sect, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			diffBA = append(diffBA, t)
		}
	}
	sort.Strings(sect)
	sort.Strings(diffAB)
	sort.Strings(diffBA)
	return sect, diffAB, diffBA
}

// TokenSortRatio compares the strings after sorting their words.
func TokenSortRatio(s1, s2 string) float64 {
	return Ratio(sortedJoin(tokenize(s1)), sortedJoin(tokenize(s2)))
}

// TokenSetRatio compares the shared words against each side's remainder.
// One side being a word subset of the other scores 100.
func TokenSetRatio(s1, s2 string) float64 {
	if len(tokenize(s1)) == 0 || len(tokenize(s2)) == 0 {
		return 0
	}
	sect, diffAB, diffBA := splitSets(s1, s2)
	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	base := strings.Join(sect, " ")
	withAB := joinNonEmpty(base, strings.Join(diffAB, " "))
	withBA := joinNonEmpty(base, strings.Join(diffBA, " "))

	best := Ratio(withAB, withBA)
	if base == "" {
		return best
	}
	return max(best, Ratio(base, withAB), Ratio(base, withBA))
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// TokenRatio is the better of TokenSortRatio and TokenSetRatio.
func TokenRatio(s1, s2 string) float64 {
	return max(TokenSortRatio(s1, s2), TokenSetRatio(s1, s2))
}

// PartialTokenRatio applies PartialRatio to the sorted distinct words and to
// the sorted differences. Any shared word scores 100.
func PartialTokenRatio(s1, s2 string) float64 {
	setA, setB := tokenSet(tokenize(s1)), tokenSet(tokenize(s2))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	sect, diffAB, diffBA := splitSets(s1, s2)
	if len(sect) > 0 {
		return 100
	}

	result := PartialRatio(sortedJoin(setKeys(setA)), sortedJoin(setKeys(setB)))
	if len(setA) == len(diffAB) && len(setB) == len(diffBA) {
		return result
	}
	return max(result, PartialRatio(strings.Join(diffAB, " "), strings.Join(diffBA, " ")))
}

// WRatio combines the other scorers, weighting partial scorers down as the
// length difference between the strings grows. Empty input scores 0.
func WRatio(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	len1, len2 := len([]rune(s1)), len([]rune(s2))
	lenRatio := float64(max(len1, len2)) / float64(min(len1, len2))

	end := Ratio(s1, s2)
	if lenRatio < tokenRatioCutoff {
		return max(end, TokenRatio(s1, s2)*unbaseScale)
	}

	scale := partialScale
	if lenRatio >= longPartialCutoff {
		scale = longPartialScale
	}
	end = max(end, PartialRatio(s1, s2)*scale)
	return max(end, PartialTokenRatio(s1, s2)*unbaseScale*scale)
}
