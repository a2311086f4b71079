// Package ranking scores catalog entries against an extracted keyword string
// using order-independent token overlap, then applies per-bucket thresholds
// and result caps.
package ranking

import (
	"sort"
	"strings"
	"unicode"
)

// TokenSetRatio returns a 0-100 similarity score between two strings. Both
// sides are lowercased and split on non-alphanumeric runes, then compared as
// token sets: the shared tokens form a common prefix of both remainders, so
// strings that share most of their vocabulary score high regardless of word
// order or repetition.
func TokenSetRatio(a, b string) int {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := ratio(sect, combinedA)
	if r := ratio(sect, combinedB); r > best {
		best = r
	}
	if r := ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// ratio is the classic edit-distance similarity: substitutions cost 2, so the
// result equals 2*matches/(len(a)+len(b)) scaled to 0-100.
func ratio(a, b string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	total := len(a) + len(b)
	dist := editDistance(a, b)
	return int(float64(total-dist)/float64(total)*100 + 0.5)
}

func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub += 2
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			m := sub
			if del < m {
				m = del
			}
			if ins < m {
				m = ins
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
