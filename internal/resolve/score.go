package resolve

import (
	"math"
	"sort"
	"strings"
)

// TokenSortRatio scores two normalized names in [0, 100]. Each input is
// split on whitespace, its tokens sorted and rejoined, so word order never
// affects the score; the sorted strings are then compared with an indel
// ratio over runes:
//
//	ratio = round(200 * lcs(a, b) / (len(a) + len(b)))
//
// Equal non-empty inputs score 100. An empty side always scores 0, even
// against another empty string.
func TokenSortRatio(a, b string) int {
	sa := sortTokens(a)
	sb := sortTokens(b)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 100
	}
	ra := []rune(sa)
	rb := []rune(sb)
	common := lcsLen(ra, rb)
	return int(math.Round(200 * float64(common) / float64(len(ra)+len(rb))))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// lcsLen computes the longest-common-subsequence length with a two-row DP.
func lcsLen(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
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
