package orchestrator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// continuationKeywords are the inputs that ask for more of the previous
// results instead of starting a new search.
var continuationKeywords = []string{
	"다음", "더", "더 보여줘", "계속", "이어서", "다음거", "다음꺼", "다른거", "다른 거", "또",
	"next", "more", "continue", "show more",
	"tiếp", "thêm", "xem thêm", "nữa", "tiếp tục",
	"更多", "继续", "下", "下一个", "还有吗",
}

var continuationSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(continuationKeywords))
	for _, k := range continuationKeywords {
		set[normalizeInput(k)] = struct{}{}
	}
	return set
}()

// normalizeInput applies NFKC, case folding and whitespace collapsing so
// that "Show  More", full-width letters and decomposed Vietnamese all match.
func normalizeInput(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsContinuation reports whether input is a request for more results.
func IsContinuation(input string) bool {
	_, ok := continuationSet[normalizeInput(input)]
	return ok
}
