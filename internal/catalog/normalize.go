package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery folds a human-typed search into its canonical cache
// form: Unicode compatibility composition, case folding, and collapsed
// whitespace. "  Café  LATTE " and "café latte" land on the same
// cache key. A Caser is stateful, so a fresh one is built per call.
func NormalizeQuery(q string) string {
	q = norm.NFKC.String(q)
	q = cases.Fold().String(q)
	return strings.Join(strings.Fields(q), " ")
}
