package catalog

import (
	"strings"
	"unicode"

	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/observability"
)

// DefaultSearchPrefix is prepended to purely numeric queries.
const DefaultSearchPrefix = "MATH"

// NormalizeQuery turns a search box entry into a module code. The query is
// trimmed and upper-cased; a query without letters is zero-padded to four
// digits and given prefix, so "5" becomes "MATH0005".
func NormalizeQuery(query, prefix string) string {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return ""
	}
	if strings.IndexFunc(q, unicode.IsLetter) >= 0 {
		return q
	}
	if len(q) < 4 {
		q = strings.Repeat("0", 4-len(q)) + q
	}
	return prefix + q
}

// Search resolves a query to a module code of the active dataset.
func (ix *Index) Search(query, prefix string) (string, error) {
	code := NormalizeQuery(query, prefix)
	if code == "" {
		return "", errs.New(errs.ErrCodeInvalidInput, "empty search")
	}
	found := ix.Has(code)
	observability.Catalog().OnSearch(found)
	if !found {
		return "", errs.Wrap(errs.ErrCodeModuleNotFound, ErrModuleNotFound, "could not find module %s", code)
	}
	return code, nil
}
