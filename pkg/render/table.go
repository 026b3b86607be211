package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/modmap/pkg/dag/transform"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/session"
)

// TableRow is one module line of the table view.
type TableRow struct {
	Code        string
	Title       string
	Term        string
	Groups      []string
	Prereqs     string
	RequiredFor []string
	Syllabus    string
	Lead        string
}

// TableLevel is one level bucket of the table view. HasGroups is set when
// any row carries a group, and only then is the group column shown.
type TableLevel struct {
	ID        string
	Label     string
	Notice    string
	Err       error
	HasGroups bool
	Rows      []TableRow
}

// Table builds the table view of the session's visible modules.
func Table(s *session.Session) []TableLevel {
	var out []TableLevel
	for _, lv := range s.Index().Levels() {
		tl := TableLevel{ID: "level-" + lv.Key.String(), Label: lv.Key.Label(), Err: lv.Err}
		if lv.Err != nil {
			tl.Notice = CycleNotice(tl.Label, lv.Err)
			out = append(out, tl)
			continue
		}
		for _, code := range lv.Codes {
			if !s.Visible(code) {
				continue
			}
			c, ok := s.Card(code)
			if !ok {
				continue
			}
			row := TableRow{
				Code:        code,
				Title:       c.Module.Title,
				Term:        string(c.Module.Term),
				Groups:      c.Module.Groups,
				Prereqs:     c.Prereqs,
				RequiredFor: c.RequiredFor,
				Syllabus:    c.Syllabus,
				Lead:        c.Module.Lead,
			}
			if len(row.Groups) > 0 {
				tl.HasGroups = true
			}
			tl.Rows = append(tl.Rows, row)
		}
		if len(tl.Rows) > 0 {
			out = append(out, tl)
		}
	}
	return out
}

// CycleNotice describes a level that could not be ordered, naming the
// modules left on or behind the cycle.
func CycleNotice(label string, err error) string {
	var ce *transform.CycleError
	if errors.As(err, &ce) {
		return fmt.Sprintf("Cannot order %s: prerequisite cycle among %s", label, strings.Join(ce.Remaining, ", "))
	}
	return fmt.Sprintf("Cannot order %s: %s", label, errs.UserMessage(err))
}

// RenderTable writes the table view as an HTML page.
func RenderTable(s *session.Session, w io.Writer, opts HTMLOptions) error {
	return templates.ExecuteTemplate(w, "table", struct {
		Title  string
		Levels []TableLevel
	}{opts.title(), Table(s)})
}
