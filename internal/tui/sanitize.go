package tui

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// clean strips markup the web client may have let through and folds the
// text onto one line so a message cannot forge extra screen rows.
func clean(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
