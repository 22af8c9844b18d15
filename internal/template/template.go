// Package template expands destination-path templates from a closed set of
// placeholders. Placeholders resolve through an explicit token table built
// from the file snapshot and regex captures; there is no reflection and no
// fallthrough for unknown names.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sfo-dev/sfo/internal/core/types"
)

// ErrUnknownPlaceholder indicates a placeholder with no binding. The
// planner routes the affected file to the fallback error bucket.
var ErrUnknownPlaceholder = errors.New("unknown template placeholder")

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// noExt is the {ext} expansion for extensionless files, so they still get
// a stable bucket instead of an empty path segment.
const noExt = "noext"

// Resolve expands tmpl into a relative destination path, file name
// included. A template ending in "/" keeps the original base name.
// captures may be nil for non-regex rules.
func Resolve(tmpl string, rec types.FileRecord, captures map[string]string) (string, error) {
	tokens := tokenTable(rec)

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := tokens[key]; ok {
			return v
		}
		if v, ok := captures[key]; ok {
			return v
		}
		missing = append(missing, key)
		return m
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: {%s} in %q", ErrUnknownPlaceholder, strings.Join(missing, "}, {"), tmpl)
	}

	if strings.HasSuffix(out, "/") {
		out += tokens["name"]
	}
	return out, nil
}

func tokenTable(rec types.FileRecord) map[string]string {
	ext := rec.Ext
	if ext == "" {
		ext = noExt
	}
	name := rec.Name
	if rec.Ext != "" {
		name = rec.Name + "." + rec.Ext
	}

	return map[string]string{
		"name": name,
		"stem": rec.Name,
		"ext":  ext,
		"yyyy": fmt.Sprintf("%04d", rec.ModTime.Year()),
		"mm":   fmt.Sprintf("%02d", int(rec.ModTime.Month())),
		"dd":   fmt.Sprintf("%02d", rec.ModTime.Day()),
	}
}

// Placeholders lists the fixed token names, for validation and docs.
func Placeholders() []string {
	return []string{"name", "stem", "ext", "yyyy", "mm", "dd"}
}
