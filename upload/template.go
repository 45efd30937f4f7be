package upload

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	modelPlaceholder     = "[[model]]"
	attributePlaceholder = "[[attribute]]"
)

var nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9\-]+`)

// Slugify lower-cases v, turns every run of characters outside [A-Za-z0-9-] into "-"
// and trims leading and trailing dashes.
func Slugify(v string) string {
	return strings.Trim(strings.ToLower(nonSlugChars.ReplaceAllString(v, "-")), "-")
}

func lcfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// replaceColumns substitutes every {column} token of tmpl with the slug of its value.
func replaceColumns(tmpl string, values map[string]string) string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	pairs := make([]string, 0, len(columns)*2)
	for _, column := range columns {
		pairs = append(pairs, "{"+column+"}", Slugify(values[column]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// replaceNames substitutes the [[model]] and [[attribute]] placeholders.
func replaceNames(tmpl, model, attribute string) string {
	return strings.NewReplacer(
		modelPlaceholder, lcfirst(model),
		attributePlaceholder, lcfirst(attribute),
	).Replace(tmpl)
}

// resolveAlias expands a leading "@alias" segment. "@webroot" and "@web" always
// point at the storage root.
func resolveAlias(p string, aliases map[string]string) (string, error) {
	if !strings.HasPrefix(p, "@") {
		return p, nil
	}

	name, rest := p[1:], ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name, rest = name[:i], name[i:]
	}

	if target, ok := aliases[name]; ok {
		return target + rest, nil
	}
	switch name {
	case "webroot", "web":
		return rest, nil
	}
	return "", fmt.Errorf("%w: @%s", ErrUnknownAlias, name)
}

// normalizePath collapses duplicate separators and dot segments into a rooted slash path.
func normalizePath(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

// thumbPath inserts a profile directory in front of the file name.
func thumbPath(p, profile string) string {
	dir, file := path.Split(p)
	return dir + profile + "/" + file
}

func joinURL(base, p string) string {
	if base == "" {
		return p
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
