package templates

import "github.com/hoisie/mustache"

// MustacheMust parses s or panics, for package level templates.
func MustacheMust(s string) *mustache.Template {
	t, err := mustache.ParseString(s)
	if err != nil {
		panic(err)
	}
	return t
}
