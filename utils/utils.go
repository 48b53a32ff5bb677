package utils

import (
	"strings"
)

// NameFromSlug turns a URL slug like "data-science" into "data science".
func NameFromSlug(slug string) string {
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}
