package browser

import (
	"regexp"
	"strings"
)

// CompileGlob converts a URL glob into a regular expression that matches whole URLs, using the
// same rules as Playwright: "**" matches any characters including "/", "*" matches any
// characters except "/", "?" matches one character, and "{a,b}" matches either alternative.
// A glob with no scheme and no leading wildcard matches the end of the URL path, so
// "/api/feedback" matches "http://host/api/feedback".
func CompileGlob(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	if !strings.Contains(glob, "://") && !strings.HasPrefix(glob, "*") {
		b.WriteString(`(?:[a-z][a-z0-9+.-]*://[^/]*)?`)
	}
	inGroup := false
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString(".")
		case '{':
			inGroup = true
			b.WriteString("(?:")
		case '}':
			if inGroup {
				inGroup = false
				b.WriteString(")")
			} else {
				b.WriteString(`\}`)
			}
		case ',':
			if inGroup {
				b.WriteString("|")
			} else {
				b.WriteString(",")
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`(?:\?.*)?$`)
	return regexp.Compile(b.String())
}
