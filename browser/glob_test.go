package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileGlob(t *testing.T) {
	cases := []struct {
		glob    string
		url     string
		matches bool
	}{
		{"**/*", "http://localhost:3000/api/feedback", true},
		{"**/api/feedback", "http://localhost:3000/api/feedback", true},
		{"**/api/feedback", "http://localhost:3000/api/feedback?draft=1", true},
		{"**/api/feedback", "http://localhost:3000/api/feedbacks", false},
		{"**/api/*", "http://localhost:3000/api/organizations", true},
		{"**/api/*", "http://localhost:3000/api/organizations/42", false},
		{"**/api/**", "http://localhost:3000/api/organizations/42", true},
		{"/api/feedback", "http://localhost:3000/api/feedback", true},
		{"/api/feedback", "http://localhost:3000/v2/api/feedback", false},
		{"http://localhost:3000/api/{feedback,organizations}", "http://localhost:3000/api/organizations", true},
		{"**/img?.png", "http://cdn/img1.png", true},
	}
	for _, c := range cases {
		rx, err := CompileGlob(c.glob)
		require.NoError(t, err)
		assert.Equal(t, c.matches, rx.MatchString(c.url), "glob %q against %q", c.glob, c.url)
	}
}
