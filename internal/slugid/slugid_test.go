package slugid

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"John Doe":          "john-doe",
		"  Amoxicillin 500": "amoxicillin-500",
		"B12 / Folate!!":    "b12-folate",
		"---":               "",
		"":                  "",
		"ALLCAPS":           "allcaps",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestNew_Format(t *testing.T) {
	slug := New("John Doe")
	assert.Regexp(t, regexp.MustCompile(`^john-doe-[a-z0-9]{6}$`), slug)
}

func TestNew_EmptyLabel(t *testing.T) {
	slug := New("!!!")
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{6}$`), slug)
}

func TestNew_RegeneratedEveryCall(t *testing.T) {
	// The suffix is fresh on each save; two slugs for the same label must
	// not collide in practice.
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := New("lead")
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
}

func TestCode(t *testing.T) {
	code := Code()
	assert.Len(t, code, 32)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), code)
	assert.Equal(t, strings.ToUpper(code), code)
	assert.NotEqual(t, code, Code())
}
