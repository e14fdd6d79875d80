package htmlmin

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns the shared HTML minifier. Quotes, end tags and
// default attribute values are kept so component markup such as
// <component is="x" inline-template v-cloak> survives untouched.
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepQuotes:          true,
			KeepEndTags:         true,
			KeepDefaultAttrVals: true,
			KeepDocumentTags:    true,
		})
	})
	return minifier
}

// HTML minifies rendered markup. Text without tags only has its whitespace
// normalized; on a minifier error the input is returned unchanged.
func HTML(content string) string {
	if !strings.Contains(content, "<") {
		return strings.Join(strings.Fields(content), " ")
	}
	out, err := getMinifier().String("text/html", content)
	if err != nil {
		return content
	}
	return out
}
