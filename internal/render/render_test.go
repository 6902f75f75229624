package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLRendersMarkdown(t *testing.T) {
	out := HTML("**Day 1:** Lisbon\n\n- Tram 28\n- Belem")
	assert.Contains(t, out, "<strong>Day 1:</strong>")
	assert.Contains(t, out, "<li>Tram 28</li>")
}

func TestHTMLRendersTables(t *testing.T) {
	out := HTML("| day | city |\n|---|---|\n| 1 | Lima |")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Lima</td>")
}

func TestHTMLStripsScripts(t *testing.T) {
	out := HTML("hello <script>alert(1)</script> <img src=x onerror=alert(1)> [x](javascript:alert(1))")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "hello")
}

func TestUnsafeHTMLKeepsRawHTML(t *testing.T) {
	out := UnsafeHTML("<b onclick=\"x()\">hi</b>")
	assert.Contains(t, out, "onclick")
}

func TestHTMLLinksGetNoFollow(t *testing.T) {
	out := HTML("[site](https://example.com)")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "nofollow")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;", Escape(`<script>alert("x")</script>`))
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Title\n\nSome *text*.", "notty", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
	assert.False(t, strings.HasSuffix(out, "\n"))

	before := PoolSize()
	_, err = Terminal("again", "notty", 40)
	require.NoError(t, err)
	assert.Equal(t, before, PoolSize())
}
