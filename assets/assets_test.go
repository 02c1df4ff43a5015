package assets

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	page, err := Build("GeoVis Lite")
	require.NoError(t, err)

	index := string(page.Index)
	assert.Contains(t, index, "<title>GeoVis Lite</title>")
	assert.Contains(t, index, "geometryInput")
	assert.Contains(t, index, "/api/input")
	assert.NotContains(t, index, "{{")
	assert.Less(t, len(page.Index), len(indexTemplate)+len(styleCSS)+len(scriptJS))

	assert.True(t, strings.HasPrefix(string(page.Favicon), "<svg"))
}

func TestScriptSerializesRequests(t *testing.T) {
	// every state request goes through the queue, so responses apply in event order
	assert.Contains(t, scriptJS, "queue.then(() => request(method, path, body))")
	assert.Equal(t, 1, strings.Count(scriptJS, "await fetch(path"))
	for _, path := range []string{"/api/input", "/api/format", "/api/projection", "/api/zoom", "/api/base-layer/toggle"} {
		assert.Regexp(t, `send\("[A-Z]+", "`+regexp.QuoteMeta(path)+`"`, scriptJS)
	}
}
