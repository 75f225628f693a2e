package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	result, err := URL(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "<html>hello</html>", result.HTML())
	assert.Equal(t, "text/html", result.ContentType)
}

func TestURL_NotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := URL(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.False(t, fe.Transient)
}

func TestURL_RateLimitedIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	result, err := URL(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.HTML())
	assert.Equal(t, int32(2), hits.Load())
}

func TestURL_Invalid(t *testing.T) {
	_, err := URL(context.Background(), "not-a-url", nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "invalid URL")
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
		<nav>menu</nav>
		<div class="job-description">Build <b>Go</b> services.</div>
		<footer>legal</footer>
	</body></html>`

	text, err := ExtractMainText(html, []string{".job-description", "article"})
	require.NoError(t, err)
	assert.Equal(t, "Build Go services.", text)
	assert.NotContains(t, text, "menu")
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	text, err := ExtractMainText("<html><body><p>plain posting</p></body></html>", []string{".missing"})
	require.NoError(t, err)
	assert.Equal(t, "plain posting", text)
}

func TestExtractMainText_NoiseSelectors(t *testing.T) {
	html := `<body><div class="apply-widget">Apply now</div><p>role text</p></body>`
	text, err := ExtractMainText(html, nil, ".apply-widget")
	require.NoError(t, err)
	assert.Equal(t, "role text", text)
}

func TestCleanWhitespace(t *testing.T) {
	assert.Equal(t, "a\nb", cleanWhitespace("  a  \n\n\t\n b \n"))
}
