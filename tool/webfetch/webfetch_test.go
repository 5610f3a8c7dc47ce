package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hupe1980/archivist/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Frankie Knuckles biography</body></html>"))
	}))
	t.Cleanup(srv.Close)

	ft := New(func(o *Options) { o.HTTPClient = srv.Client() })

	payload, err := ft.Invoke(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)

	page := payload.(map[string]any)
	assert.Contains(t, page["content"], "Frankie Knuckles")
	assert.Contains(t, page["content_type"], "text/html")
	assert.Equal(t, false, page["truncated"])
}

func TestFetchTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 1024)))
	}))
	t.Cleanup(srv.Close)

	ft := New(func(o *Options) {
		o.HTTPClient = srv.Client()
		o.MaxBodyBytes = 64
	})

	payload, err := ft.Invoke(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)

	page := payload.(map[string]any)
	assert.Len(t, page["content"], 64)
	assert.Equal(t, true, page["truncated"])
}

func TestFetchExactLimitNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("b", 64)))
	}))
	t.Cleanup(srv.Close)

	ft := New(func(o *Options) {
		o.HTTPClient = srv.Client()
		o.MaxBodyBytes = 64
	})

	payload, err := ft.Invoke(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)

	page := payload.(map[string]any)
	assert.Len(t, page["content"], 64)
	assert.Equal(t, false, page["truncated"])
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	ft := New(func(o *Options) { o.HTTPClient = srv.Client() })

	_, err := ft.Invoke(context.Background(), map[string]any{"url": srv.URL})
	require.Error(t, err)
	assert.True(t, tool.IsTransient(err))
}

func TestFetchNotFoundFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	ft := New(func(o *Options) { o.HTTPClient = srv.Client() })

	_, err := ft.Invoke(context.Background(), map[string]any{"url": srv.URL})
	require.Error(t, err)
	assert.False(t, tool.IsTransient(err))
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	ft := New()

	for _, raw := range []string{"", "not-a-url", "ftp://example.com/x", "/relative/path"} {
		_, err := ft.Invoke(context.Background(), map[string]any{"url": raw})
		assert.Error(t, err, "url %q", raw)
	}
}
