package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_TitleAndDescription(t *testing.T) {
	page := `<html><head>
		<title>
			Example   Domain
		</title>
		<meta name="description" content="An example page">
		<meta property="og:description" content="ignored">
	</head><body></body></html>`
	p, err := Extract(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", p.Title)
	assert.Equal(t, "An example page", p.Description)
}

func TestExtract_OpenGraphFallback(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="OG Title">
		<meta property="og:description" content="OG desc">
	</head><body><svg><title>icon</title></svg></body></html>`
	p, err := Extract(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "OG Title", p.Title)
	assert.Equal(t, "OG desc", p.Description)
}

func TestExtract_Nothing(t *testing.T) {
	p, err := Extract(strings.NewReader("plain text, not html"))
	require.NoError(t, err)
	assert.Empty(t, p.Title)
	assert.Empty(t, p.Description)
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Served</title></head></html>`))
	}))
	defer srv.Close()

	p, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Served", p.Title)
}

func TestHTTPFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewHTTPFetcher(100 * time.Millisecond).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
