package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func loggedURLs(entries []observer.LoggedEntry) []string {
	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		for _, field := range entry.Context {
			if field.Key == "url" {
				urls = append(urls, field.String)
			}
		}
	}
	return urls
}

func TestRoundTrip_RedactsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Kyiv"}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.InfoLevel)
	client := &http.Client{Transport: NewRoundTripper(zap.New(core))}

	resp, err := client.Get(srv.URL + "/data/2.5/weather?q=Kyiv&appid=super-secret-key")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	urls := loggedURLs(logs.AllUntimed())
	require.NotEmpty(t, urls, "the completed request is logged")
	for _, u := range urls {
		assert.NotContains(t, u, "super-secret-key")
		assert.Contains(t, u, "appid=REDACTED")
		assert.Contains(t, u, "q=Kyiv", "non-secret parameters stay readable")
	}
}

func TestRoundTrip_RedactsAPIKeyOnTransportError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	client := &http.Client{Transport: NewRoundTripper(zap.New(core))}

	// Unroutable port, the dial fails before any response.
	resp, err := client.Get("http://127.0.0.1:1/weather?appid=super-secret-key")
	require.Error(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}

	urls := loggedURLs(logs.AllUntimed())
	require.NotEmpty(t, urls, "the failed request is logged")
	for _, u := range urls {
		assert.NotContains(t, u, "super-secret-key")
		assert.Contains(t, u, "appid=REDACTED")
	}
}

func TestRedactURL_NoSecretsPassThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/ping?q=Kyiv", nil)
	assert.Equal(t, "http://example.com/ping?q=Kyiv", redactURL(req.URL))
}
