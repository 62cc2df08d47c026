package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_Timeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3*time.Second, NewHTTPClient(3*time.Second).Timeout)
	assert.Equal(t, DefaultTimeout, NewHTTPClient(0).Timeout)
}

func TestNewHTTPClient_UserAgent(t *testing.T) {
	t.Parallel()

	got := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(time.Second)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, UserAgent, <-got)
	assert.Equal(t, "custom", <-got)
}
