package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewHTTPClient(5 * time.Second)
	result, err := client.Do(context.Background(), RequestDescriptor{
		Method:      http.MethodPost,
		URL:         server.URL,
		Body:        map[string]string{"code": "abc123"},
		BearerToken: "abc",
	})
	require.NoError(t, err)
	assert.True(t, result.IsSuccess())

	var decoded struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, result.DecodeJSON(&decoded))
	assert.True(t, decoded.OK)
}

func TestResultIsSuccess(t *testing.T) {
	assert.True(t, Result{StatusCode: 204}.IsSuccess())
	assert.False(t, Result{StatusCode: 404}.IsSuccess())
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "https://x/y?a=b", WithQuery("https://x/y", "a=b"))
	assert.Equal(t, "https://x/y?a=b&c=d", WithQuery("https://x/y?a=b", "c=d"))
	assert.Equal(t, "https://x/y", WithQuery("https://x/y", ""))
}
