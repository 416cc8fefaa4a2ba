package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscribeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Audio string `json:"audio"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "UklGRg==", req.Audio)

		_, _ = w.Write([]byte(`{"text":"transcribed"}`))
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", nil)
	text, err := client.Transcribe(context.Background(), "UklGRg==")
	require.NoError(t, err)
	require.Equal(t, "transcribed", text)
}

func TestTranscribeQuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"insufficient_quota","message":"quota exhausted"}}`))
	}))
	defer server.Close()

	client := New(server.URL, "", nil)
	_, err := client.Transcribe(context.Background(), "abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode())
	require.Equal(t, "insufficient_quota", apiErr.ErrorCode())
	require.Contains(t, apiErr.Error(), "quota exhausted")
}

func TestTranscribeServerErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "", nil)
	_, err := client.Transcribe(context.Background(), "abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode())
	require.Empty(t, apiErr.ErrorCode())
}

func TestTranscribeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := New(server.URL, "", nil)
	_, err := client.Transcribe(context.Background(), "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode transcription response")
}

func TestTranscribeNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := New(server.URL, "", nil)
	_, err := client.Transcribe(context.Background(), "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "call transcription gateway")
}
