package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ai/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Any delays?", body["question"])
		assert.Equal(t, "ORD", body["airport"])

		fmt.Fprint(w, `{"answer": "Two departures are delayed."}`)
	}))
	defer srv.Close()

	ans, err := NewClient(srv.URL).Ask(context.Background(), "Any delays?", "ORD")
	require.NoError(t, err)
	assert.Equal(t, "Two departures are delayed.", ans.Answer)
}

func TestAskDetailMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"detail": "Gemini quota/rate limit exceeded."}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Ask(context.Background(), "hi", "ORD")
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusTooManyRequests, ae.Status)
	assert.Equal(t, "Gemini quota/rate limit exceeded.", ae.Error())
}

func TestAskFallbackMessage(t *testing.T) {
	cases := map[string]string{
		"plain text": "upstream exploded",
		"no detail":  `{"error": "x"}`,
		"empty":      "",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Ask(context.Background(), "hi", "ORD")
			require.Error(t, err)
			assert.Equal(t, FallbackMessage, err.Error())
		})
	}
}

func TestAskNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).Ask(context.Background(), "hi", "ORD")
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, FallbackMessage, ae.Message)
	assert.Error(t, ae.Unwrap())
}

func TestAskEmptyQuestion(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Ask(context.Background(), "   ", "ORD")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.False(t, called)
}
