package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(endpoint string) *Client {
	return NewClient(&config.Config{
		AIEndpoint: endpoint,
		AIAPIKey:   "test-key",
		AIModel:    "test-model",
	}, zap.NewNop())
}

func TestStreamChatDeliversDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, content := range []string{"Hel", "lo", "!"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	var got []string
	err := newTestClient(srv.URL).StreamChat(context.Background(), []Turn{{Role: "user", Content: "hi"}}, func(delta string) {
		got = append(got, delta)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo", "!"}, got)
}

func TestStreamChatFlushesOnEOFWithoutSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"tail\"}}]}")
	}))
	defer srv.Close()

	var got []string
	err := newTestClient(srv.URL).StreamChat(context.Background(), nil, func(delta string) {
		got = append(got, delta)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, got)
}

func TestStreamChatStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"quota exceeded", http.StatusPaymentRequired, `{"limit_reached":true,"message":"monthly cap"}`, ErrQuotaExceeded},
		{"payment without quota flag", http.StatusPaymentRequired, `{"message":"temporarily off"}`, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			err := newTestClient(srv.URL).StreamChat(context.Background(), nil, func(string) {
				t.Fatal("no deltas expected on a failed request")
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStreamChatGenericStatusCarriesUpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"model exploded"}}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).StreamChat(context.Background(), nil, func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")
	assert.Contains(t, err.Error(), "500")
}

func TestStreamChatUnreachableEndpointIsTransportError(t *testing.T) {
	err := newTestClient("http://127.0.0.1:1").StreamChat(context.Background(), nil, func(string) {})
	assert.ErrorIs(t, err, ErrTransport)
}
