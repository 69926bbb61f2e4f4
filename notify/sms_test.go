package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSClient_Send(t *testing.T) {
	var received smsRequest
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		receivedAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(smsResponse{Status: "queued"})
	}))
	defer server.Close()

	client := NewSMSClient(server.URL, "gateway-token", 100)
	err := client.Send(context.Background(), "+49 151 1234567", "Ihr Handy ist fertig.")
	require.NoError(t, err)

	assert.Equal(t, "Bearer gateway-token", receivedAuth)
	assert.Equal(t, "+49 151 1234567", received.To)
	assert.Equal(t, "Ihr Handy ist fertig.", received.Message)
}

func TestSMSClient_Send_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(smsResponse{Error: "invalid recipient"})
	}))
	defer server.Close()

	client := NewSMSClient(server.URL, "token", 100)
	err := client.Send(context.Background(), "not-a-number", "Test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway returned")
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestSMSClient_Send_EmptyPhone(t *testing.T) {
	client := NewSMSClient("http://localhost:1", "token", 100)
	err := client.Send(context.Background(), "", "Test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no phone number")
}

func TestSMSClient_Send_RateLimiterHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(smsResponse{Status: "queued"})
	}))
	defer server.Close()

	// One send per 10 seconds: the first send drains the bucket, the second
	// has to wait longer than the context allows.
	client := NewSMSClient(server.URL, "token", 0.1)
	require.NoError(t, client.Send(context.Background(), "+49 151 1", "erste"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.Send(ctx, "+49 151 1", "zweite")
	require.Error(t, err, "the limiter must give up when the context expires")
}

func TestNewSMSClient_RateFallback(t *testing.T) {
	client := NewSMSClient("http://localhost:1", "token", 0)
	assert.NotNil(t, client.limiter)
	assert.Equal(t, float64(1), float64(client.limiter.Limit()))
}
