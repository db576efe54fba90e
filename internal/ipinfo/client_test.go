package ipinfo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/93.184.216.34/json", r.URL.Path)
		fmt.Fprint(w, `{"ip":"93.184.216.34","org":"AS15133 Edgecast Inc.","country":"US"}`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	info, err := client.Lookup(context.Background(), "93.184.216.34")
	require.NoError(t, err)
	assert.Equal(t, "AS15133 Edgecast Inc.", info.Org)
	assert.Equal(t, "US", info.Country)
}

func TestLookupMissingKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ip":"10.0.0.1","bogon":true}`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	info, err := client.Lookup(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Empty(t, info.Org)
	assert.Empty(t, info.Country)
}

func TestLookupEmptyIP(t *testing.T) {
	client := NewClient()
	_, err := client.Lookup(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty ip address")
}

func TestLookupHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Lookup(context.Background(), "93.184.216.34")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestLookupInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Lookup(context.Background(), "93.184.216.34")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestLookupTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Connection refused from here on

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Lookup(context.Background(), "93.184.216.34")
	require.Error(t, err)
}
