package bidder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert_AllHostsOK(t *testing.T) {
	var received CampaignState
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/campaign", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv1.Close()

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv2.Close()

	client := NewClient([]string{srv1.URL, srv2.URL})

	state := CampaignState{ID: 3, Name: "summer push", Kind: "banner", DailyBudget: "30.00", Status: "active"}
	err := client.Upsert(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 3, received.ID)
	assert.Equal(t, "30.00", received.DailyBudget)
}

func TestUpsert_OneHostDownStillNotifiesOthers(t *testing.T) {
	hits := 0
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dead.Close()

	client := NewClient([]string{dead.URL, healthy.URL})

	err := client.Upsert(context.Background(), CampaignState{ID: 1, Status: "active"})
	assert.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestRemove(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient([]string{srv.URL})

	err := client.Remove(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "/api/campaign/42", gotPath)
}

func TestPing(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	client := NewClient([]string{up.URL, down.URL})

	results := client.Ping(context.Background())
	require.Len(t, results, 2)
	assert.NoError(t, results[up.URL])
	assert.Error(t, results[down.URL])
}

func TestNoHostsConfigured(t *testing.T) {
	client := NewClient(nil)

	err := client.Upsert(context.Background(), CampaignState{ID: 1})
	assert.NoError(t, err)

	err = client.Remove(context.Background(), 1)
	assert.NoError(t, err)

	assert.Empty(t, client.Ping(context.Background()))
}
