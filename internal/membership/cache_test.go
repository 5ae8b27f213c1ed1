package membership

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func holderServer(t *testing.T, keys []string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		edges := make([]map[string]any, 0, len(keys))
		for _, key := range keys {
			edges = append(edges, map[string]any{"node": map[string]any{"key": key}})
		}
		resp := map[string]any{
			"data": map[string]any{"allStates": map[string]any{"edges": edges}},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestFailClosedBeforeRefresh(t *testing.T) {
	cache := NewCache("http://unused", "con_sbtxian", time.Second)
	if cache.IsMember("addr1") {
		t.Fatalf("membership must fail closed before the first refresh")
	}
	if cache.Ready() {
		t.Fatalf("cache must not report ready before a refresh")
	}
}

func TestRefresh(t *testing.T) {
	srv := holderServer(t, []string{
		"con_sbtxian.sbt_holders:addr1",
		"con_sbtxian.sbt_holders:addr2",
		"con_sbtxian.sbt_holders:", // empty address, skipped
		"malformed-key-without-separator",
	}, http.StatusOK)
	defer srv.Close()

	cache := NewCache(srv.URL, "con_sbtxian", time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if !cache.IsMember("addr1") || !cache.IsMember("addr2") {
		t.Fatalf("expected addr1 and addr2 to be members")
	}
	if cache.IsMember("addr3") {
		t.Fatalf("addr3 should not be a member")
	}
	if cache.Size() != 2 {
		t.Fatalf("size = %d, want 2", cache.Size())
	}
}

func TestRefreshFailureKeepsPriorSet(t *testing.T) {
	good := holderServer(t, []string{"con_sbtxian.sbt_holders:addr1"}, http.StatusOK)
	defer good.Close()

	cache := NewCache(good.URL, "con_sbtxian", time.Second)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	bad := holderServer(t, nil, http.StatusInternalServerError)
	defer bad.Close()
	cache.graphqlURL = bad.URL

	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if !cache.IsMember("addr1") {
		t.Fatalf("failed refresh must retain the previous snapshot")
	}
}
