// Package membership tracks the set of SBT holders observed on chain.
package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

// holderQuery fetches all state keys of the form <contract>.sbt_holders:<addr>.
const holderQuery = `query { allStates(filter: { key: { like: %q } }, first: 5000) { edges { node { key } } } }`

// Cache answers membership checks against the most recent holder snapshot.
// Until the first successful refresh every check fails closed: scoring is
// never allowed against an unknown membership set.
type Cache struct {
	graphqlURL string
	contract   string
	client     *http.Client

	mu      sync.RWMutex
	holders map[string]struct{}
	ready   bool
}

// NewCache builds a cache against the node's GraphQL state-query surface.
func NewCache(graphqlURL, contract string, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Cache{
		graphqlURL: graphqlURL,
		contract:   contract,
		client:     &http.Client{Timeout: timeout},
	}
}

type stateResponse struct {
	Data struct {
		AllStates struct {
			Edges []struct {
				Node struct {
					Key string `json:"key"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"allStates"`
	} `json:"data"`
}

// Refresh fetches the full holder set and installs it atomically. On any
// error the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	query := fmt.Sprintf(holderQuery, c.contract+".sbt_holders:%")
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("query holders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query holders: unexpected status %s", resp.Status)
	}

	var parsed stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode holders: %w", err)
	}

	holders := make(map[string]struct{}, len(parsed.Data.AllStates.Edges))
	for _, edge := range parsed.Data.AllStates.Edges {
		// key format: <contract>.sbt_holders:<address>
		_, addr, found := strings.Cut(edge.Node.Key, ":")
		if !found || addr == "" {
			continue
		}
		holders[addr] = struct{}{}
	}

	c.mu.Lock()
	c.holders = holders
	c.ready = true
	c.mu.Unlock()

	return nil
}

// IsMember reports whether the address held the SBT at the last refresh.
func (c *Cache) IsMember(address string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return false
	}
	_, ok := c.holders[address]
	return ok
}

// Size returns the holder count of the current snapshot.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.holders)
}

// Ready reports whether at least one refresh has succeeded.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}
