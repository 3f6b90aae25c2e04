// Package identity implements the optional external display-name lookup
// used only to decorate admin-facing listings; the authorization
// resolvers never consult it.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hiveiam/hive/internal/core/port"
)

const (
	requestTimeout = 5 * time.Second
	userAgent      = "hive-identity-resolver"
)

// Resolver calls an external HTTP directory to map usernames to display
// metadata. A nil endpoint disables it entirely; callers always get
// port.IdentityResolver and must degrade to the bare username on error.
type Resolver struct {
	endpoint string
	client   *http.Client
}

// New constructs a Resolver, or returns nil if endpoint is empty — the
// caller is expected to treat a nil Resolver as "identity resolution
// disabled" and skip decoration rather than fail.
func New(endpoint string) *Resolver {
	if endpoint == "" {
		return nil
	}
	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type resolvedEntry struct {
	FirstName  string `json:"firstName"`
	FamilyName string `json:"familyName"`
}

func (e resolvedEntry) displayName() string {
	return fmt.Sprintf("%s %s", e.FirstName, e.FamilyName)
}

// ResolveOne looks up a single username, returning nil if the directory
// does not know it (HTTP 404).
func (r *Resolver) ResolveOne(ctx context.Context, username string) (*port.ResolvedIdentity, error) {
	q := url.Values{"format": {"single"}, "u": {username}}
	req, err := r.newRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity resolution request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("identity resolution returned status %d", resp.StatusCode)
	}

	var entry resolvedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode identity resolution response: %w", err)
	}

	return &port.ResolvedIdentity{Username: username, DisplayName: entry.displayName()}, nil
}

// ResolveMany looks up a batch of usernames in one round trip. Usernames
// the directory does not know are simply absent from the result.
func (r *Resolver) ResolveMany(ctx context.Context, usernames []string) ([]port.ResolvedIdentity, error) {
	seen := make(map[string]struct{}, len(usernames))
	q := url.Values{"format": {"map"}}
	for _, u := range usernames {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		q.Add("u", u)
	}

	req, err := r.newRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity resolution request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("identity resolution returned status %d", resp.StatusCode)
	}

	var entries map[string]resolvedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode identity resolution response: %w", err)
	}

	out := make([]port.ResolvedIdentity, 0, len(entries))
	for username, entry := range entries {
		out = append(out, port.ResolvedIdentity{Username: username, DisplayName: entry.displayName()})
	}
	return out, nil
}

func (r *Resolver) newRequest(ctx context.Context, q url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build identity resolution request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

var _ port.IdentityResolver = (*Resolver)(nil)
