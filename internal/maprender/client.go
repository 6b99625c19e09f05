package maprender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrRejected is returned when the map service answers with a non-200 status.
var ErrRejected = errors.New("map service rejected the map")

// Client posts rendered maps to the map viewer service, which answers with
// a path the map can be viewed at.
type Client struct {
	domain string
	token  string
	http   *http.Client
}

// NewClient creates a client for the service at domain.
func NewClient(domain, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		domain: strings.TrimRight(domain, "/"),
		token:  token,
		http:   &http.Client{Timeout: timeout},
	}
}

type publishReply struct {
	URL string `json:"url"`
}

// Publish uploads m and returns the full viewing URL.
func (c *Client) Publish(ctx context.Context, m Map) (string, error) {
	names, err := json.Marshal(orEmpty(m.Annotations))
	if err != nil {
		return "", fmt.Errorf("encoding annotations: %w", err)
	}
	form := url.Values{
		"map":   {m.ASCII},
		"key":   {c.token},
		"names": {string(names)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.domain+"/api/map/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building map request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting map: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	var reply publishReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decoding map reply: %w", err)
	}
	return c.domain + reply.URL, nil
}

func orEmpty(a []Annotation) []Annotation {
	if a == nil {
		return []Annotation{}
	}
	return a
}
