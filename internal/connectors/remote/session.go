package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
)

// MaxBodySize caps how much of a response body is read.
const MaxBodySize = 64 << 20

// userAgents is the rotation pool of browser identities.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Session is the client identity presented to one remote source: an
// HTTP client with its own cookie jar, a user agent and fixed headers.
type Session struct {
	mu        sync.Mutex
	transport http.RoundTripper
	client    *http.Client
	uaIndex   int
	headers   http.Header
}

// NewSession creates a session. transport may be nil for the default.
// headers are sent with every request.
func NewSession(transport http.RoundTripper, headers http.Header) *Session {
	s := &Session{
		transport: transport,
		headers:   headers.Clone(),
	}
	if s.headers == nil {
		s.headers = http.Header{}
	}
	s.client = s.newClient()
	return s
}

func (s *Session) newClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Transport: s.transport, Jar: jar}
}

// Rotate discards cookies and switches to the next user agent.
func (s *Session) Rotate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uaIndex = (s.uaIndex + 1) % len(userAgents)
	s.client = s.newClient()
}

// UserAgent returns the current user agent.
func (s *Session) UserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return userAgents[s.uaIndex]
}

// Do sends req with the session identity and returns the body of a
// successful response. Non-2xx responses become *StatusError.
func (s *Session) Do(req *http.Request) ([]byte, error) {
	s.mu.Lock()
	client := s.client
	ua := userAgents[s.uaIndex]
	s.mu.Unlock()

	for k, vs := range s.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String(), Message: msg}
	}
	return body, nil
}

// GetJSON fetches url and decodes the JSON body into v.
func (s *Session) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	body, err := s.Do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// PostJSON sends payload as JSON and decodes the JSON response into v.
func (s *Session) PostJSON(ctx context.Context, url string, payload, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	body, err := s.Do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// GetBytes fetches url and returns the raw body.
func (s *Session) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return s.Do(req)
}
