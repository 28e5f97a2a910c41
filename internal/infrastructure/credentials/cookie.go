// Package credentials persists the storefront bearer token.
//
// Every store applies the same cookie policy: a single named cookie holding
// the opaque token, expiring after 30 days, Path=/, SameSite=Lax and Secure
// exactly when the storefront is served over HTTPS.
package credentials

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aquadic/souq4u/domain"
)

// DefaultCookieName names the token cookie
const DefaultCookieName = "souq4u_token"

// DefaultTTL is how long a stored token is kept
const DefaultTTL = 30 * 24 * time.Hour

// Policy describes how the token cookie is written
type Policy struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// PolicyFor returns the cookie policy for a storefront base URL
func PolicyFor(name string, ttl time.Duration, baseURL string) Policy {
	if name == "" {
		name = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	secure := false
	if u, err := url.Parse(baseURL); err == nil {
		secure = u.Scheme == "https"
	}
	return Policy{Name: name, TTL: ttl, Secure: secure}
}

// Cookie builds the token cookie as of now
func (p Policy) Cookie(token string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(p.TTL),
		MaxAge:   int(p.TTL / time.Second),
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Expired builds a cookie that removes the token
func (p Policy) Expired() *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// JarStore keeps the token cookie in an http.CookieJar scoped to the
// storefront URL. Sharing the jar with the transport's http.Client makes
// the cookie travel with API requests as a browser would send it.
type JarStore struct {
	jar    http.CookieJar
	url    *url.URL
	policy Policy
	now    func() time.Time
	mu     sync.Mutex
}

var _ domain.CredentialStore = (*JarStore)(nil)

// NewJarStore creates a jar-backed store for baseURL
func NewJarStore(jar http.CookieJar, baseURL string, policy Policy) (*JarStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	root := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	return &JarStore{jar: jar, url: root, policy: policy, now: time.Now}, nil
}

// Get implements domain.CredentialStore
func (s *JarStore) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.jar.Cookies(s.url) {
		if c.Name == s.policy.Name && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", domain.ErrCredentialNotFound
}

// Set implements domain.CredentialStore
func (s *JarStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(s.url, []*http.Cookie{s.policy.Cookie(token, s.now())})
	return nil
}

// Remove implements domain.CredentialStore
func (s *JarStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(s.url, []*http.Cookie{s.policy.Expired()})
	return nil
}

// StoredCookie is the serialized form of the token cookie
type StoredCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"same_site"`
}

func fromCookie(c *http.Cookie) *StoredCookie {
	sameSite := "Lax"
	switch c.SameSite {
	case http.SameSiteStrictMode:
		sameSite = "Strict"
	case http.SameSiteNoneMode:
		sameSite = "None"
	}
	return &StoredCookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		SameSite: sameSite,
	}
}

func (c StoredCookie) expired(now time.Time) bool {
	return !now.Before(c.Expires)
}
