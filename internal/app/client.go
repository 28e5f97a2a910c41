// Package app assembles the storefront client and the development backend
// from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/config"
	"github.com/aquadic/souq4u/internal/infrastructure/credentials"
	"github.com/aquadic/souq4u/internal/infrastructure/database"
	"github.com/aquadic/souq4u/internal/infrastructure/storefront"
	"github.com/aquadic/souq4u/internal/infrastructure/transport"
	"github.com/aquadic/souq4u/internal/locale"
	"github.com/aquadic/souq4u/internal/logutil"
	"github.com/aquadic/souq4u/internal/services"
)

// Client holds the storefront client dependencies
type Client struct {
	Config *config.Config
	Logger *slog.Logger
	Locale locale.Locale

	API         *storefront.Client
	Credentials domain.CredentialStore
	Session     *services.SessionStore
	Flow        *services.AuthFlow
	Initializer *services.Initializer

	closers []func() error
}

// ClientOption configures NewClient
type ClientOption func(*clientOptions)

type clientOptions struct {
	notifier   domain.Notifier
	httpClient *http.Client
	sleep      services.Sleeper
}

// WithClientNotifier sets the receiver of login notices
func WithClientNotifier(n domain.Notifier) ClientOption {
	return func(o *clientOptions) { o.notifier = n }
}

// WithClientHTTP replaces the HTTP client; its Jar is replaced when the
// cookie jar credential store is configured.
func WithClientHTTP(hc *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithClientSleeper replaces the timer used by polling and retries
func WithClientSleeper(s services.Sleeper) ClientOption {
	return func(o *clientOptions) { o.sleep = s }
}

// NewClient creates the client container
func NewClient(cfg *config.Config, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	if logger == nil {
		logger = logutil.Discard()
	}
	o := clientOptions{sleep: services.ContextSleep}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		Config: cfg,
		Logger: logger,
		Locale: locale.Negotiate(cfg.Locale),
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	creds, err := c.initCredentials(hc)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Credentials = creds

	c.API = storefront.NewClient(transport.NewClient(cfg.BaseURL,
		transport.WithHTTPClient(hc),
		transport.WithLocale(c.Locale),
		transport.WithLogger(logger.With("component", "storefront")),
	))

	c.Session = services.NewSessionStore(c.Credentials, c.API, logger.With("component", "session"))

	flowOpts := []services.FlowOption{
		services.WithSleeper(o.sleep),
		services.WithFlowLocale(c.Locale),
		services.WithFlowLogger(logger.With("component", "auth_flow")),
	}
	if o.notifier != nil {
		flowOpts = append(flowOpts, services.WithNotifier(o.notifier))
	}
	c.Flow = services.NewAuthFlow(c.API, c.Session, services.FlowConfig{
		PollInterval: cfg.OTPPollInterval,
		MaxAttempts:  cfg.OTPMaxAttempts,
	}, flowOpts...)

	c.Initializer = services.NewInitializer(c.Session, services.InitializerConfig{
		RetryInterval: cfg.InitRetryInterval,
		MaxRetries:    cfg.InitMaxRetries,
	}, o.sleep, logger.With("component", "initializer"))

	return c, nil
}

func (c *Client) initCredentials(hc *http.Client) (domain.CredentialStore, error) {
	cfg := c.Config
	policy := credentials.PolicyFor(cfg.CookieName, cfg.CookieTTL, cfg.BaseURL)

	switch cfg.CredentialStore {
	case config.StoreBolt:
		store, err := credentials.OpenBoltStore(cfg.BoltPath, policy)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil

	case config.StoreRedis:
		rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		c.closers = append(c.closers, rdb.Close)
		if err := rdb.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return credentials.NewRedisStore(rdb.Client, deviceID(), policy), nil

	case config.StoreJar:
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		// the jar also rides along on every request, like a browser cookie
		hc.Jar = jar
		return credentials.NewJarStore(jar, cfg.BaseURL, policy)

	case config.StoreMemory:
		return credentials.NewMemoryStore(policy), nil

	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

// Close stops background work and releases the credential store
func (c *Client) Close() error {
	if c.Flow != nil {
		c.Flow.Close()
	}
	if c.Initializer != nil {
		c.Initializer.Stop()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func deviceID() string {
	if v := os.Getenv("SOUQ4U_DEVICE_ID"); v != "" {
		return v
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "default"
	}
	return host
}
