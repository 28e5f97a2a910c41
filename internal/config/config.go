package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when SOUQ4U_CONFIG is unset
const DefaultPath = "config/config.yml"

// Credential store kinds
const (
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreJar    = "jar"
	StoreMemory = "memory"
)

type StorefrontConfig struct {
	BaseURL string `yaml:"base_url"`
	Locale  string `yaml:"locale"`
	Timeout string `yaml:"timeout"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	CookieTTL  string `yaml:"cookie_ttl"`
	Store      string `yaml:"store"`
	BoltPath   string `yaml:"bolt_path"`
}

type OTPConfig struct {
	PollInterval string `yaml:"poll_interval"`
	MaxAttempts  int    `yaml:"max_attempts"`
}

type InitializerConfig struct {
	RetryInterval string `yaml:"retry_interval"`
	MaxRetries    int    `yaml:"max_retries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type VerificationConfig struct {
	TTL          string `yaml:"ttl"`
	Length       int    `yaml:"length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	ResendWindow string `yaml:"resend_window"`
	Scheme       string `yaml:"scheme"`
	CallbackURL  string `yaml:"callback_url"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type DevServerConfig struct {
	Port    int                `yaml:"port"`
	GinMode string             `yaml:"gin_mode"`
	DSN     string             `yaml:"dsn"`
	JWT     JWTConfig          `yaml:"jwt"`
	OTP     VerificationConfig `yaml:"otp"`
	Twilio  TwilioConfig       `yaml:"twilio"`
}

type ConfigFile struct {
	Storefront  StorefrontConfig  `yaml:"storefront"`
	Session     SessionConfig     `yaml:"session"`
	OTP         OTPConfig         `yaml:"otp"`
	Initializer InitializerConfig `yaml:"initializer"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
	DevServer   DevServerConfig   `yaml:"devserver"`
}

type Config struct {
	BaseURL     string
	Locale      string
	HTTPTimeout time.Duration

	CookieName      string
	CookieTTL       time.Duration
	CredentialStore string
	BoltPath        string

	OTPPollInterval time.Duration
	OTPMaxAttempts  int

	InitRetryInterval time.Duration
	InitMaxRetries    int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	DevPort              string
	DevGinMode           string
	DevDSN               string
	JWTSecret            string
	JWTIssuer            string
	JWTTTL               time.Duration
	VerificationTTL      time.Duration
	VerificationLength   int
	VerificationAttempts int
	ResendWindow         time.Duration
	VerificationScheme   string
	CallbackURL          string
	TwilioSID            string
	TwilioToken          string
	TwilioFrom           string
}

// Defaults returns the file contents used when no config file exists
func Defaults() ConfigFile {
	return ConfigFile{
		Storefront: StorefrontConfig{
			BaseURL: "http://localhost:8080",
			Locale:  "ar",
			Timeout: "10s",
		},
		Session: SessionConfig{
			CookieName: "souq4u_token",
			CookieTTL:  "720h",
			Store:      StoreBolt,
			BoltPath:   ".souq4u/session.db",
		},
		OTP: OTPConfig{
			PollInterval: "5s",
			MaxAttempts:  60,
		},
		Initializer: InitializerConfig{
			RetryInterval: "30s",
			MaxRetries:    10,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Log:   LogConfig{Level: "info", Format: "text"},
		DevServer: DevServerConfig{
			Port:    8080,
			GinMode: "release",
			DSN:     "file:souq4u.db?cache=shared",
			JWT: JWTConfig{
				Secret: "change",
				Issuer: "souq4u-dev",
				TTL:    "720h",
			},
			OTP: VerificationConfig{
				TTL:          "5m",
				Length:       6,
				MaxAttempts:  5,
				ResendWindow: "30s",
				Scheme:       "whatsapp",
				CallbackURL:  "https://wa.me/%s?text=%s",
			},
		},
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load reads .env, the YAML file at SOUQ4U_CONFIG (or DefaultPath) and env overrides
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return LoadFile(env("SOUQ4U_CONFIG", DefaultPath))
}

// LoadFile builds a Config from path; a missing file yields the defaults
func LoadFile(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg, err := fromFile(configFile)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(f *ConfigFile) (*Config, error) {
	timeout, err := time.ParseDuration(f.Storefront.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid storefront timeout: %w", err)
	}
	cookieTTL, err := time.ParseDuration(f.Session.CookieTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie TTL: %w", err)
	}
	poll, err := time.ParseDuration(f.OTP.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP poll interval: %w", err)
	}
	retry, err := time.ParseDuration(f.Initializer.RetryInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid initializer retry interval: %w", err)
	}
	jwtTTL, err := time.ParseDuration(f.DevServer.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT TTL: %w", err)
	}
	otpTTL, err := time.ParseDuration(f.DevServer.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid verification TTL: %w", err)
	}
	resWnd, err := time.ParseDuration(f.DevServer.OTP.ResendWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid verification resend window: %w", err)
	}

	return &Config{
		BaseURL:              f.Storefront.BaseURL,
		Locale:               f.Storefront.Locale,
		HTTPTimeout:          timeout,
		CookieName:           f.Session.CookieName,
		CookieTTL:            cookieTTL,
		CredentialStore:      f.Session.Store,
		BoltPath:             f.Session.BoltPath,
		OTPPollInterval:      poll,
		OTPMaxAttempts:       f.OTP.MaxAttempts,
		InitRetryInterval:    retry,
		InitMaxRetries:       f.Initializer.MaxRetries,
		RedisAddr:            f.Redis.Addr,
		RedisPassword:        f.Redis.Password,
		RedisDB:              f.Redis.DB,
		LogLevel:             f.Log.Level,
		LogFormat:            f.Log.Format,
		DevPort:              fmt.Sprintf("%d", f.DevServer.Port),
		DevGinMode:           f.DevServer.GinMode,
		DevDSN:               f.DevServer.DSN,
		JWTSecret:            f.DevServer.JWT.Secret,
		JWTIssuer:            f.DevServer.JWT.Issuer,
		JWTTTL:               jwtTTL,
		VerificationTTL:      otpTTL,
		VerificationLength:   f.DevServer.OTP.Length,
		VerificationAttempts: f.DevServer.OTP.MaxAttempts,
		ResendWindow:         resWnd,
		VerificationScheme:   f.DevServer.OTP.Scheme,
		CallbackURL:          f.DevServer.OTP.CallbackURL,
		TwilioSID:            f.DevServer.Twilio.AccountSID,
		TwilioToken:          f.DevServer.Twilio.AuthToken,
		TwilioFrom:           f.DevServer.Twilio.FromNumber,
	}, nil
}

func applyEnv(c *Config) {
	c.BaseURL = env("SOUQ4U_BASE_URL", c.BaseURL)
	c.Locale = env("SOUQ4U_LOCALE", c.Locale)
	c.CredentialStore = env("SOUQ4U_CREDENTIAL_STORE", c.CredentialStore)
	c.BoltPath = env("SOUQ4U_BOLT_PATH", c.BoltPath)
	c.LogLevel = env("SOUQ4U_LOG_LEVEL", c.LogLevel)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = env("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envInt("REDIS_DB", c.RedisDB)
	c.DevDSN = env("DATABASE_DSN", c.DevDSN)
	c.JWTSecret = env("JWT_SECRET", c.JWTSecret)
	c.TwilioSID = env("TWILIO_ACCOUNT_SID", c.TwilioSID)
	c.TwilioToken = env("TWILIO_AUTH_TOKEN", c.TwilioToken)
	c.TwilioFrom = env("TWILIO_FROM_NUMBER", c.TwilioFrom)
}

// Validate rejects settings the auth core cannot run with
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("storefront base_url is required")
	}
	if c.CookieName == "" {
		return errors.New("session cookie_name is required")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("storefront timeout must be positive")
	}
	if c.OTPPollInterval <= 0 {
		return errors.New("otp poll_interval must be positive")
	}
	if c.OTPMaxAttempts <= 0 {
		return errors.New("otp max_attempts must be positive")
	}
	if c.InitRetryInterval <= 0 {
		return errors.New("initializer retry_interval must be positive")
	}
	switch c.CredentialStore {
	case StoreBolt, StoreRedis, StoreJar, StoreMemory:
	default:
		return fmt.Errorf("unknown credential store %q", c.CredentialStore)
	}
	return nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	config := Defaults()

	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
