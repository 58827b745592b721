// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, the WhatsApp webhook
// policy, one-time-code parameters, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "contabot-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WhatsAppConfig defines the inbound webhook policy and the identity gate.
type WhatsAppConfig struct {
	// VerifySignature enables HMAC verification of provider callbacks.
	// When disabled, the webhook requires the internal API key instead.
	VerifySignature bool // WA_VERIFY_SIGNATURE
	// WebhookSecret is the HMAC secret shared with the provider.
	WebhookSecret string // WA_WEBHOOK_SECRET
	// MaxMessageAge drops inbound messages older than this (0 = no limit).
	MaxMessageAge time.Duration // WA_MAX_MESSAGE_AGE

	// OTPTTL is the lifetime of an issued verification code.
	OTPTTL time.Duration // OTP_TTL
	// OTPMaxAttempts caps wrong guesses against one code.
	OTPMaxAttempts int // OTP_MAX_ATTEMPTS
	// ReverifyWindow is how long a verification stays valid.
	ReverifyWindow time.Duration // OTP_REVERIFY_WINDOW
}

// LLMConfig defines the optional fallback classifier endpoint.
type LLMConfig struct {
	Enabled bool          // LLM_ENABLED
	BaseURL string        // LLM_BASE_URL (e.g. "http://localhost:11434")
	Model   string        // LLM_MODEL
	APIKey  string        // LLM_API_KEY (optional, for hosted gateways)
	Timeout time.Duration // LLM_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath           string // SQLite path
	InternalAPIKey   string // shared key for the internal relay endpoint
	DueItemLimit     int    // max due items per reply
	DocumentLimit    int    // max documents per reply
	LapsedWindowDays int    // lookback for the recently-lapsed warning

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Channel gate
	WhatsApp WhatsAppConfig

	// Fallback classifier
	LLM LLMConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:           getenv("DB_PATH", "app.db"),
		InternalAPIKey:   getenv("INTERNAL_API_KEY", ""),
		DueItemLimit:     getint("DUE_ITEM_LIMIT", 10),
		DocumentLimit:    getint("DOCUMENT_LIMIT", 10),
		LapsedWindowDays: getint("LAPSED_WINDOW_DAYS", 30),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Channel gate
		WhatsApp: WhatsAppConfig{
			VerifySignature: getbool("WA_VERIFY_SIGNATURE", true),
			WebhookSecret:   getenv("WA_WEBHOOK_SECRET", ""),
			MaxMessageAge:   getdur("WA_MAX_MESSAGE_AGE", 120*time.Second),
			OTPTTL:          getdur("OTP_TTL", 10*time.Minute),
			OTPMaxAttempts:  getint("OTP_MAX_ATTEMPTS", 5),
			ReverifyWindow:  getdur("OTP_REVERIFY_WINDOW", 30*24*time.Hour),
		},

		// Fallback classifier
		LLM: LLMConfig{
			Enabled: getbool("LLM_ENABLED", false),
			BaseURL: getenv("LLM_BASE_URL", "http://localhost:11434"),
			Model:   getenv("LLM_MODEL", "llama3"),
			APIKey:  getenv("LLM_API_KEY", ""),
			Timeout: getdur("LLM_TIMEOUT", 8*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "contabot-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.DueItemLimit < 1 || cfg.DocumentLimit < 1 {
		return cfg, errors.New("DUE_ITEM_LIMIT and DOCUMENT_LIMIT must be >= 1")
	}
	if cfg.LapsedWindowDays < 0 {
		return cfg, errors.New("LAPSED_WINDOW_DAYS must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.WhatsApp.VerifySignature && strings.TrimSpace(cfg.WhatsApp.WebhookSecret) == "" {
		return cfg, errors.New("WA_WEBHOOK_SECRET must be set when WA_VERIFY_SIGNATURE is enabled")
	}
	if !cfg.WhatsApp.VerifySignature && strings.TrimSpace(cfg.InternalAPIKey) == "" {
		return cfg, errors.New("INTERNAL_API_KEY must be set when WA_VERIFY_SIGNATURE is disabled")
	}
	if cfg.WhatsApp.MaxMessageAge < 0 {
		return cfg, errors.New("WA_MAX_MESSAGE_AGE must be >= 0")
	}
	if cfg.WhatsApp.OTPTTL <= 0 {
		return cfg, errors.New("OTP_TTL must be > 0")
	}
	if cfg.WhatsApp.OTPMaxAttempts < 1 {
		return cfg, errors.New("OTP_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.WhatsApp.ReverifyWindow <= 0 {
		return cfg, errors.New("OTP_REVERIFY_WINDOW must be > 0")
	}
	if cfg.LLM.Enabled {
		if strings.TrimSpace(cfg.LLM.BaseURL) == "" || strings.TrimSpace(cfg.LLM.Model) == "" {
			return cfg, errors.New("LLM_BASE_URL and LLM_MODEL must be set when LLM_ENABLED")
		}
		if cfg.LLM.Timeout <= 0 {
			return cfg, errors.New("LLM_TIMEOUT must be > 0")
		}
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
