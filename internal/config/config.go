// Package config loads the service configuration from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it. Every problem found is collected
// so a misconfigured deployment reports all of them at once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"s3-file-drop/internal/storage"
)

// Config is the full runtime configuration.
type Config struct {
	Addr string

	Storage storage.Config

	MaxUploadBytes int64
	AllowOrigins   []string
	RateLimitRPS   float64
	RateLimitBurst int

	DatabaseURL string

	LogLevel  string
	LogFormat string
	Env       string

	Version string
	Commit  string

	ShutdownTimeout time.Duration
}

// ValidationError is one invalid or missing setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors is every problem found by Load.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):", len(errs)))
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, err.Error()))
	}
	return sb.String()
}

type validator struct {
	lookup func(string) (string, bool)
	errors ValidationErrors
}

func (v *validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *validator) get(key, def string) string {
	if val, ok := v.lookup(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return def
}

func (v *validator) required(key string) string {
	val := v.get(key, "")
	if val == "" {
		v.addError(key, "required environment variable not set")
	}
	return val
}

func (v *validator) enum(key, def string, allowed ...string) string {
	val := strings.ToLower(v.get(key, def))
	for _, opt := range allowed {
		if val == opt {
			return val
		}
	}
	v.addError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), val))
	return def
}

func (v *validator) nonNegativeInt(key string, def int64) int64 {
	raw := v.get(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		v.addError(key, "must be a non-negative integer")
		return def
	}
	return n
}

func (v *validator) nonNegativeFloat(key string, def float64) float64 {
	raw := v.get(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		v.addError(key, "must be a non-negative number")
		return def
	}
	return f
}

func (v *validator) boolean(key string, def bool) bool {
	raw := v.get(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		v.addError(key, "must be true or false")
		return def
	}
	return b
}

func (v *validator) duration(key string, def time.Duration) time.Duration {
	raw := v.get(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		v.addError(key, "must be a positive duration such as 5s")
		return def
	}
	return d
}

func (v *validator) addr(key, def string) string {
	val := v.get(key, def)
	idx := strings.LastIndex(val, ":")
	if idx < 0 {
		v.addError(key, "must be host:port or :port")
		return def
	}
	port, err := strconv.Atoi(val[idx+1:])
	if err != nil || port < 1 || port > 65535 {
		v.addError(key, "port must be between 1 and 65535")
		return def
	}
	return val
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the os.LookupEnv signature.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	v := &validator{lookup: lookup}

	cfg := &Config{
		Addr: v.addr("ADDR", ":3000"),
	}

	driver := v.enum("STORAGE_DRIVER", storage.DriverS3, storage.DriverS3, storage.DriverMinio)
	cfg.Storage = storage.Config{
		Driver:         driver,
		Bucket:         v.required("AWS_BUCKET_NAME"),
		AccessKey:      v.required("AWS_ACCESS_KEY_ID"),
		SecretKey:      v.required("AWS_SECRET_ACCESS_KEY"),
		Endpoint:       v.get("S3_ENDPOINT", ""),
		ForcePathStyle: v.boolean("S3_FORCE_PATH_STYLE", false),
	}
	switch driver {
	case storage.DriverMinio:
		cfg.Storage.Region = v.get("AWS_REGION", "us-east-1")
		if cfg.Storage.Endpoint == "" {
			v.addError("S3_ENDPOINT", "required when STORAGE_DRIVER=minio")
		}
	default:
		cfg.Storage.Region = v.required("AWS_REGION")
	}

	cfg.MaxUploadBytes = v.nonNegativeInt("MAX_UPLOAD_BYTES", 0)
	cfg.AllowOrigins = splitList(v.get("CORS_ALLOW_ORIGINS", "*"))
	cfg.RateLimitRPS = v.nonNegativeFloat("RATE_LIMIT_RPS", 20)
	cfg.RateLimitBurst = int(v.nonNegativeInt("RATE_LIMIT_BURST", 40))

	cfg.DatabaseURL = v.get("DATABASE_URL", "")

	cfg.LogLevel = v.enum("LOG_LEVEL", "info", "debug", "info", "warn", "error")
	cfg.LogFormat = v.get("LOG_FORMAT", "")
	if cfg.LogFormat != "" {
		cfg.LogFormat = v.enum("LOG_FORMAT", "console", "json", "console")
	}
	cfg.Env = v.get("APP_ENV", "development")

	cfg.Version = v.get("APP_VERSION", "dev")
	cfg.Commit = v.get("APP_COMMIT", "unknown")
	cfg.ShutdownTimeout = v.duration("SHUTDOWN_TIMEOUT", 5*time.Second)

	if len(v.errors) > 0 {
		return nil, v.errors
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
