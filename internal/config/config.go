package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Config struct {
	Env            string
	LogLevel       string
	HTTPAddr       string
	DBType         string
	DBDSN          string
	SQLitePath     string
	DataDir        string
	AuthMode       string
	AuthTokens     map[string]string // token -> user id
	AuthServiceURL string
	JWTSecret      string
	RedisAddr      string
	RedisChannel   string
	AdviceURL      string
	AdviceAPIKey   string
	CORSOrigins    []string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = loadDotEnv(".env")
		cfg = FromEnv(os.Getenv)
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

// FromEnv builds a Config from getenv without validating it.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}
	dataDir := get("DATA_DIR", "data")
	return &Config{
		Env:            get("APP_ENV", "development"),
		LogLevel:       get("LOG_LEVEL", "info"),
		HTTPAddr:       get("HTTP_ADDR", ":8088"),
		DBType:         get("STORAGE_BACKEND", "file"),
		DBDSN:          get("POSTGRES_DSN", ""),
		SQLitePath:     get("SQLITE_PATH", filepath.Join(dataDir, "aquaguide.db")),
		DataDir:        dataDir,
		AuthMode:       get("AUTH_MODE", "local"),
		AuthTokens:     parseTokens(get("AUTH_TOKENS", "")),
		AuthServiceURL: get("AUTH_SERVICE_URL", ""),
		JWTSecret:      get("JWT_SECRET", ""),
		RedisAddr:      get("REDIS_ADDR", ""),
		RedisChannel:   get("REDIS_CHANNEL", "aquaguide.events"),
		AdviceURL:      get("ADVICE_URL", ""),
		AdviceAPIKey:   get("ADVICE_API_KEY", ""),
		CORSOrigins:    splitList(get("CORS_ORIGINS", "*")),
	}
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "file":
		if c.DataDir == "" {
			return errors.New("File storage requires DATA_DIR to be set")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, sqlite, postgres")
	}
	switch c.AuthMode {
	case "local":
		if len(c.AuthTokens) == 0 {
			return errors.New("AUTH_TOKENS is required when AUTH_MODE=local")
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return errors.New("AUTH_MODE must be one of: local, remote, jwt")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}

// parseTokens reads "token:user,token2:user2".
func parseTokens(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range splitList(s) {
		kv := splitKV(strings.Replace(pair, ":", "=", 1))
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadDotEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, l := range splitLines(string(data)) {
		l = strings.TrimSpace(l)
		if len(l) == 0 || l[0] == '#' {
			continue
		}
		kv := splitKV(l)
		if len(kv) == 2 {
			if _, set := os.LookupEnv(kv[0]); !set {
				os.Setenv(kv[0], strings.Trim(kv[1], `"'`))
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' || c == '\r' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitKV(s string) []string {
	for i, c := range s {
		if c == '=' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}
