package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Precedence: defaults < CONFIG_FILE (yaml) < environment.
type Config struct {
	Addr            string `yaml:"addr"`
	SessionSecret   string `yaml:"session_secret"`
	SessionTTL      string `yaml:"session_ttl"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
	PreviewMaxWidth int    `yaml:"preview_max_width"`
	OCRLang         string `yaml:"ocr_lang"`
	TemplateDir     string `yaml:"template_dir"`
	DBDSN           string `yaml:"db_dsn"`
	DBAutoMigrate   bool   `yaml:"db_auto_migrate"`
	// CookieSecure forces the Secure cookie flag behind a TLS-terminating proxy.
	CookieSecure bool `yaml:"cookie_secure"`

	sessionTTL time.Duration
}

const devSessionSecret = "dev-insecure-secret-change" // development fallback

func defaultConfig() Config {
	return Config{
		Addr:            ":8081",
		SessionTTL:      "30m",
		MaxUploadBytes:  10 << 20,
		PreviewMaxWidth: 1200,
		OCRLang:         "eng",
		DBAutoMigrate:   true,
	}
}

// SessionTimeout is the parsed SessionTTL.
func (c Config) SessionTimeout() time.Duration { return c.sessionTTL }

// OCRLanguages splits OCRLang on '+' or ',' (tesseract style "eng+deu").
func (c Config) OCRLanguages() []string {
	return strings.FieldsFunc(c.OCRLang, func(r rune) bool { return r == '+' || r == ',' })
}

// loadConfig builds the configuration from defaults, the optional yaml file
// named by CONFIG_FILE, and environment overrides.
func loadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("MAX_UPLOAD_BYTES: invalid value %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("PREVIEW_MAX_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("PREVIEW_MAX_WIDTH: invalid value %q", v)
		}
		cfg.PreviewMaxWidth = n
	}
	if v := os.Getenv("OCR_LANG"); v != "" {
		cfg.OCRLang = v
	}
	if v := os.Getenv("TEMPLATE_DIR"); v != "" {
		cfg.TemplateDir = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		cfg.DBAutoMigrate = !(lv == "false" || lv == "0" || lv == "no")
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		lv := strings.ToLower(v)
		cfg.CookieSecure = lv == "true" || lv == "1" || lv == "yes"
	}

	if cfg.SessionSecret == "" {
		log.Printf("SESSION_SECRET not set, using development fallback")
		cfg.SessionSecret = devSessionSecret
	}
	ttl, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil {
		return cfg, fmt.Errorf("SESSION_TTL: %w", err)
	}
	cfg.sessionTTL = ttl
	if cfg.MaxUploadBytes <= 0 {
		return cfg, fmt.Errorf("max_upload_bytes must be positive")
	}
	if len(cfg.OCRLanguages()) == 0 {
		cfg.OCRLang = "eng"
	}
	return cfg, nil
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv(path string) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return // no .env file
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
