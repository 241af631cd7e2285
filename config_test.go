package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	for _, k := range []string{"CONFIG_FILE", "ADDR", "SESSION_SECRET", "SESSION_TTL", "MAX_UPLOAD_BYTES", "PREVIEW_MAX_WIDTH", "OCR_LANG", "TEMPLATE_DIR", "DB_DSN", "DB_AUTO_MIGRATE", "COOKIE_SECURE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8081" || cfg.SessionTimeout() != 30*time.Minute || cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionSecret != devSessionSecret {
		t.Fatal("expected development secret fallback")
	}
	if l := cfg.OCRLanguages(); len(l) != 1 || l[0] != "eng" {
		t.Fatalf("unexpected languages %v", l)
	}
	if !cfg.DBAutoMigrate || cfg.DBDSN != "" {
		t.Fatal("event log should be off with auto-migrate on by default")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "addr: \":9000\"\nsession_ttl: 5m\nocr_lang: eng+deu\npreview_max_width: 800\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PREVIEW_MAX_WIDTH", "640")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9000" || cfg.SessionTimeout() != 5*time.Minute {
		t.Fatalf("file values not applied %+v", cfg)
	}
	if cfg.PreviewMaxWidth != 640 {
		t.Fatalf("env must override file, got %d", cfg.PreviewMaxWidth)
	}
	if l := cfg.OCRLanguages(); len(l) != 2 || l[1] != "deu" {
		t.Fatalf("unexpected languages %v", l)
	}
	if cfg.DBAutoMigrate {
		t.Fatal("DB_AUTO_MIGRATE=no not honored")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SESSION_TTL", "soon")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for bad SESSION_TTL")
	}
	t.Setenv("SESSION_TTL", "")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for negative MAX_UPLOAD_BYTES")
	}
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nOCRPIPE_TEST_A=one\nOCRPIPE_TEST_B = \"two\"\nOCRPIPE_TEST_C=keep\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OCRPIPE_TEST_C", "already")
	os.Unsetenv("OCRPIPE_TEST_A")
	os.Unsetenv("OCRPIPE_TEST_B")
	t.Cleanup(func() {
		os.Unsetenv("OCRPIPE_TEST_A")
		os.Unsetenv("OCRPIPE_TEST_B")
	})
	loadDotEnv(path)
	if os.Getenv("OCRPIPE_TEST_A") != "one" || os.Getenv("OCRPIPE_TEST_B") != "two" {
		t.Fatal(".env values not loaded")
	}
	if os.Getenv("OCRPIPE_TEST_C") != "already" {
		t.Fatal(".env must not override existing env")
	}
	loadDotEnv(filepath.Join(t.TempDir(), "absent"))
}

func TestLoadConfigCookieSecure(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CookieSecure {
		t.Fatal("secure cookies should be off by default")
	}
	t.Setenv("COOKIE_SECURE", "1")
	if cfg, _ = loadConfig(); !cfg.CookieSecure {
		t.Fatal("COOKIE_SECURE=1 not applied")
	}
}
