package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 8080 {
		t.Fatalf("APIPort = %d", cfg.APIPort)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Fatalf("chunking defaults = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RAGTopK != 4 {
		t.Fatalf("RAGTopK = %d", cfg.RAGTopK)
	}
	if cfg.BuildTimeoutSeconds != 300 || cfg.QueryTimeoutSeconds != 120 {
		t.Fatalf("timeouts = %d/%d", cfg.BuildTimeoutSeconds, cfg.QueryTimeoutSeconds)
	}
	if cfg.OllamaGenModel != "llama3" {
		t.Fatalf("OllamaGenModel = %q", cfg.OllamaGenModel)
	}
	if cfg.PDFPreviewMaxRunes != 2000 {
		t.Fatalf("PDFPreviewMaxRunes = %d", cfg.PDFPreviewMaxRunes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("PDF_PREVIEW_MAX_RUNES", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 9090 {
		t.Fatalf("APIPort = %d", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Fatalf("chunking = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("APIRateLimitRPS = %f", cfg.APIRateLimitRPS)
	}
	if cfg.PDFPreviewMaxRunes != 500 {
		t.Fatalf("PDFPreviewMaxRunes = %d", cfg.PDFPreviewMaxRunes)
	}
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api_port: 7000\nollama_gen_model: mistral\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OllamaGenModel != "mistral" {
		t.Fatalf("yaml value not applied: %q", cfg.OllamaGenModel)
	}
	if cfg.APIPort != 7001 {
		t.Fatalf("env should override yaml, APIPort = %d", cfg.APIPort)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("API_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted a non-numeric port")
	}
}

func TestLoadRejectsInvalidChunking(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")
	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted overlap >= chunk size")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted a missing config file")
	}
}
