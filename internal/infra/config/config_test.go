package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"devteam-ai/internal/domain"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Agent.MaxHistory != 10 {
		t.Errorf("MaxHistory = %d, want 10", cfg.Agent.MaxHistory)
	}
	if cfg.Agent.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Agent.Temperature)
	}
	if cfg.Agent.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg.Agent.Model, "gpt-4o")
	}
	if cfg.Team.StartAgent != "PROJECT_ORCHESTRATOR" {
		t.Errorf("StartAgent = %q", cfg.Team.StartAgent)
	}
	if cfg.LLM.DefaultProvider != "openai" {
		t.Errorf("DefaultProvider = %q, want %q", cfg.LLM.DefaultProvider, "openai")
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "info")
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.MaxHistory != 10 {
		t.Errorf("expected defaults, got MaxHistory=%d", cfg.Agent.MaxHistory)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
agent:
  model: "llama3-8b"
  max_history: 4
  instructions:
    QA_TESTER: "You only write table driven tests."
team:
  start_agent: "PRODUCT_MANAGER"
  max_handoffs: 2
  project_id: "p1"
  environment:
    NODE_ENV: "prod"
llm:
  default_provider: "groq"
  providers:
    - name: "groq"
      type: "openai"
      base_url: "https://api.groq.com/openai/v1"
      api_key: "test-key"
      resp_timeout: 45s
logger:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.MaxHistory != 4 {
		t.Errorf("MaxHistory = %d, want 4", cfg.Agent.MaxHistory)
	}
	if cfg.Agent.Temperature != 0.7 {
		t.Errorf("Temperature should keep its default, got %v", cfg.Agent.Temperature)
	}
	if cfg.Agent.Instructions["QA_TESTER"] == "" {
		t.Error("instructions override not loaded")
	}
	if cfg.Team.StartAgent != "PRODUCT_MANAGER" || cfg.Team.MaxHandoffs != 2 {
		t.Errorf("Team = %+v", cfg.Team)
	}
	if cfg.Team.Environment["NODE_ENV"] != "prod" {
		t.Errorf("Environment = %v", cfg.Team.Environment)
	}
	if cfg.LLM.DefaultProvider != "groq" {
		t.Errorf("DefaultProvider = %q, want %q", cfg.LLM.DefaultProvider, "groq")
	}
	if len(cfg.LLM.Providers) != 1 || cfg.LLM.Providers[0].APIKey != "test-key" {
		t.Errorf("Providers mismatch: %+v", cfg.LLM.Providers)
	}
	if cfg.LLM.Providers[0].RespTimeout != 45*time.Second {
		t.Errorf("RespTimeout = %v", cfg.LLM.Providers[0].RespTimeout)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("agent: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("team:\n  start_agent: JANITOR\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), `team.start_agent "JANITOR"`)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEVTEAM_LLM_DEFAULT_PROVIDER", "openai")
	t.Setenv("DEVTEAM_LOGGER_LEVEL", "debug")
	t.Setenv("DEVTEAM_AGENT_MODEL", "gpt-4o-mini")
	t.Setenv("DEVTEAM_AGENT_MAX_HISTORY", "3")
	t.Setenv("DEVTEAM_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("DEVTEAM_STORE_ENABLED", "true")
	t.Setenv("DEVTEAM_TRACER_ENABLED", "true")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Logger.Level != "debug" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "debug")
	}
	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Agent.Model)
	}
	if cfg.Agent.MaxHistory != 3 {
		t.Errorf("MaxHistory = %d", cfg.Agent.MaxHistory)
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Store.Enabled || !cfg.Tracer.Enabled {
		t.Error("store and tracer should be enabled")
	}
}

func TestEnvOverridesIgnoresInvalidHistory(t *testing.T) {
	t.Setenv("DEVTEAM_AGENT_MAX_HISTORY", "-2")
	cfg := Defaults()
	ApplyEnvOverrides(cfg)
	if cfg.Agent.MaxHistory != 10 {
		t.Errorf("MaxHistory = %d, want default 10", cfg.Agent.MaxHistory)
	}
}

func TestEnvOverridesProviderAPIKey(t *testing.T) {
	t.Setenv("DEVTEAM_LLM_API_KEY", "sk-env")
	t.Setenv("DEVTEAM_LLM_BASE_URL", "http://localhost:11434/v1")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.LLM.Providers[0].APIKey != "sk-env" {
		t.Errorf("APIKey = %q", cfg.LLM.Providers[0].APIKey)
	}
	if cfg.LLM.Providers[0].BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.LLM.Providers[0].BaseURL)
	}
}

func TestEnvOverridesOpenAIKeyFallback(t *testing.T) {
	t.Setenv("DEVTEAM_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)
	if cfg.LLM.Providers[0].APIKey != "sk-openai" {
		t.Errorf("APIKey = %q, want OPENAI_API_KEY fallback", cfg.LLM.Providers[0].APIKey)
	}

	cfg = Defaults()
	cfg.LLM.Providers[0].APIKey = "sk-file"
	ApplyEnvOverrides(cfg)
	if cfg.LLM.Providers[0].APIKey != "sk-file" {
		t.Errorf("fallback must not override configured key, got %q", cfg.LLM.Providers[0].APIKey)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	passphrase := "test-passphrase-123"
	plaintext := "sk-abcdef123456"

	encrypted, err := EncryptValue(plaintext, passphrase)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}

	decrypted, err := DecryptValue(encrypted, passphrase)
	if err != nil {
		t.Fatalf("DecryptValue: %v", err)
	}

	if decrypted != plaintext {
		t.Errorf("got %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	encrypted, err := EncryptValue("secret", "correct-pass")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptValue(encrypted, "wrong-pass"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestDecryptValueInvalidInputs(t *testing.T) {
	cases := map[string]string{
		"no separator":   "abcdef",
		"bad salt":       "zz:00",
		"bad ciphertext": "00:zz",
		"too short":      "00112233445566778899aabbccddeeff:00",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecryptValue(in, "pass"); err == nil {
				t.Errorf("expected error for %q", in)
			}
		})
	}
}

func TestDecryptSecrets(t *testing.T) {
	passphrase := "test-config-key"
	encKey, err := EncryptValue("sk-secret123456", passphrase)
	if err != nil {
		t.Fatal(err)
	}
	encEnv, err := EncryptValue("s3cr3t", passphrase)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	cfg.LLM.Providers = []ProviderConfig{
		{Name: "openai", APIKey: "enc:" + encKey},
		{Name: "local", APIKey: "plain"},
	}
	cfg.Team.Environment = map[string]string{"DB_PASSWORD": "enc:" + encEnv, "NODE_ENV": "prod"}

	if err := decryptSecrets(cfg, passphrase); err != nil {
		t.Fatalf("decryptSecrets: %v", err)
	}
	if cfg.LLM.Providers[0].APIKey != "sk-secret123456" {
		t.Errorf("APIKey = %q", cfg.LLM.Providers[0].APIKey)
	}
	if cfg.LLM.Providers[1].APIKey != "plain" {
		t.Errorf("plain key should remain unchanged")
	}
	if cfg.Team.Environment["DB_PASSWORD"] != "s3cr3t" || cfg.Team.Environment["NODE_ENV"] != "prod" {
		t.Errorf("Environment = %v", cfg.Team.Environment)
	}
}

func TestDecryptSecretsInvalidCiphertext(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Providers = []ProviderConfig{
		{Name: "openai", APIKey: "enc:notvalidhex"},
	}
	if err := decryptSecrets(cfg, "passphrase"); err == nil {
		t.Error("expected error for invalid ciphertext")
	}
}

func TestLoadWithConfigKey(t *testing.T) {
	passphrase := "test-load-key"
	plainKey := "sk-loadtest"

	encrypted, err := EncryptValue(plainKey, passphrase)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
llm:
  providers:
    - name: "openai"
      type: "openai"
      api_key: "enc:` + encrypted + `"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEVTEAM_CONFIG_KEY", passphrase)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Providers[0].APIKey != plainKey {
		t.Errorf("APIKey = %q, want %q", cfg.LLM.Providers[0].APIKey, plainKey)
	}
}

func TestLoadInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insecure.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  max_history: 5\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Chmod explicitly: WriteFile is subject to the process umask.
	if err := os.Chmod(path, 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for insecure permissions")
	}
}

func TestLoadErrorsCarrySentinels(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("agent: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, domain.ErrConfigLoad) {
		t.Errorf("parse error = %v, want ErrConfigLoad", err)
	}

	encrypted, err := EncryptValue("sk-x", "right")
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	content := "llm:\n  providers:\n    - name: openai\n      type: openai\n      api_key: \"enc:" + encrypted + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEVTEAM_CONFIG_KEY", "wrong")
	if _, err := Load(path); !errors.Is(err, domain.ErrDecryption) {
		t.Errorf("decrypt error = %v, want ErrDecryption", err)
	}
}
