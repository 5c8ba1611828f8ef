package config

import (
	"testing"
	"time"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 0},
		Database: DatabaseConfig{Driver: "memory"},
		Mail:     MailConfig{Driver: "log"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "redis"},
		Mail:     MailConfig{Driver: "log"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "datastore"},
		Mail:     MailConfig{Driver: "log"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}

	expected := `database.driver must be "redis", "sqlite" or "memory", got "datastore"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_SMTPRequiresHost(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
		Mail:     MailConfig{Driver: "smtp"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for smtp without host")
	}
}

func TestValidate_FallbackOffsetRange(t *testing.T) {
	off := 20
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
		Mail:     MailConfig{Driver: "log"},
		Notify:   NotifyConfig{FallbackOffsetHours: &off},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out of range offset")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 4200}}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path == "" {
		t.Error("expected default sqlite path")
	}
	if cfg.Storage.KeyPrefix != "pda:" {
		t.Errorf("key prefix = %q, want pda:", cfg.Storage.KeyPrefix)
	}
	if cfg.App.Origin != "http://localhost:4200" {
		t.Errorf("origin = %q", cfg.App.Origin)
	}
	if cfg.Search.BatchSize != MaxSearchBatch {
		t.Errorf("batch size = %d, want %d", cfg.Search.BatchSize, MaxSearchBatch)
	}
	if cfg.Fix.PageSize != 100 {
		t.Errorf("fix page size = %d, want 100", cfg.Fix.PageSize)
	}
	if cfg.Notify.Schedule != DefaultSchedule {
		t.Errorf("schedule = %q, want %q", cfg.Notify.Schedule, DefaultSchedule)
	}
	if cfg.Notify.FallbackOffset() != -7*time.Hour {
		t.Errorf("fallback offset = %v, want -7h", cfg.Notify.FallbackOffset())
	}
}

func TestApplyDefaults_ClampsBatchSize(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 4200}, Search: SearchConfig{BatchSize: 500}}
	cfg.ApplyDefaults()

	if cfg.Search.BatchSize != MaxSearchBatch {
		t.Errorf("batch size = %d, want clamp to %d", cfg.Search.BatchSize, MaxSearchBatch)
	}
}

func TestApplyDefaults_KeepsZeroOffset(t *testing.T) {
	zero := 0
	cfg := Config{HTTP: HTTPConfig{Port: 4200}, Notify: NotifyConfig{FallbackOffsetHours: &zero}}
	cfg.ApplyDefaults()

	if cfg.Notify.FallbackOffset() != 0 {
		t.Errorf("fallback offset = %v, want 0", cfg.Notify.FallbackOffset())
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PDA_TEST_PORT", "9090")

	data := []byte(`
http:
  port: ${PDA_TEST_PORT}
database:
  driver: memory
app:
  name: ${PDA_TEST_UNSET:-pda2go}
  origin: https://pda.example.com/
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.App.Name != "pda2go" {
		t.Errorf("name = %q, want pda2go", cfg.App.Name)
	}
	if cfg.App.Origin != "https://pda.example.com" {
		t.Errorf("origin = %q, want trailing slash trimmed", cfg.App.Origin)
	}
}

func TestGetEnv_Default(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("PDA_ORIGIN", "https://pda.example.com")

	local, err := Load("local")
	if err != nil {
		t.Fatalf("Load local: %v", err)
	}
	if local.Mail.Driver != "log" {
		t.Errorf("local mail driver = %q, want log", local.Mail.Driver)
	}

	prod, err := Load("prod")
	if err != nil {
		t.Fatalf("Load prod: %v", err)
	}
	if prod.Database.Driver != "redis" || prod.Mail.Driver != "smtp" {
		t.Errorf("prod drivers = %q/%q, want redis/smtp", prod.Database.Driver, prod.Mail.Driver)
	}
	if prod.Notify.Schedule != DefaultSchedule {
		t.Errorf("prod schedule = %q", prod.Notify.Schedule)
	}
}
