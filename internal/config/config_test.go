package config

import (
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONVOPTS_LISTEN_ADDR", ":9090")
	t.Setenv("CONVOPTS_DB_URL", "postgres://user@localhost/db")
	t.Setenv("CONVOPTS_TLS_CERT", "/tmp/cert.pem")
	t.Setenv("CONVOPTS_TLS_KEY", "/tmp/key.pem")
	t.Setenv("CONVOPTS_API_TOKEN", "0123456789abcdef")
	t.Setenv("CONVOPTS_LINK_BASE_URL", "https://chat.example/join/")
	t.Setenv("CONVOPTS_LINKS_ENABLED", "false")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.DBURL != "postgres://user@localhost/db" {
		t.Fatalf("DBURL = %q", cfg.DBURL)
	}
	if cfg.TLSCertPath != "/tmp/cert.pem" || cfg.TLSKeyPath != "/tmp/key.pem" {
		t.Fatalf("TLS paths = %q %q", cfg.TLSCertPath, cfg.TLSKeyPath)
	}
	if cfg.APIToken != "0123456789abcdef" {
		t.Fatalf("APIToken = %q", cfg.APIToken)
	}
	if cfg.LinkBaseURL != "https://chat.example/join" {
		t.Fatalf("LinkBaseURL = %q", cfg.LinkBaseURL)
	}
	if cfg.LinksEnabled {
		t.Fatal("LinksEnabled should be false")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("CONVOPTS_LISTEN_ADDR", "")
	t.Setenv("CONVOPTS_LINK_BASE_URL", "")
	t.Setenv("CONVOPTS_LINKS_ENABLED", "")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if !cfg.LinksEnabled {
		t.Fatal("LinksEnabled should default to true")
	}
}

func TestLoadFromEnvInvalidBool(t *testing.T) {
	t.Setenv("CONVOPTS_LINKS_ENABLED", "maybe")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected parse error")
	}
}

func validConfig() Config {
	return Config{
		ListenAddr:   ":8080",
		DBURL:        "postgres://",
		APIToken:     "0123456789abcdef",
		LinkBaseURL:  "https://chat.example/join",
		LinksEnabled: true,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "sqlite instead of postgres", mutate: func(c *Config) { c.DBURL = ""; c.SQLitePath = "/tmp/convopts.db" }},
		{name: "missing listen addr", mutate: func(c *Config) { c.ListenAddr = "" }, wantErr: true},
		{name: "missing store", mutate: func(c *Config) { c.DBURL = "" }, wantErr: true},
		{name: "both stores", mutate: func(c *Config) { c.SQLitePath = "/tmp/convopts.db" }, wantErr: true},
		{name: "short token", mutate: func(c *Config) { c.APIToken = "short" }, wantErr: true},
		{name: "token hash", mutate: func(c *Config) { c.APIToken = ""; c.APITokenHash = "$2a$10$abcdefghijklmnopqrstuv" }},
		{name: "token hash not bcrypt", mutate: func(c *Config) { c.APIToken = ""; c.APITokenHash = "plain" }, wantErr: true},
		{name: "token and hash", mutate: func(c *Config) { c.APITokenHash = "$2a$10$abcdefghijklmnopqrstuv" }, wantErr: true},
		{name: "relative link base", mutate: func(c *Config) { c.LinkBaseURL = "/join" }, wantErr: true},
		{name: "links disabled ignores base", mutate: func(c *Config) { c.LinkBaseURL = ""; c.LinksEnabled = false }},
		{name: "tls cert only", mutate: func(c *Config) { c.TLSCertPath = "/tmp/cert.pem" }, wantErr: true},
		{name: "tls key only", mutate: func(c *Config) { c.TLSKeyPath = "/tmp/key.pem" }, wantErr: true},
		{name: "tls both", mutate: func(c *Config) { c.TLSCertPath = "/tmp/cert.pem"; c.TLSKeyPath = "/tmp/key.pem" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}
