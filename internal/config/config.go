package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr   string `env:"CONVOPTS_LISTEN_ADDR" envDefault:":8080"`
	DBURL        string `env:"CONVOPTS_DB_URL"`
	SQLitePath   string `env:"CONVOPTS_SQLITE_PATH"`
	TLSCertPath  string `env:"CONVOPTS_TLS_CERT"`
	TLSKeyPath   string `env:"CONVOPTS_TLS_KEY"`
	APIToken     string `env:"CONVOPTS_API_TOKEN"`
	APITokenHash string `env:"CONVOPTS_API_TOKEN_BCRYPT"`
	LinkBaseURL  string `env:"CONVOPTS_LINK_BASE_URL" envDefault:"http://localhost:8080/join"`
	LinksEnabled bool   `env:"CONVOPTS_LINKS_ENABLED" envDefault:"true"`
}

func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LinkBaseURL = strings.TrimRight(strings.TrimSpace(cfg.LinkBaseURL), "/")
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen addr is required")
	}
	if c.DBURL == "" && c.SQLitePath == "" {
		return errors.New("db url or sqlite path is required")
	}
	if c.DBURL != "" && c.SQLitePath != "" {
		return errors.New("db url and sqlite path are mutually exclusive")
	}
	switch {
	case c.APIToken != "" && c.APITokenHash != "":
		return errors.New("api token and api token hash are mutually exclusive")
	case c.APITokenHash != "":
		if !strings.HasPrefix(c.APITokenHash, "$2") {
			return errors.New("api token hash must be a bcrypt hash")
		}
	case len(c.APIToken) < 16:
		return errors.New("api token must be at least 16 characters")
	}
	if c.LinksEnabled {
		u, err := url.Parse(c.LinkBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("link base url must be an absolute url")
		}
	}
	if (c.TLSCertPath == "") != (c.TLSKeyPath == "") {
		return errors.New("both tls cert and key are required when enabling tls")
	}
	return nil
}
