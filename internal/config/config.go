// Package config defines the tiendactl console configuration.
package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	API    APIConfig    `koanf:"api"`
	Auth   AuthConfig   `koanf:"auth"`
	Export ExportConfig `koanf:"export"`
	Log    LogConfig    `koanf:"log"`
}

type APIConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type AuthConfig struct {
	CredentialsFile string `koanf:"credentialsFile"`
	LoginRoute      string `koanf:"loginRoute"`
}

type ExportConfig struct {
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("\n--- API ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.API.URL))
	b.WriteString(fmt.Sprintf("  timeout: %v\n", c.API.Timeout))
	b.WriteString("--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  credentialsFile: %s\n", c.Auth.CredentialsFile))
	b.WriteString(fmt.Sprintf("  loginRoute: %s\n", c.Auth.LoginRoute))
	b.WriteString("--- Export ---\n")
	b.WriteString(fmt.Sprintf("  dir: %s\n", c.Export.Dir))
	b.WriteString("--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Log.Level))
	return b.String()
}

func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid api.timeout: %v", c.API.Timeout)
	}
	if c.Auth.CredentialsFile == "" {
		c.Auth.CredentialsFile = ".tiendactl/token"
	}
	if c.Auth.LoginRoute == "" {
		c.Auth.LoginRoute = "/inicio-sesion"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	return nil
}
