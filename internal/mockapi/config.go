package mockapi

import (
	"fmt"
	"time"
)

// Config is the mockapi binary configuration.
type Config struct {
	HTTP struct {
		Port    int `koanf:"port"`
		Timeout struct {
			Read       time.Duration `koanf:"read"`
			Write      time.Duration `koanf:"write"`
			Idle       time.Duration `koanf:"idle"`
			ReadHeader time.Duration `koanf:"readHeader"`
		} `koanf:"timeout"`
	} `koanf:"http"`
	DB struct {
		Path string `koanf:"path"`
	} `koanf:"db"`
	Seed     bool `koanf:"seed"`
	Shutdown struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"shutdown"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func (c *Config) Validate() error {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.HTTP.Port)
	}
	if c.HTTP.Timeout.Read == 0 {
		c.HTTP.Timeout.Read = 5 * time.Second
	}
	if c.HTTP.Timeout.Write == 0 {
		c.HTTP.Timeout.Write = 10 * time.Second
	}
	if c.HTTP.Timeout.Idle == 0 {
		c.HTTP.Timeout.Idle = time.Minute
	}
	if c.HTTP.Timeout.ReadHeader == 0 {
		c.HTTP.Timeout.ReadHeader = 5 * time.Second
	}
	if c.DB.Path == "" {
		c.DB.Path = "mockapi.db"
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = 10 * time.Second
	}
	return nil
}
