package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config passes",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing api url fails",
			mutate:  func(c *Config) { c.API.URL = "" },
			wantErr: "api.url is required",
		},
		{
			name:    "negative timeout fails",
			mutate:  func(c *Config) { c.API.Timeout = -time.Second },
			wantErr: "invalid api.timeout",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			cfg := &Config{}
			cfg.API.URL = "http://localhost:3000"
			cfg.API.Timeout = 5 * time.Second
			tc.mutate(cfg)

			// when
			err := cfg.Validate()

			// then
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_Config_ValidateAppliesDefaults(t *testing.T) {
	// given: only the required field is set
	cfg := &Config{}
	cfg.API.URL = "http://localhost:3000"

	// when
	require.NoError(t, cfg.Validate())

	// then
	assert.Equal(t, ".tiendactl/token", cfg.Auth.CredentialsFile)
	assert.Equal(t, "/inicio-sesion", cfg.Auth.LoginRoute)
	assert.Equal(t, ".", cfg.Export.Dir)
}
