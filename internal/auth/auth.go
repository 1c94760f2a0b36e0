// Package auth provides RIT API credential handling for both connection modes.
//
// The RIT server exposes two REST surfaces:
//   - Client API: authenticated with an X-API-Key header (local RIT client)
//   - DMA API: authenticated with HTTP Basic credentials (direct market access)
package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Connection modes.
const (
	ModeClient = "client"
	ModeDMA    = "dma"
)

// Credentials holds everything needed to reach an RIT REST endpoint.
// Loaded from the creds section of the config file.
type Credentials struct {
	APIKey              string `yaml:"api_key"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	AuthorizationHeader string `yaml:"authorization_header"`
	BaseURL             string `yaml:"base_url"`
	DMABaseURL          string `yaml:"dma_base_url"`
	ClientBaseURL       string `yaml:"client_base_url"`
	DMAHost             string `yaml:"dma_host"`
	ServerHost          string `yaml:"server_host"`
	DMAPort             int    `yaml:"dma_port"`
}

// DefaultClientBaseURL is used when the client mode has no configured base URL.
const DefaultClientBaseURL = "http://localhost:9999"

// ResolveMode picks the connection mode. An explicit override wins; otherwise
// DMA is assumed unless only an API key is configured.
func ResolveMode(c Credentials, override string) string {
	if override != "" {
		return override
	}
	if c.APIKey != "" && c.Username == "" && c.AuthorizationHeader == "" {
		return ModeClient
	}
	return ModeDMA
}

// ResolveBaseURL determines the API base URL for the given mode.
// An explicit override wins; DMA mode falls back to host:port if no URL is set.
func ResolveBaseURL(c Credentials, mode, override string) (string, error) {
	if override != "" {
		return NormalizeBaseURL(override), nil
	}

	if mode == ModeClient {
		base := c.ClientBaseURL
		if base == "" {
			base = DefaultClientBaseURL
		}
		return NormalizeBaseURL(base), nil
	}

	if c.DMABaseURL != "" {
		return NormalizeBaseURL(c.DMABaseURL), nil
	}
	if c.BaseURL != "" {
		return NormalizeBaseURL(c.BaseURL), nil
	}

	host := c.DMAHost
	if host == "" {
		host = c.ServerHost
	}
	if host != "" && c.DMAPort != 0 {
		return NormalizeBaseURL(fmt.Sprintf("http://%s:%d", host, c.DMAPort)), nil
	}

	return "", fmt.Errorf("missing base URL configuration in creds")
}

// NormalizeBaseURL strips a trailing slash and a trailing /v1 segment, so
// configured URLs may include either form.
func NormalizeBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1")
	return base
}

// Headers builds the authentication headers for the given mode.
func Headers(c Credentials, mode string) (map[string]string, error) {
	if mode == ModeClient {
		if c.APIKey == "" {
			return nil, fmt.Errorf("missing api_key for client REST API")
		}
		return map[string]string{"X-API-Key": c.APIKey}, nil
	}

	if c.AuthorizationHeader != "" {
		return map[string]string{"Authorization": c.AuthorizationHeader}, nil
	}

	if c.Username == "" || c.Password == "" {
		return nil, fmt.Errorf("missing username/password for DMA REST API")
	}
	return map[string]string{"Authorization": BasicAuth(c.Username, c.Password)}, nil
}

// BasicAuth returns an HTTP Basic Authorization header value.
func BasicAuth(username, password string) string {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + token
}
