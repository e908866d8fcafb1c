package session

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the inputs of one plugin update.
type Config struct {
	// ServerURL is the ICN root, e.g. https://host:9443/navigator/.
	ServerURL string
	Username  string
	Password  string
	// ArtifactFileName is the plugin file name as the server sees it.
	ArtifactFileName string
	// Timeout bounds each request. Zero leaves the transport default.
	Timeout time.Duration
}

// Validate reports the first empty field.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"file", c.ArtifactFileName},
		{"username", c.Username},
		{"password", c.Password},
		{"url", c.ServerURL},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s can't be empty", f.name)
		}
	}
	return nil
}

// baseURL returns ServerURL with a trailing slash.
func (c Config) baseURL() string {
	if strings.HasSuffix(c.ServerURL, "/") {
		return c.ServerURL
	}
	return c.ServerURL + "/"
}
