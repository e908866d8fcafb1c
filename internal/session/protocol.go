package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Paths relative to the server root.
const (
	LogonPath  = "jaxrs/logon"
	LoadPath   = "jaxrs/admin/loadPlugin"
	SavePath   = "jaxrs/admin/configuration"
	TokenField = "security_token"
)

// DefaultDesktop is the ICN desktop used for admin calls. The admin desktop
// always exists, so users never have to configure one.
const DefaultDesktop = "admin"

// hijackPrefix is prepended by ICN servlets that guard JSON against hijacking.
const hijackPrefix = "{}&&"

// Descriptor is the plugin description returned by loadPlugin.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	ConfigClass string `json:"configClass"`
}

// Payload is the json_post value sent by the save step.
type Payload struct {
	Enabled      bool     `json:"enabled"`
	Filename     string   `json:"filename"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies"`
	Name         string   `json:"name"`
	ID           string   `json:"id"`
	ConfigClass  string   `json:"configClass"`
}

// NewPayload builds the configuration that activates d from fileName.
func NewPayload(d Descriptor, fileName string) Payload {
	return Payload{
		Enabled:      true,
		Filename:     fileName,
		Version:      d.Version,
		Dependencies: []string{},
		Name:         d.Name,
		ID:           d.ID,
		ConfigClass:  d.ConfigClass,
	}
}

// Message is one entry of the save response's messages array.
type Message struct {
	Text string `json:"text"`
}

type saveResponse struct {
	Messages *[]Message `json:"messages"`
}

// readLine returns the first line of r without its line terminator.
// Responses are single-line JSON documents; anything after the first
// newline is ignored. An empty stream yields ErrEmptyResponse.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if line == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// StripPrefix removes the anti-hijacking prefix if present.
func StripPrefix(body string) string {
	return strings.TrimPrefix(body, hijackPrefix)
}

// statusLine formats the response status the way servers print it,
// e.g. "HTTP/1.1 500 Internal Server Error".
func statusLine(resp *http.Response) string {
	return resp.Proto + " " + resp.Status
}

// parseToken extracts the security token from a logon body.
func parseToken(body string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return "", err
	}
	raw, ok := obj[TokenField]
	if !ok {
		return "", ErrMissingToken
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("%s is not a string: %w", TokenField, err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// parseDescriptor decodes a loadPlugin body. All four fields must be present.
func parseDescriptor(body string) (*Descriptor, error) {
	var raw struct {
		ID          *string `json:"id"`
		Name        *string `json:"name"`
		Version     *string `json:"version"`
		ConfigClass *string `json:"configClass"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, err
	}
	if raw.ID == nil || raw.Name == nil || raw.Version == nil || raw.ConfigClass == nil {
		return nil, ErrMissingFields
	}
	return &Descriptor{
		ID:          *raw.ID,
		Name:        *raw.Name,
		Version:     *raw.Version,
		ConfigClass: *raw.ConfigClass,
	}, nil
}

// parseMessages decodes a save body. A body without a messages array is
// valid and yields no messages.
func parseMessages(body string) ([]Message, error) {
	var resp saveResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		return nil, nil
	}
	return *resp.Messages, nil
}
