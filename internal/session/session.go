// Package session pushes a plugin jar to an IBM Content Navigator server and
// activates it: log on, reload the plugin file, save the plugin configuration.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/net/publicsuffix"
)

// Session runs the logon/reload/save workflow for one Config.
type Session struct {
	cfg     Config
	logger  hclog.Logger
	client  *http.Client
	desktop string
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the client whose transport carries the requests.
// The client itself is not modified; each run uses its own cookie jar.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		if c != nil {
			s.client = c
		}
	}
}

// WithDesktop overrides the ICN desktop sent with every request.
func WithDesktop(desktop string) Option {
	return func(s *Session) { s.desktop = desktop }
}

// New creates a Session. A nil logger discards output.
func New(cfg Config, logger hclog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Session{
		cfg:     cfg,
		logger:  logger,
		client:  http.DefaultClient,
		desktop: DefaultDesktop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs the update and reports whether all three steps succeeded.
// Failures are logged, never returned.
func (s *Session) Run(ctx context.Context) bool {
	return s.Deploy(ctx) == nil
}

// Deploy performs the update. On failure it returns an *Error describing the
// step and the kind of failure; the same detail has already been logged.
func (s *Session) Deploy(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		s.logger.Error(err.Error())
		return stepError(StepValidate, KindConfiguration, err)
	}

	client, err := s.newClient()
	if err != nil {
		s.logger.Error("cannot create cookie jar", "error", err)
		return stepError(StepValidate, KindConfiguration, err)
	}
	base := s.cfg.baseURL()

	token, err := s.logon(ctx, client, base)
	if err != nil {
		return err
	}
	desc, err := s.reload(ctx, client, base, token)
	if err != nil {
		return err
	}
	return s.save(ctx, client, base, token, desc)
}

// newClient returns a client sharing s.client's transport with a fresh
// cookie jar, so session cookies live exactly as long as one run.
func (s *Session) newClient() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	c := *s.client
	c.Jar = jar
	if s.cfg.Timeout > 0 {
		c.Timeout = s.cfg.Timeout
	}
	return &c, nil
}

// post sends a form-encoded POST. The caller must close the response body.
func (s *Session) post(ctx context.Context, client *http.Client, endpoint string, form url.Values, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set(TokenField, token)
	}
	return client.Do(req)
}

// logon authenticates and returns the security token. The session cookies
// stay in the client's jar.
func (s *Session) logon(ctx context.Context, client *http.Client, base string) (string, error) {
	s.logger.Info(fmt.Sprintf("Connecting to ICN as %s...", s.cfg.Username))

	form := url.Values{
		"userid":   {s.cfg.Username},
		"password": {s.cfg.Password},
		"desktop":  {s.desktop},
	}
	resp, err := s.post(ctx, client, base+LogonPath, form, "")
	if err != nil {
		s.logger.Error(fmt.Sprintf("logon request failed: %v", err))
		return "", stepError(StepLogon, KindTransport, err)
	}
	defer resp.Body.Close()
	s.logger.Debug("logon answered", "status", statusLine(resp))

	body, err := readLine(resp.Body)
	if errors.Is(err, ErrEmptyResponse) {
		s.logger.Error("Empty response from the server while logging in.")
		return "", stepError(StepLogon, KindResponseFormat, err)
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("reading logon response: %v", err))
		return "", stepError(StepLogon, KindTransport, err)
	}
	body = StripPrefix(body)

	token, err := parseToken(body)
	switch {
	case errors.Is(err, ErrMissingToken):
		s.logger.Info("KO")
		s.logger.Error("Exception while logging into ICN. Response was " + body)
		return "", stepError(StepLogon, KindResponseFormat, err)
	case err != nil:
		s.logger.Error(err.Error())
		s.logger.Info("Login response was: " + body)
		return "", stepError(StepLogon, KindResponseFormat, err)
	}
	s.logger.Info("OK")
	return token, nil
}

// reload asks the server to load the plugin file and returns its descriptor.
func (s *Session) reload(ctx context.Context, client *http.Client, base, token string) (*Descriptor, error) {
	s.logger.Info(fmt.Sprintf("Reloading plugin %s...", s.cfg.ArtifactFileName))

	form := url.Values{
		"fileName": {s.cfg.ArtifactFileName},
		"desktop":  {s.desktop},
	}
	resp, err := s.post(ctx, client, base+LoadPath, form, token)
	if err != nil {
		s.logger.Error(fmt.Sprintf("loadPlugin request failed: %v", err))
		return nil, stepError(StepReload, KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		line := statusLine(resp)
		s.logger.Info("KO")
		s.logger.Error(LoadPath + " returned " + line)
		return nil, stepError(StepReload, KindProtocol, fmt.Errorf("%s returned %s", LoadPath, line))
	}

	body, err := readLine(resp.Body)
	if errors.Is(err, ErrEmptyResponse) {
		s.logger.Error("Empty response from the server while reloading the plugin.")
		return nil, stepError(StepReload, KindResponseFormat, err)
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("reading loadPlugin response: %v", err))
		return nil, stepError(StepReload, KindTransport, err)
	}
	body = StripPrefix(body)

	desc, err := parseDescriptor(body)
	switch {
	case errors.Is(err, ErrMissingFields):
		s.logger.Info("KO")
		s.logger.Error("Response does not have correct attributes: " + body)
		s.logger.Info("It should contain the following attributes: name, id, version, configClass")
		return nil, stepError(StepReload, KindResponseFormat, err)
	case err != nil:
		s.logger.Error(err.Error())
		s.logger.Info("LoadPlugin response was: " + body)
		return nil, stepError(StepReload, KindResponseFormat, err)
	}

	s.logger.Info("OK")
	s.logger.Info(fmt.Sprintf("Plug-in %s (id: %s) successfully reloaded.", desc.Name, desc.ID))
	return desc, nil
}

// save stores the plugin configuration built from desc, activating it.
func (s *Session) save(ctx context.Context, client *http.Client, base, token string, desc *Descriptor) error {
	s.logger.Info("Saving configuration...")

	payload, err := json.Marshal(NewPayload(*desc, s.cfg.ArtifactFileName))
	if err != nil {
		s.logger.Error(fmt.Sprintf("encoding configuration: %v", err))
		return stepError(StepSave, KindResponseFormat, err)
	}
	form := url.Values{
		"action":        {"update"},
		"id":            {desc.ID},
		"configuration": {"PluginConfig"},
		"desktop":       {s.desktop},
		"json_post":     {string(payload)},
	}
	resp, err := s.post(ctx, client, base+SavePath, form, token)
	if err != nil {
		s.logger.Error(fmt.Sprintf("configuration request failed: %v", err))
		return stepError(StepSave, KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		line := statusLine(resp)
		s.logger.Info("KO")
		s.logger.Error(SavePath + " returned " + line)
		return stepError(StepSave, KindProtocol, fmt.Errorf("%s returned %s", SavePath, line))
	}

	body, err := readLine(resp.Body)
	if errors.Is(err, ErrEmptyResponse) {
		s.logger.Error("Empty response from the server while saving the configuration.")
		return stepError(StepSave, KindResponseFormat, err)
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("reading configuration response: %v", err))
		return stepError(StepSave, KindTransport, err)
	}
	body = StripPrefix(body)

	messages, err := parseMessages(body)
	if err != nil {
		s.logger.Error(err.Error())
		s.logger.Info("configuration response was: " + body)
		return stepError(StepSave, KindResponseFormat, err)
	}
	if len(messages) == 0 {
		s.logger.Info("No message returned.")
		return nil
	}
	s.logger.Info("Returned message is:")
	for _, m := range messages {
		s.logger.Info(m.Text)
	}
	return nil
}
