// Package task is the build step: it finds the jar a build produced and
// pushes it to each configured ICN target.
package task

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/islo-labs/icn-push/internal/artifact"
	"github.com/islo-labs/icn-push/internal/config"
	"github.com/islo-labs/icn-push/internal/credential"
	"github.com/islo-labs/icn-push/internal/session"
)

// PasswordSource looks up stored target passwords.
type PasswordSource interface {
	Get(target string) (string, error)
}

// Runner deploys targets.
type Runner struct {
	Logger hclog.Logger
	// Fs is where working directories are searched. Defaults to the OS.
	Fs afero.Fs
	// Credentials is consulted when a target has neither password nor
	// password_env set. May be nil.
	Credentials PasswordSource
	HTTPClient  *http.Client
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (r *Runner) logger() hclog.Logger {
	if r.Logger == nil {
		return hclog.NewNullLogger()
	}
	return r.Logger
}

// Run deploys the build artifact to one target.
func (r *Runner) Run(ctx context.Context, t config.Target) error {
	log := r.logger().Named(t.Name)
	log.Info("*****************  ICN Plugin Updater *****************")
	log.Info("use login : " + t.Username)

	fs := r.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir, err := filepath.Abs(t.Dir())
	if err != nil {
		return fmt.Errorf("target %s: resolving working directory: %w", t.Name, err)
	}
	log.Info("workingDir directory is " + dir)
	log.Info("jarDir directory is " + filepath.Join(dir, artifact.TargetDir))

	jar, err := artifact.Find(fs, dir)
	if err != nil {
		log.Error(err.Error())
		return fmt.Errorf("target %s: %w", t.Name, err)
	}
	log.Info("jar file name is " + filepath.Base(jar))

	timeout, err := t.RequestTimeout()
	if err != nil {
		return fmt.Errorf("target %s: %w", t.Name, err)
	}
	fileName := artifact.RemoteName(t.PluginDir, jar)
	log.Info("updating ICN plugin version to " + fileName)

	cfg := session.Config{
		ServerURL:        t.URL,
		Username:         t.Username,
		Password:         r.password(log, t),
		ArtifactFileName: fileName,
		Timeout:          timeout,
	}
	s := session.New(cfg, log.Named("session"), session.WithHTTPClient(r.HTTPClient))
	if err := s.Deploy(ctx); err != nil {
		return fmt.Errorf("target %s: %w", t.Name, err)
	}
	log.Info("plugin updated")
	return nil
}

// RunAll deploys targets in order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, targets []config.Target) error {
	if len(targets) == 0 {
		return errors.New("no targets to deploy")
	}
	for _, t := range targets {
		if err := r.Run(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// password resolves the target password: literal, then environment, then
// keyring. An unresolved password is left empty for the session to reject.
func (r *Runner) password(log hclog.Logger, t config.Target) string {
	if t.Password != "" {
		return t.Password
	}
	if t.PasswordEnv != "" {
		getenv := r.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		if pw := getenv(t.PasswordEnv); pw != "" {
			return pw
		}
		log.Warn("password environment variable is empty", "variable", t.PasswordEnv)
	}
	if r.Credentials == nil {
		return ""
	}
	pw, err := r.Credentials.Get(t.Name)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			log.Warn("keyring lookup failed", "error", err)
		}
		return ""
	}
	return pw
}
