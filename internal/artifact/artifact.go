// Package artifact locates the plugin jar produced by a build.
package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// TargetDir is the build output directory, relative to the working directory.
const TargetDir = "target"

var (
	// ErrNotFound is returned when the target directory holds no jar.
	ErrNotFound = errors.New("no jar file found")
	// ErrAmbiguous is returned when the target directory holds several jars.
	ErrAmbiguous = errors.New("more than one jar file found")
)

// Find returns the path of the single *.jar in <workingDir>/target.
func Find(fs afero.Fs, workingDir string) (string, error) {
	dir := filepath.Join(workingDir, TargetDir)
	matches, err := afero.Glob(fs, filepath.Join(dir, "*.jar"))
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}

	var jars []string
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", m, err)
		}
		if !info.IsDir() {
			jars = append(jars, m)
		}
	}
	sort.Strings(jars)

	switch len(jars) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
	case 1:
		return jars[0], nil
	default:
		names := make([]string, len(jars))
		for i, j := range jars {
			names[i] = filepath.Base(j)
		}
		return "", fmt.Errorf("%w in %s: %s", ErrAmbiguous, dir, strings.Join(names, ", "))
	}
}

// RemoteName is the file name the server loads the plugin from: the jar's
// base name inside pluginDir. An empty pluginDir yields the bare name.
func RemoteName(pluginDir, jarPath string) string {
	name := filepath.Base(jarPath)
	if pluginDir == "" {
		return name
	}
	if strings.HasSuffix(pluginDir, "/") || strings.HasSuffix(pluginDir, `\`) {
		return pluginDir + name
	}
	sep := "/"
	if strings.Contains(pluginDir, `\`) && !strings.Contains(pluginDir, "/") {
		sep = `\`
	}
	return pluginDir + sep + name
}
