package advisor

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blacktop/genpost/internal/logutil"
)

// Guideline documents understood by the compliance checks.
const (
	PolicyGuidelines = "policy_guidelines.md"
	DesignGuidelines = "design_guidelines.md"

	// DefaultGuidelinesDir is searched relative to the working directory.
	DefaultGuidelinesDir = "guidelines"
)

//go:embed guidelines/*.md
var builtinGuidelines embed.FS

// Guidelines returns the named document from dir, or the built-in copy when
// the file is absent or empty.
func Guidelines(dir, name string) (string, error) {
	if dir == "" {
		dir = DefaultGuidelinesDir
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	switch {
	case err == nil && strings.TrimSpace(string(data)) != "":
		logutil.Debugf("using guidelines from %s", path)
		return string(data), nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read guidelines %s: %w", path, err)
	}

	data, err = builtinGuidelines.ReadFile("guidelines/" + name)
	if err != nil {
		return "", fmt.Errorf("unknown guidelines %q", name)
	}
	return string(data), nil
}
