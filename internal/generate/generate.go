// Package generate produces images and videos with OpenAI and stores them locally.
package generate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/media"
	"github.com/openai/openai-go"
)

var (
	downloadTimeout     = 60 * time.Second
	defaultPollInterval = 10 * time.Second
)

// Asset describes one generated file.
type Asset struct {
	ID            string
	URL           string
	LocalPath     string
	RevisedPrompt string

	Type        genpost.ContentType
	Platform    string
	Size        string
	Quality     string
	AspectRatio string
	Resolution  string
	Seconds     int
}

// Generator talks to the image and video endpoints.
type Generator struct {
	client        *openai.Client
	library       media.Library
	http          *http.Client
	guidelinesDir string
	pollInterval  time.Duration
	now           func() time.Time
}

// Option customizes a Generator.
type Option func(*Generator)

// WithHTTPClient sets the client used to download generated images.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Generator) {
		if hc != nil {
			g.http = hc
		}
	}
}

// WithGuidelinesDir changes where video prompt guidelines are read from.
func WithGuidelinesDir(dir string) Option {
	return func(g *Generator) { g.guidelinesDir = dir }
}

// WithPollInterval sets how often video jobs are polled.
func WithPollInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithClock overrides time.Now for file naming.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New returns a Generator writing under lib.
func New(client *openai.Client, lib media.Library, opts ...Option) *Generator {
	g := &Generator{
		client:       client,
		library:      lib,
		http:         &http.Client{Timeout: downloadTimeout},
		pollInterval: defaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Library returns where generated files are stored.
func (g *Generator) Library() media.Library { return g.library }

func (g *Generator) outputPath(t genpost.ContentType, prefix, ext string) (string, error) {
	if _, err := g.library.EnsureDir(t); err != nil {
		return "", err
	}
	path := g.library.TimestampedPath(t, prefix, ext, g.now())
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	logutil.Debugf("saved %s", path)
	return nil
}
