// Package media locates generated content on disk and inspects media files.
package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/blacktop/genpost/internal/genpost"
)

const (
	// DefaultRoot is where generators write their output.
	DefaultRoot = "generated_content"

	DefaultImageMIME = "image/jpeg"
	DefaultVideoMIME = "video/mp4"
)

var extensions = map[genpost.ContentType][]string{
	genpost.Image: {".png", ".jpg", ".jpeg"},
	genpost.Video: {".mp4", ".mov"},
}

// Library maps content types onto their output directories.
type Library struct {
	Root string
}

// NewLibrary returns a Library rooted at root, or DefaultRoot when empty.
func NewLibrary(root string) Library {
	if strings.TrimSpace(root) == "" {
		root = DefaultRoot
	}
	return Library{Root: root}
}

// Dir returns the output directory for t.
func (l Library) Dir(t genpost.ContentType) string {
	switch t {
	case genpost.Video:
		return filepath.Join(l.Root, "videos")
	default:
		return filepath.Join(l.Root, "images")
	}
}

// EnsureDir creates the output directory for t.
func (l Library) EnsureDir(t genpost.ContentType) (string, error) {
	dir := l.Dir(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// Latest returns the absolute path of the most recently modified file of type t.
// It returns an empty string when the directory is missing or holds no match.
func (l Library) Latest(t genpost.ContentType) (string, error) {
	dir := l.Dir(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", dir, err)
	}

	var (
		latest   string
		latestAt time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !HasExtension(entry.Name(), t) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestAt) {
			latest = entry.Name()
			latestAt = info.ModTime()
		}
	}
	if latest == "" {
		return "", nil
	}
	return filepath.Abs(filepath.Join(dir, latest))
}

// TimestampedPath builds a new output path such as images/image_20241208_153000.png.
func (l Library) TimestampedPath(t genpost.ContentType, prefix, ext string, now time.Time) string {
	name := fmt.Sprintf("%s_%s%s", prefix, now.Format("20060102_150405"), ext)
	return filepath.Join(l.Dir(t), name)
}

// HasExtension reports whether name carries one of the extensions expected for t.
func HasExtension(name string, t genpost.ContentType) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range extensions[t] {
		if ext == candidate {
			return true
		}
	}
	return false
}

// IsFile reports whether path names an existing regular file.
func IsFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ContentType guesses the MIME type of path, falling back to the default for t.
func ContentType(path string, t genpost.ContentType) string {
	fallback := DefaultImageMIME
	prefix := "image/"
	if t == genpost.Video {
		fallback = DefaultVideoMIME
		prefix = "video/"
	}

	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); mt != "" {
		if base, _, _ := strings.Cut(mt, ";"); strings.HasPrefix(base, prefix) {
			return base
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := f.Read(head)
	if detected := http.DetectContentType(head[:n]); strings.HasPrefix(detected, prefix) {
		return detected
	}
	return fallback
}

// Resolution returns the pixel dimensions of an image file as WIDTHxHEIGHT.
func Resolution(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), nil
}
