// Package config resolves credentials from the environment and persists generation settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blacktop/genpost/internal/genpost"
	"gopkg.in/yaml.v3"
)

// Settings mirrors what the user picks in the configuration wizard.
type Settings struct {
	TargetPlatforms     []string `yaml:"target_platforms"`
	VideoDuration       int      `yaml:"video_duration"`
	VideoAspectRatio    string   `yaml:"video_aspect_ratio"`
	EnableCaptions      bool     `yaml:"enable_captions"`
	CaptionStyle        string   `yaml:"caption_style"`
	ImageSize           string   `yaml:"image_size"`
	ImageQuality        string   `yaml:"image_quality"`
	AutoComplianceCheck bool     `yaml:"auto_compliance_check"`
	AutoPublish         bool     `yaml:"auto_publish"`
	OutputDir           string   `yaml:"output_dir,omitempty"`
}

const (
	MinVideoDuration = 5
	MaxVideoDuration = 60
)

// AspectRatio describes one supported video frame.
type AspectRatio struct {
	Ratio       string
	Size        string
	Description string
}

// AspectRatios lists the supported video aspect ratios in display order.
var AspectRatios = []AspectRatio{
	{"16:9", "1920x1080", "Landscape - YouTube, LinkedIn, Twitter"},
	{"9:16", "1080x1920", "Portrait - TikTok, Reels, Shorts"},
	{"1:1", "1080x1080", "Square - Instagram Feed, Facebook"},
	{"4:5", "1080x1350", "Portrait - Instagram Feed optimal"},
}

var (
	ImageSizes     = []string{"1024x1024", "1792x1024", "1024x1792"}
	ImageQualities = []string{"standard", "hd"}
	CaptionStyles  = []string{"professional", "casual", "creative"}
)

// Defaults returns the settings used before the user configures anything.
func Defaults() Settings {
	return Settings{
		TargetPlatforms:     []string{string(genpost.LinkedIn)},
		VideoDuration:       10,
		VideoAspectRatio:    "16:9",
		EnableCaptions:      true,
		CaptionStyle:        "professional",
		ImageSize:           "1024x1024",
		ImageQuality:        "hd",
		AutoComplianceCheck: true,
		AutoPublish:         false,
	}
}

// Path returns $XDG_CONFIG_HOME/genpost/config.yaml.
func Path() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "genpost", "config.yaml"), nil
}

// Exists reports whether a settings file has been saved.
func Exists() bool {
	path, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads settings from disk. A missing file yields Defaults.
func Load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	s := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.Normalize()
	return &s, nil
}

// Save writes settings to disk.
func (s *Settings) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Normalize replaces every out-of-range value with its default.
func (s *Settings) Normalize() {
	d := Defaults()
	if platforms := FilterPlatforms(s.TargetPlatforms); len(platforms) > 0 {
		s.TargetPlatforms = platforms
	} else {
		s.TargetPlatforms = d.TargetPlatforms
	}
	if s.VideoDuration < MinVideoDuration || s.VideoDuration > MaxVideoDuration {
		s.VideoDuration = d.VideoDuration
	}
	if _, ok := LookupAspectRatio(s.VideoAspectRatio); !ok {
		s.VideoAspectRatio = d.VideoAspectRatio
	}
	if !contains(ImageSizes, s.ImageSize) {
		s.ImageSize = d.ImageSize
	}
	if !contains(ImageQualities, s.ImageQuality) {
		s.ImageQuality = d.ImageQuality
	}
	if !contains(CaptionStyles, s.CaptionStyle) {
		s.CaptionStyle = d.CaptionStyle
	}
}

// Platforms returns the target platforms as typed values.
func (s Settings) Platforms() []genpost.Platform {
	out := make([]genpost.Platform, 0, len(s.TargetPlatforms))
	for _, raw := range s.TargetPlatforms {
		if p, err := genpost.ParsePlatform(raw); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// PlatformsDisplay joins the target platforms for display, e.g. "Linkedin, Facebook".
func (s Settings) PlatformsDisplay() string {
	names := make([]string, len(s.TargetPlatforms))
	for i, p := range s.TargetPlatforms {
		names[i] = capitalize(p)
	}
	return strings.Join(names, ", ")
}

// VideoResolution maps the aspect ratio to pixels, defaulting to 16:9.
func (s Settings) VideoResolution() string {
	if ar, ok := LookupAspectRatio(s.VideoAspectRatio); ok {
		return ar.Size
	}
	return AspectRatios[0].Size
}

// Render draws the settings box shown by /settings.
func (s Settings) Render() string {
	var b strings.Builder
	b.WriteString("┌────────────────────────────────────────────────────────────┐\n")
	b.WriteString("│              Current Configuration                         │\n")
	b.WriteString("├────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&b, "│ 📱 TARGET PLATFORMS: %-37s │\n", s.PlatformsDisplay())
	b.WriteString("│                                                            │\n")
	fmt.Fprintf(&b, "│ 📹 VIDEO: %ds, %s (%s)\n", s.VideoDuration, s.VideoAspectRatio, s.VideoResolution())
	fmt.Fprintf(&b, "│ 🖼️  IMAGE: %s, %s quality\n", s.ImageSize, s.ImageQuality)
	fmt.Fprintf(&b, "│ 📝 CAPTIONS: %s, style=%s\n", yesNo(s.EnableCaptions), s.CaptionStyle)
	fmt.Fprintf(&b, "│ ✅ AUTO-COMPLIANCE: %s\n", yesNo(s.AutoComplianceCheck))
	fmt.Fprintf(&b, "│ 🚀 AUTO-PUBLISH: %s\n", yesNo(s.AutoPublish))
	b.WriteString("└────────────────────────────────────────────────────────────┘")
	return b.String()
}

// LookupAspectRatio finds a supported aspect ratio.
func LookupAspectRatio(ratio string) (AspectRatio, bool) {
	ratio = strings.TrimSpace(ratio)
	for _, ar := range AspectRatios {
		if ar.Ratio == ratio {
			return ar, true
		}
	}
	return AspectRatio{}, false
}

// FilterPlatforms keeps the valid, de-duplicated platform names.
func FilterPlatforms(values []string) []string {
	var out []string
	seen := map[genpost.Platform]struct{}{}
	for _, raw := range values {
		p, err := genpost.ParsePlatform(raw)
		if err != nil {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, string(p))
	}
	return out
}

// ParsePlatformList parses a comma-separated answer such as "linkedin, facebook".
func ParsePlatformList(input string) ([]string, error) {
	platforms := FilterPlatforms(strings.Split(input, ","))
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no valid platforms in %q", input)
	}
	return platforms, nil
}

// ParseVideoDuration parses a duration answer in seconds.
func ParseVideoDuration(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", input)
	}
	if n < MinVideoDuration || n > MaxVideoDuration {
		return 0, fmt.Errorf("duration %d outside %d-%d", n, MinVideoDuration, MaxVideoDuration)
	}
	return n, nil
}

// ParseChoice accepts input when it is one of options, case-insensitively.
func ParseChoice(input string, options []string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if contains(options, input) {
		return input, nil
	}
	return "", fmt.Errorf("invalid option %q: must be one of %s", input, strings.Join(options, ", "))
}

// ParseYesNo reads yes/y/true/1 and no/n/false/0.
func ParseYesNo(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid answer %q: expected yes or no", input)
}

// AspectRatioNames returns the ratio labels for prompts and schemas.
func AspectRatioNames() []string {
	names := make([]string, len(AspectRatios))
	for i, ar := range AspectRatios {
		names[i] = ar.Ratio
	}
	return names
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
