package genpost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Platform identifies a social network genpost can publish to.
type Platform string

const (
	LinkedIn  Platform = "linkedin"
	Instagram Platform = "instagram"
	Facebook  Platform = "facebook"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{LinkedIn, Instagram, Facebook}

// ParsePlatform normalizes raw input and maps it onto a Platform.
func ParsePlatform(raw string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case LinkedIn, Instagram, Facebook:
		return p, nil
	}
	return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidPlatform, raw, joinPlatforms(Platforms))
}

// Title returns the human-facing platform name.
func (p Platform) Title() string {
	switch p {
	case LinkedIn:
		return "LinkedIn"
	case Instagram:
		return "Instagram"
	case Facebook:
		return "Facebook"
	}
	return string(p)
}

// Supports reports whether the platform can publish the given content type.
// Instagram only accepts images: there is no local-file video path through the Graph API.
func (p Platform) Supports(t ContentType) bool {
	if p == Instagram && t == Video {
		return false
	}
	return true
}

func joinPlatforms(ps []Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// ContentType is the kind of media being published.
type ContentType string

const (
	Image ContentType = "image"
	Video ContentType = "video"
)

// ParseContentType normalizes raw input; an empty value means Image.
func ParseContentType(raw string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case "":
		return Image, nil
	case Image, Video:
		return t, nil
	}
	return "", fmt.Errorf("%w %q: must be 'image' or 'video'", ErrInvalidContentType, raw)
}

// Title returns the capitalized content type.
func (t ContentType) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Request is the raw publish request as received from the CLI or the agent.
type Request struct {
	Platform      string
	ContentPath   string
	CaptionPrompt string
	ContentType   string
	VideoTitle    string
}

// Content is a validated request handed to exactly one Publisher.
type Content struct {
	Platform      Platform
	Type          ContentType
	Path          string
	CaptionPrompt string
	Title         string
}

// Outcome is what a Publisher reports after a successful protocol run.
type Outcome struct {
	Caption string
	PostID  string
	Raw     json.RawMessage
}

// Publisher abstracts one platform's authentication and upload/post protocol.
type Publisher interface {
	Platform() Platform
	Publish(ctx context.Context, c Content) (*Outcome, error)
}

// Stage marks how far a publish attempt got.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageCaption    Stage = "caption"
	StageToken      Stage = "token"
	StageRegister   Stage = "register"
	StageUpload     Stage = "upload"
	StageResolve    Stage = "resolve"
	StageContainer  Stage = "container"
	StagePublish    Stage = "publish"
	StagePost       Stage = "post"
	StagePublished  Stage = "published"
	StageValidation Stage = "validation"
)

// Result is the unified outcome of a single publish call.
type Result struct {
	ID           string
	Success      bool
	Platform     Platform
	ContentType  ContentType
	FilePath     string
	Caption      string
	PostID       string
	Stage        Stage
	Raw          json.RawMessage
	Err          error
	ErrorMessage string
}

// RawJSON returns payload unchanged when it is JSON, else wraps it as {"raw": text}.
func RawJSON(payload []byte) json.RawMessage {
	if len(bytes.TrimSpace(payload)) > 0 && json.Valid(payload) {
		return json.RawMessage(payload)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(payload)})
	return wrapped
}
