// Package tools defines the actions the chat agent and the MCP server can invoke.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/blacktop/genpost/internal/advisor"
	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/generate"
	"github.com/blacktop/genpost/internal/genpost"
)

const (
	GenerateImage   = "generate_image"
	GenerateVideo   = "generate_video"
	GenerateCaption = "generate_caption"
	CheckPolicy     = "check_policy_compliance"
	CheckDesign     = "check_design_compliance"
	Publish         = "publish_to_social_media"
)

// Handler runs a tool with its JSON arguments and returns the text shown to the model.
// Failures of the underlying action are reported in the text; an error means the
// call itself was malformed.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is one callable action.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Handler     Handler
}

// Generator produces images and videos.
type Generator interface {
	Image(ctx context.Context, req generate.ImageRequest) (*generate.Asset, error)
	Video(ctx context.Context, req generate.VideoRequest) (*generate.Asset, error)
}

// Advisor writes captions and compliance reports.
type Advisor interface {
	Caption(ctx context.Context, req advisor.CaptionRequest) (string, error)
	CheckPolicy(ctx context.Context, description, caption, platform string) (string, error)
	CheckDesign(ctx context.Context, description, contentType, resolution string) (string, error)
}

// Dispatcher publishes one piece of content to one platform.
type Dispatcher interface {
	Publish(ctx context.Context, req genpost.Request) genpost.Result
}

// Deps are the services the tools call into. Settings provide defaults for omitted arguments.
type Deps struct {
	Generator  Generator
	Advisor    Advisor
	Dispatcher Dispatcher
	Settings   config.Settings
}

// Registry holds tools by name in registration order.
type Registry struct {
	tools    []Tool
	byName   map[string]int
	handlers *handlers
}

// New registers the six content tools against deps.
func New(deps Deps) *Registry {
	h := &handlers{deps: deps}
	r := &Registry{byName: map[string]int{}, handlers: h}
	r.add(Tool{GenerateImage, "Generate an image with DALL-E 3 and save it locally. Be specific about style, colors, composition and mood.", imageSchema, h.image})
	r.add(Tool{GenerateVideo, "Generate a video with Sora following the brand design and policy guidelines. The platform picks the optimal aspect ratio.", videoSchema, h.video})
	r.add(Tool{GenerateCaption, "Write a platform-optimized social media caption with relevant hashtags.", captionSchema, h.caption})
	r.add(Tool{CheckPolicy, "Check whether content and its caption comply with the content policy guidelines.", policySchema, h.policy})
	r.add(Tool{CheckDesign, "Check whether an image or video complies with the design guidelines.", designSchema, h.design})
	r.add(Tool{Publish, "Publish a local image or video to LinkedIn, Instagram or Facebook. The platform caption is generated from caption_prompt.", publishSchema, h.publish})
	return r
}

func (r *Registry) add(t Tool) {
	r.byName[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// SetSettings replaces the defaults used for omitted arguments.
func (r *Registry) SetSettings(s config.Settings) {
	r.handlers.deps.Settings = s
}

// Tools returns every registered tool.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return t.Handler(ctx, args)
}

var imageSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"prompt": {"type": "string", "description": "Detailed description of the image to generate."},
		"size": {"type": "string", "enum": ["1024x1024", "1792x1024", "1024x1792"], "description": "Image dimensions."},
		"quality": {"type": "string", "enum": ["standard", "hd"], "description": "Image quality."}
	},
	"required": ["prompt"]
}`)

var videoSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"prompt": {"type": "string", "description": "Description of the video to generate."},
		"platform": {"type": "string", "enum": ["linkedin", "instagram", "facebook"], "description": "Target platform; affects style and aspect ratio."},
		"aspect_ratio": {"type": "string", "enum": ["16:9", "9:16", "1:1", "4:5"], "description": "Video aspect ratio, ignored when platform is set."},
		"seconds": {"type": "integer", "minimum": 5, "maximum": 60, "description": "Video length in seconds."}
	},
	"required": ["prompt"]
}`)

var captionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"content_description": {"type": "string", "description": "What the image or video shows, with context about the event, product or message."},
		"platform": {"type": "string", "enum": ["instagram", "linkedin", "twitter", "tiktok", "facebook"], "description": "Target platform. Default instagram."},
		"style": {"type": "string", "description": "Tone: professional, casual, creative, humorous or inspirational."},
		"include_hashtags": {"type": "boolean", "description": "Whether to include hashtags. Default true."},
		"include_emojis": {"type": "boolean", "description": "Whether to include emojis. Default true."}
	},
	"required": ["content_description"]
}`)

var policySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"content_description": {"type": "string", "description": "Description of the image or video content."},
		"caption": {"type": "string", "description": "The caption that accompanies the content, if any."},
		"platform": {"type": "string", "description": "Target platform (linkedin, instagram, facebook)."}
	},
	"required": ["content_description"]
}`)

var designSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"content_description": {"type": "string", "description": "Description of the visual elements."},
		"content_type": {"type": "string", "enum": ["image", "video"], "description": "Kind of content. Default image."},
		"resolution": {"type": "string", "description": "Resolution if known, e.g. 1920x1080."},
		"file_path": {"type": "string", "description": "Local image path; used to detect the resolution when it is not given."}
	},
	"required": ["content_description"]
}`)

var publishSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"platform": {"type": "string", "enum": ["linkedin", "instagram", "facebook"], "description": "Target platform."},
		"content_path": {"type": "string", "description": "Local path of the image or video, as returned by generate_image or generate_video."},
		"caption_prompt": {"type": "string", "description": "Brief description of the content used to generate the caption."},
		"content_type": {"type": "string", "enum": ["image", "video"], "description": "Kind of content. Default image."},
		"video_title": {"type": "string", "description": "Optional title for videos on LinkedIn and Facebook."}
	},
	"required": ["platform", "content_path", "caption_prompt"]
}`)
