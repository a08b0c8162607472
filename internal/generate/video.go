package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blacktop/genpost/internal/advisor"
	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
)

const (
	videoModel      = "sora-2"
	defaultSeconds  = 10
	defaultAspect   = "16:9"
	soraLandscape   = "1280x720"
	soraPortrait    = "720x1280"
	videoStatusDone = "completed"
	videoStatusFail = "failed"
)

// soraSeconds are the clip lengths the video endpoint accepts.
var soraSeconds = []int{4, 8, 12}

var platformAspect = map[string]string{
	"linkedin":  "16:9",
	"instagram": "1:1",
	"facebook":  "16:9",
}

var platformStyle = map[string]string{
	"linkedin":  "professional, corporate, polished business aesthetic",
	"instagram": "vibrant, dynamic, visually striking, social media optimized",
	"facebook":  "friendly, approachable, community-focused, engaging",
}

// VideoRequest asks for one Sora clip.
type VideoRequest struct {
	Prompt      string
	Platform    string
	AspectRatio string
	Seconds     int
}

type videoCreate struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Seconds string `json:"seconds"`
}

// MarshalJSON keeps the body a plain JSON object for the raw endpoint.
func (v videoCreate) MarshalJSON() ([]byte, error) {
	type alias videoCreate
	return json.Marshal(alias(v))
}

type videoJob struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Video generates a clip, waits for the job and saves videos/video[_platform]_<timestamp>.mp4.
func (g *Generator) Video(ctx context.Context, req VideoRequest) (*Asset, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, genpost.ValidationError{Provider: "video", Reason: "prompt is required"}
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	seconds := req.Seconds
	if seconds < config.MinVideoDuration || seconds > config.MaxVideoDuration {
		seconds = defaultSeconds
	}
	aspect := strings.TrimSpace(req.AspectRatio)
	if preferred, ok := platformAspect[platform]; ok {
		aspect = preferred
	}
	ar, ok := config.LookupAspectRatio(aspect)
	if !ok {
		ar, _ = config.LookupAspectRatio(defaultAspect)
	}

	prompt, err := g.enhancePrompt(req.Prompt, platform)
	if err != nil {
		return nil, err
	}

	body := videoCreate{
		Model:   videoModel,
		Prompt:  prompt,
		Size:    SoraSize(ar.Ratio),
		Seconds: strconv.Itoa(SoraSeconds(seconds)),
	}
	logutil.Debugf("creating video: aspect=%s size=%s seconds=%s", ar.Ratio, body.Size, body.Seconds)

	var job videoJob
	if err := g.client.Post(ctx, "videos", body, &job); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	if job.ID == "" {
		return nil, &genpost.ProtocolError{Provider: "openai", Stage: "generate", Field: "id"}
	}
	logutil.Infof("video job %s queued", job.ID)

	if err := g.waitForVideo(ctx, &job); err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:          job.ID,
		Type:        genpost.Video,
		Platform:    platform,
		AspectRatio: ar.Ratio,
		Resolution:  ar.Size,
		Seconds:     seconds,
	}

	prefix := "video"
	if platform != "" {
		prefix += "_" + platform
	}
	path, err := g.outputPath(genpost.Video, prefix, ".mp4")
	if err != nil {
		return asset, err
	}

	var resp *http.Response
	if err := g.client.Get(ctx, "videos/"+job.ID+"/content", nil, &resp); err != nil {
		return asset, fmt.Errorf("download video %s: %w", job.ID, err)
	}
	defer resp.Body.Close()
	if err := writeFile(path, resp.Body); err != nil {
		return asset, err
	}
	asset.LocalPath = path
	logutil.Infof("video saved to %s", path)
	return asset, nil
}

func (g *Generator) waitForVideo(ctx context.Context, job *videoJob) error {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	for {
		switch job.Status {
		case videoStatusDone:
			return nil
		case videoStatusFail:
			msg := "unknown error"
			if job.Error != nil && job.Error.Message != "" {
				msg = job.Error.Message
			}
			return fmt.Errorf("video job %s failed: %s", job.ID, msg)
		}
		logutil.Debugf("video job %s: status=%s progress=%d%%", job.ID, job.Status, job.Progress)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := g.client.Get(ctx, "videos/"+job.ID, nil, job); err != nil {
			return fmt.Errorf("poll video %s: %w", job.ID, err)
		}
	}
}

func (g *Generator) enhancePrompt(prompt, platform string) (string, error) {
	design, err := advisor.Guidelines(g.guidelinesDir, advisor.DesignGuidelines)
	if err != nil {
		return "", err
	}
	policy, err := advisor.Guidelines(g.guidelinesDir, advisor.PolicyGuidelines)
	if err != nil {
		return "", err
	}
	style, ok := platformStyle[platform]
	if !ok {
		style = "professional, high-quality"
	}

	var b strings.Builder
	b.WriteString("Create a video following these requirements:\n\n")
	fmt.Fprintf(&b, "USER REQUEST: %s\n\n", prompt)
	fmt.Fprintf(&b, "STYLE: %s\n\n", style)
	b.WriteString("MANDATORY GUIDELINES TO FOLLOW:\n")
	fmt.Fprintf(&b, "DESIGN RULES:\n%s\n\nCONTENT POLICY:\n%s\n\n", strings.TrimSpace(design), strings.TrimSpace(policy))
	b.WriteString("IMPORTANT: The video must have a hook in the first 3 seconds, smooth transitions, " +
		"stable footage, proper lighting, and no prohibited content. Ensure the visual style " +
		"matches the target platform aesthetic.")
	return b.String(), nil
}

// SoraSize maps an aspect ratio onto a frame size the video endpoint accepts.
// Square and 4:5 have no native size; 1:1 renders landscape, 4:5 portrait.
func SoraSize(ratio string) string {
	switch ratio {
	case "9:16", "4:5":
		return soraPortrait
	default:
		return soraLandscape
	}
}

// SoraSeconds rounds seconds to the nearest accepted clip length, ties going up.
func SoraSeconds(seconds int) int {
	best := soraSeconds[0]
	for _, s := range soraSeconds[1:] {
		if abs(seconds-s) <= abs(seconds-best) {
			best = s
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
