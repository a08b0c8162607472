package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/openai/openai-go"
)

const (
	defaultImageSize    = "1024x1024"
	defaultImageQuality = "hd"
)

// ImageRequest asks for one DALL-E 3 image.
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
}

// Image generates an image and downloads it to images/image_<timestamp>.png.
func (g *Generator) Image(ctx context.Context, req ImageRequest) (*Asset, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, genpost.ValidationError{Provider: "image", Reason: "prompt is required"}
	}
	size := req.Size
	if _, err := config.ParseChoice(size, config.ImageSizes); err != nil {
		size = defaultImageSize
	}
	quality := strings.ToLower(strings.TrimSpace(req.Quality))
	if _, err := config.ParseChoice(quality, config.ImageQualities); err != nil {
		quality = defaultImageQuality
	}

	logutil.Debugf("generating image: size=%s quality=%s", size, quality)
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModelDallE3,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(size),
		Quality:        openai.ImageGenerateParamsQuality(quality),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, &genpost.ProtocolError{Provider: "openai", Stage: "generate", Field: "data[0].url"}
	}

	asset := &Asset{
		URL:           resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
		Type:          genpost.Image,
		Size:          size,
		Quality:       quality,
	}

	path, err := g.outputPath(genpost.Image, "image", ".png")
	if err != nil {
		return asset, err
	}
	if err := g.download(ctx, asset.URL, path); err != nil {
		return asset, err
	}
	asset.LocalPath = path
	logutil.Infof("image saved to %s", path)
	return asset, nil
}

func (g *Generator) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}
	return writeFile(path, resp.Body)
}
