package instagram

import (
	"context"
	"net/url"
	"strings"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/genpost/meta"
	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/media"
)

const providerName = "instagram"

// Client publishes local images to an Instagram business account. The Graph API
// only accepts media by URL, so the file is first staged as an unpublished Page photo.
type Client struct {
	cfg       config.Instagram
	graph     *meta.Client
	completer llm.Completer
}

// New constructs an Instagram publisher. Credentials are checked on Publish.
func New(cfg config.Instagram, completer llm.Completer, opts ...meta.Option) *Client {
	return &Client{
		cfg:       cfg,
		graph:     meta.NewClient(providerName, cfg.APIURL, opts...),
		completer: completer,
	}
}

// Platform identifies the provider.
func (c *Client) Platform() genpost.Platform { return genpost.Instagram }

// Publish runs caption → stage photo → resolve URL → container → publish.
func (c *Client) Publish(ctx context.Context, content genpost.Content) (*genpost.Outcome, error) {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		return nil, genpost.MissingEnvError{Provider: providerName, Variables: missing}
	}
	if content.Type != genpost.Image {
		return nil, genpost.ValidationError{Provider: providerName, Reason: "only images can be published"}
	}

	logutil.Debugf("generating caption: prompt=%q", content.CaptionPrompt)
	caption, err := meta.Caption(ctx, c.completer, providerName, content.CaptionPrompt)
	if err != nil {
		return nil, err
	}

	pageToken := c.graph.PageToken(ctx, c.cfg.PageID, c.cfg.AccessToken)

	photoID, err := c.stagePhoto(ctx, pageToken, content)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("photo staged: photo_id=%s", photoID)

	imageURL, err := c.publicURL(ctx, pageToken, photoID)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("public url resolved: url=%s", imageURL)

	containerID, err := c.createContainer(ctx, imageURL, caption)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("container created: creation_id=%s", containerID)

	mediaID, raw, err := c.publishContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("published: media_id=%s", mediaID)

	return &genpost.Outcome{Caption: caption, PostID: mediaID, Raw: raw}, nil
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *Client) stagePhoto(ctx context.Context, pageToken string, content genpost.Content) (string, error) {
	fields := url.Values{
		"access_token": {pageToken},
		"published":    {"false"},
	}
	file := meta.File{Field: "source", Path: content.Path, ContentType: media.ContentType(content.Path, genpost.Image)}

	var out idResponse
	if _, err := c.graph.PostMultipart(ctx, genpost.StageUpload, c.cfg.PageID+"/photos", fields, file, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &genpost.ProtocolError{Provider: providerName, Stage: genpost.StageUpload, Field: "id"}
	}
	return out.ID, nil
}

type photoInfo struct {
	Images []struct {
		Source string `json:"source"`
	} `json:"images"`
	Link string `json:"link"`
}

func (c *Client) publicURL(ctx context.Context, pageToken, photoID string) (string, error) {
	var info photoInfo
	params := url.Values{"fields": {"images,link"}, "access_token": {pageToken}}
	if _, err := c.graph.Get(ctx, genpost.StageResolve, photoID, params, &info); err != nil {
		return "", err
	}
	if len(info.Images) > 0 && strings.HasPrefix(info.Images[0].Source, "http") {
		return info.Images[0].Source, nil
	}
	if strings.HasPrefix(info.Link, "http") {
		return info.Link, nil
	}
	return "", &genpost.ProtocolError{Provider: providerName, Stage: genpost.StageResolve, Field: "images or link", Detail: "no public url"}
}

func (c *Client) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	form := url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {c.cfg.AccessToken},
	}
	var out idResponse
	if _, err := c.graph.PostForm(ctx, genpost.StageContainer, c.cfg.UserID+"/media", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &genpost.ProtocolError{Provider: providerName, Stage: genpost.StageContainer, Field: "id"}
	}
	return out.ID, nil
}

func (c *Client) publishContainer(ctx context.Context, containerID string) (string, []byte, error) {
	form := url.Values{
		"creation_id":  {containerID},
		"access_token": {c.cfg.AccessToken},
	}
	var out idResponse
	raw, err := c.graph.PostForm(ctx, genpost.StagePublish, c.cfg.UserID+"/media_publish", form, &out)
	if err != nil {
		return "", nil, err
	}
	if out.ID == "" {
		return "", nil, &genpost.ProtocolError{Provider: providerName, Stage: genpost.StagePublish, Field: "id"}
	}
	return out.ID, raw, nil
}
