package facebook

import (
	"context"
	"net/url"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/genpost/meta"
	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/media"
)

const providerName = "facebook"

// Client posts photos and videos to a Facebook Page.
type Client struct {
	cfg       config.Facebook
	graph     *meta.Client
	completer llm.Completer
}

// New constructs a Facebook publisher. Credentials are checked on Publish.
func New(cfg config.Facebook, completer llm.Completer, opts ...meta.Option) *Client {
	return &Client{
		cfg:       cfg,
		graph:     meta.NewClient(providerName, cfg.APIURL, opts...),
		completer: completer,
	}
}

// Platform identifies the provider.
func (c *Client) Platform() genpost.Platform { return genpost.Facebook }

// Publish resolves the Page token, captions the content and uploads it in one multipart call.
func (c *Client) Publish(ctx context.Context, content genpost.Content) (*genpost.Outcome, error) {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		return nil, genpost.MissingEnvError{Provider: providerName, Variables: missing}
	}

	token := c.graph.PageToken(ctx, c.cfg.PageID, c.cfg.AccessToken)

	logutil.Debugf("generating caption: prompt=%q", content.CaptionPrompt)
	caption, err := meta.Caption(ctx, c.completer, providerName, content.CaptionPrompt)
	if err != nil {
		return nil, err
	}

	fields := url.Values{
		"access_token": {token},
		"published":    {"true"},
	}
	edge := c.cfg.PageID + "/photos"
	if content.Type == genpost.Video {
		edge = c.cfg.PageID + "/videos"
		fields.Set("description", caption)
		if content.Title != "" {
			fields.Set("title", content.Title)
		}
	} else {
		fields.Set("caption", caption)
	}

	var out struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	file := meta.File{Field: "source", Path: content.Path, ContentType: media.ContentType(content.Path, content.Type)}
	logutil.Debugf("posting %s to page: page=%s", content.Type, c.cfg.PageID)
	raw, err := c.graph.PostMultipart(ctx, genpost.StageUpload, edge, fields, file, &out)
	if err != nil {
		return nil, err
	}

	postID := out.PostID
	if postID == "" {
		postID = out.ID
	}
	logutil.Debugf("page post created: id=%s", postID)
	return &genpost.Outcome{Caption: caption, PostID: postID, Raw: raw}, nil
}
