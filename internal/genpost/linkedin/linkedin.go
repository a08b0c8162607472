package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/media"
)

const (
	providerName = "linkedin"

	// DefaultBaseURL is the LinkedIn REST root.
	DefaultBaseURL = "https://api.linkedin.com"

	captionSystem = "Write a professional LinkedIn post caption."
	uploadMechKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"
	shareKey      = "com.linkedin.ugc.ShareContent"
	visibilityKey = "com.linkedin.ugc.MemberNetworkVisibility"

	defaultImageTitle = "Post"
	defaultVideoTitle = "Video"
)

var (
	requestTimeout = 30 * time.Second
	uploadTimeout  = 120 * time.Second
)

// Client publishes images and videos to a member feed via the UGC API.
type Client struct {
	cfg       config.LinkedIn
	baseURL   string
	completer llm.Completer
	api       *http.Client
	upload    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces both HTTP clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.api = hc
			c.upload = hc
		}
	}
}

// New constructs a LinkedIn publisher. Credentials are checked on Publish.
func New(cfg config.LinkedIn, completer llm.Completer, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		cfg:       cfg,
		baseURL:   base,
		completer: completer,
		api:       &http.Client{Timeout: requestTimeout},
		upload:    &http.Client{Timeout: uploadTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform identifies the provider.
func (c *Client) Platform() genpost.Platform { return genpost.LinkedIn }

// asset is the registered upload slot.
type asset struct {
	URN       string
	UploadURL string
}

// Publish captions, registers, uploads and shares one asset.
func (c *Client) Publish(ctx context.Context, content genpost.Content) (*genpost.Outcome, error) {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		return nil, genpost.MissingEnvError{Provider: providerName, Variables: missing}
	}

	logutil.Debugf("generating caption: prompt=%q", content.CaptionPrompt)
	caption, err := c.caption(ctx, content.CaptionPrompt)
	if err != nil {
		return nil, err
	}

	logutil.Debugf("registering upload: type=%s owner=%s", content.Type, c.cfg.AuthorURN)
	a, err := c.registerUpload(ctx, content.Type)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("upload registered: asset=%s", a.URN)

	if err := c.uploadFile(ctx, a, content); err != nil {
		return nil, err
	}
	logutil.Debugf("media uploaded: asset=%s", a.URN)

	postID, raw, err := c.createPost(ctx, caption, a.URN, content)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("ugc post created: id=%s", postID)

	return &genpost.Outcome{Caption: caption, PostID: postID, Raw: raw}, nil
}

func (c *Client) caption(ctx context.Context, prompt string) (string, error) {
	if c.completer == nil {
		return "", &genpost.CaptionError{Provider: providerName, Err: fmt.Errorf("no completion service configured")}
	}
	reply, err := c.completer.Complete(ctx, llm.Request{
		System: captionSystem,
		User:   prompt,
		Model:  llm.DefaultModel,
	})
	if err != nil {
		return "", &genpost.CaptionError{Provider: providerName, Err: err}
	}
	return strings.TrimSpace(reply), nil
}

type registerUploadRequest struct {
	RegisterUploadRequest struct {
		Owner                string                `json:"owner"`
		Recipes              []string              `json:"recipes"`
		ServiceRelationships []serviceRelationship `json:"serviceRelationships"`
	} `json:"registerUploadRequest"`
}

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

func (c *Client) registerUpload(ctx context.Context, t genpost.ContentType) (asset, error) {
	var body registerUploadRequest
	body.RegisterUploadRequest.Owner = c.cfg.AuthorURN
	body.RegisterUploadRequest.Recipes = []string{"urn:li:digitalmediaRecipe:feedshare-" + string(t)}
	body.RegisterUploadRequest.ServiceRelationships = []serviceRelationship{{
		RelationshipType: "OWNER",
		Identifier:       "urn:li:userGeneratedContent",
	}}

	var out registerUploadResponse
	if _, _, err := c.postJSON(ctx, genpost.StageRegister, "/v2/assets?action=registerUpload", body, &out); err != nil {
		return asset{}, err
	}

	a := asset{URN: out.Value.Asset, UploadURL: out.Value.UploadMechanism[uploadMechKey].UploadURL}
	if a.UploadURL == "" {
		return asset{}, &genpost.ProtocolError{Provider: providerName, Stage: genpost.StageRegister, Field: "uploadUrl"}
	}
	if a.URN == "" {
		return asset{}, &genpost.ProtocolError{Provider: providerName, Stage: genpost.StageRegister, Field: "asset"}
	}
	return a, nil
}

func (c *Client) uploadFile(ctx context.Context, a asset, content genpost.Content) error {
	data, err := os.ReadFile(content.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", content.Path, err)
	}
	mimeType := media.ContentType(content.Path, content.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.UploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", mimeType)

	logutil.Debugf("uploading media: path=%s bytes=%d type=%s", content.Path, len(data), mimeType)
	resp, err := c.upload.Do(req)
	if err != nil {
		return fmt.Errorf("%s upload request: %w", providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(resp.Body)
		return &genpost.HTTPError{Provider: providerName, Stage: genpost.StageUpload, StatusCode: resp.StatusCode, Body: string(payload)}
	}
	return nil
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    text         `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media"`
}

type shareMedia struct {
	Status      string `json:"status"`
	Description text   `json:"description"`
	Media       string `json:"media"`
	Title       text   `json:"title"`
}

type text struct {
	Text string `json:"text"`
}

func (c *Client) createPost(ctx context.Context, caption, assetURN string, content genpost.Content) (string, json.RawMessage, error) {
	title := defaultImageTitle
	if content.Type == genpost.Video {
		title = content.Title
		if title == "" {
			title = defaultVideoTitle
		}
	}

	post := ugcPost{
		Author:         c.cfg.AuthorURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			shareKey: {
				ShareCommentary:    text{Text: caption},
				ShareMediaCategory: strings.ToUpper(string(content.Type)),
				Media: []shareMedia{{
					Status:      "READY",
					Description: text{Text: caption},
					Media:       assetURN,
					Title:       text{Text: title},
				}},
			},
		},
		Visibility: map[string]string{visibilityKey: "PUBLIC"},
	}

	var out struct {
		ID string `json:"id"`
	}
	raw, header, err := c.postJSON(ctx, genpost.StagePost, "/v2/ugcPosts", post, &out)
	if err != nil {
		return "", nil, err
	}
	id := out.ID
	if id == "" {
		id = header.Get("X-RestLi-Id")
	}
	return id, raw, nil
}

func (c *Client) postJSON(ctx context.Context, stage genpost.Stage, path string, body, out any) (json.RawMessage, http.Header, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s request: %w", stage, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, nil, fmt.Errorf("build %s request: %w", stage, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s request: %w", providerName, stage, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s read response: %w", providerName, stage, err)
	}
	if resp.StatusCode >= 400 {
		return nil, nil, &genpost.HTTPError{Provider: providerName, Stage: stage, StatusCode: resp.StatusCode, Body: string(payload)}
	}
	if out != nil && json.Valid(payload) {
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, nil, &genpost.ProtocolError{Provider: providerName, Stage: stage, Field: "json body", Detail: err.Error()}
		}
	}
	return genpost.RawJSON(payload), resp.Header, nil
}
