// Package meta holds the Graph API plumbing shared by the Facebook and Instagram publishers.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
)

// DefaultBaseURL is the pinned Graph API version.
const DefaultBaseURL = "https://graph.facebook.com/v24.0"

var (
	requestTimeout = 30 * time.Second
	uploadTimeout  = 120 * time.Second
)

// Client issues Graph API calls on behalf of one provider.
type Client struct {
	provider string
	baseURL  string
	api      *http.Client
	upload   *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces both the JSON and the upload HTTP clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.api = hc
			c.upload = hc
		}
	}
}

// NewClient returns a Graph client. An empty baseURL means DefaultBaseURL.
func NewClient(provider, baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		provider: provider,
		baseURL:  baseURL,
		api:      &http.Client{Timeout: requestTimeout},
		upload:   &http.Client{Timeout: uploadTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageToken exchanges the configured token for a Page access token.
// Any failure is logged and the configured token is returned instead.
func (c *Client) PageToken(ctx context.Context, pageID, token string) string {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	params := url.Values{"fields": {"access_token"}, "access_token": {token}}
	if _, err := c.Get(ctx, genpost.StageToken, pageID, params, &out); err != nil {
		logutil.Warnf("%s: could not retrieve page access token, using configured token: %v", c.provider, err)
		return token
	}
	if out.AccessToken == "" {
		logutil.Warnf("%s: page token response had no access_token, using configured token", c.provider)
		return token
	}
	logutil.Debugf("%s: page access token resolved: page=%s", c.provider, pageID)
	return out.AccessToken
}

// Get issues GET {base}/{path}?params and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, stage genpost.Stage, path string, params url.Values, out any) (json.RawMessage, error) {
	endpoint := c.endpoint(path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", stage, err)
	}
	return c.do(c.api, req, stage, out)
}

// PostForm issues a url-encoded POST.
func (c *Client) PostForm(ctx context.Context, stage genpost.Stage, path string, form url.Values, out any) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", stage, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(c.api, req, stage, out)
}

// File is the binary part of a multipart upload.
type File struct {
	Field       string
	Path        string
	ContentType string
}

// PostMultipart uploads a local file together with form fields.
func (c *Client) PostMultipart(ctx context.Context, stage genpost.Stage, path string, fields url.Values, file File, out any) (json.RawMessage, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Path, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range fields[k] {
			if err := writer.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("write field %s: %w", k, err)
			}
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, filepath.Base(file.Path)))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", stage, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	logutil.Debugf("%s: multipart upload: path=%s bytes=%d type=%s", c.provider, path, len(data), file.ContentType)
	return c.do(c.upload, req, stage, out)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(hc *http.Client, req *http.Request, stage genpost.Stage, out any) (json.RawMessage, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s request: %w", c.provider, stage, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s read response: %w", c.provider, stage, err)
	}
	if resp.StatusCode >= 400 {
		return nil, &genpost.HTTPError{Provider: c.provider, Stage: stage, StatusCode: resp.StatusCode, Body: string(payload)}
	}

	raw := genpost.RawJSON(payload)
	if out != nil && json.Valid(payload) {
		if err := json.Unmarshal(payload, out); err != nil {
			return raw, &genpost.ProtocolError{Provider: c.provider, Stage: stage, Field: "json body", Detail: err.Error()}
		}
	}
	return raw, nil
}
