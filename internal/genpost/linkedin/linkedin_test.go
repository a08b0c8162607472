package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/llm"
)

type fakeLinkedIn struct {
	srv          *httptest.Server
	registers    atomic.Int32
	uploads      atomic.Int32
	posts        atomic.Int32
	uploadStatus int
	registerBody string

	recipe      string
	uploadType  string
	uploadBytes string
	post        map[string]any
}

func newFakeLinkedIn(t *testing.T) *fakeLinkedIn {
	t.Helper()
	f := &fakeLinkedIn{uploadStatus: http.StatusCreated}
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, r *http.Request) {
		f.registers.Add(1)
		if r.URL.Query().Get("action") != "registerUpload" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer li-token" {
			t.Errorf("missing bearer token")
		}
		var body registerUploadRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode register: %v", err)
		}
		if body.RegisterUploadRequest.Owner != "urn:li:person:abc" {
			t.Errorf("owner = %q", body.RegisterUploadRequest.Owner)
		}
		f.recipe = body.RegisterUploadRequest.Recipes[0]
		if f.registerBody != "" {
			_, _ = w.Write([]byte(f.registerBody))
			return
		}
		_, _ = w.Write([]byte(`{"value":{"asset":"urn:li:digitalmediaAsset:1","uploadMechanism":{"` + uploadMechKey + `":{"uploadUrl":"` + f.srv.URL + `/upload/1"}}}}`))
	})
	mux.HandleFunc("/upload/1", func(w http.ResponseWriter, r *http.Request) {
		f.uploads.Add(1)
		if r.Method != http.MethodPut {
			t.Errorf("upload method = %s", r.Method)
		}
		f.uploadType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		f.uploadBytes = string(data)
		w.WriteHeader(f.uploadStatus)
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		f.posts.Add(1)
		if err := json.NewDecoder(r.Body).Decode(&f.post); err != nil {
			t.Errorf("decode post: %v", err)
		}
		w.Header().Set("X-RestLi-Id", "urn:li:share:99")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"urn:li:share:99"}`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func captioner(calls *atomic.Int32) llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, req llm.Request) (string, error) {
		if calls != nil {
			calls.Add(1)
		}
		if req.System != captionSystem {
			return "", errors.New("unexpected system prompt")
		}
		return "Proud to ship " + req.User, nil
	})
}

func testFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func testConfig(base string) config.LinkedIn {
	return config.LinkedIn{AccessToken: "li-token", AuthorURN: "urn:li:person:abc", APIURL: base}
}

func TestPublishImage(t *testing.T) {
	f := newFakeLinkedIn(t)
	c := New(testConfig(f.srv.URL), captioner(nil))

	out, err := c.Publish(context.Background(), genpost.Content{
		Platform:      genpost.LinkedIn,
		Type:          genpost.Image,
		Path:          testFile(t, "launch.png"),
		CaptionPrompt: "v2",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if out.Caption != "Proud to ship v2" || out.PostID != "urn:li:share:99" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if f.recipe != "urn:li:digitalmediaRecipe:feedshare-image" {
		t.Errorf("recipe = %q", f.recipe)
	}
	if f.uploadType != "image/png" || f.uploadBytes != "media-bytes" {
		t.Errorf("upload type=%q body=%q", f.uploadType, f.uploadBytes)
	}

	share := f.post["specificContent"].(map[string]any)[shareKey].(map[string]any)
	if share["shareMediaCategory"] != "IMAGE" {
		t.Errorf("category = %v", share["shareMediaCategory"])
	}
	item := share["media"].([]any)[0].(map[string]any)
	if item["media"] != "urn:li:digitalmediaAsset:1" {
		t.Errorf("media = %v", item["media"])
	}
	if item["title"].(map[string]any)["text"] != "Post" {
		t.Errorf("title = %v", item["title"])
	}
	if f.post["visibility"].(map[string]any)[visibilityKey] != "PUBLIC" {
		t.Errorf("visibility = %v", f.post["visibility"])
	}
}

func TestPublishVideoTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"explicit", "Cute cat", "Cute cat"},
		{"default", "", "Video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeLinkedIn(t)
			c := New(testConfig(f.srv.URL), captioner(nil))
			_, err := c.Publish(context.Background(), genpost.Content{
				Platform: genpost.LinkedIn,
				Type:     genpost.Video,
				Path:     testFile(t, "clip.bin"),
				Title:    tt.title,
			})
			if err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if f.recipe != "urn:li:digitalmediaRecipe:feedshare-video" {
				t.Errorf("recipe = %q", f.recipe)
			}
			if f.uploadType != "video/mp4" {
				t.Errorf("upload content type = %q, want video/mp4 default", f.uploadType)
			}
			share := f.post["specificContent"].(map[string]any)[shareKey].(map[string]any)
			item := share["media"].([]any)[0].(map[string]any)
			if got := item["title"].(map[string]any)["text"]; got != tt.want {
				t.Errorf("title = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestUploadFailureSkipsPost(t *testing.T) {
	f := newFakeLinkedIn(t)
	f.uploadStatus = http.StatusInternalServerError
	c := New(testConfig(f.srv.URL), captioner(nil))

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testFile(t, "a.jpg")})
	var httpErr *genpost.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Stage != genpost.StageUpload || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected error %+v", httpErr)
	}
	if f.posts.Load() != 0 {
		t.Errorf("ugcPosts called %d times after failed upload", f.posts.Load())
	}
}

func TestUploadAcceptsOnlyOKOrCreated(t *testing.T) {
	f := newFakeLinkedIn(t)
	f.uploadStatus = http.StatusAccepted
	c := New(testConfig(f.srv.URL), captioner(nil))

	if _, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testFile(t, "a.jpg")}); !errors.Is(err, genpost.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if f.posts.Load() != 0 {
		t.Error("no post expected")
	}
}

func TestRegisterMissingUploadURL(t *testing.T) {
	f := newFakeLinkedIn(t)
	f.registerBody = `{"value":{"asset":"urn:li:digitalmediaAsset:1"}}`
	c := New(testConfig(f.srv.URL), captioner(nil))

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testFile(t, "a.png")})
	var pe *genpost.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProtocolError", err)
	}
	if pe.Stage != genpost.StageRegister || pe.Field != "uploadUrl" {
		t.Errorf("unexpected protocol error %+v", pe)
	}
	if f.uploads.Load() != 0 || f.posts.Load() != 0 {
		t.Error("no upload or post expected")
	}
}

func TestMissingCredentialsMakeNoCalls(t *testing.T) {
	f := newFakeLinkedIn(t)
	var captions atomic.Int32
	c := New(config.LinkedIn{APIURL: f.srv.URL}, captioner(&captions))

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testFile(t, "a.png")})
	var missing genpost.MissingEnvError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingEnvError", err)
	}
	if len(missing.Variables) != 2 {
		t.Errorf("missing = %v", missing.Variables)
	}
	if captions.Load() != 0 || f.registers.Load() != 0 {
		t.Error("no network calls expected")
	}
}

func TestCaptionFailureStopsBeforeRegister(t *testing.T) {
	f := newFakeLinkedIn(t)
	failing := llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
		return "", errors.New("rate limited")
	})
	c := New(testConfig(f.srv.URL), failing)

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testFile(t, "a.png")})
	if !errors.Is(err, genpost.ErrCaption) {
		t.Fatalf("err = %v, want ErrCaption", err)
	}
	if f.registers.Load() != 0 {
		t.Error("register should not run after caption failure")
	}
}

func TestPublishTwiceCreatesTwoPosts(t *testing.T) {
	f := newFakeLinkedIn(t)
	c := New(testConfig(f.srv.URL), captioner(nil))
	content := genpost.Content{Type: genpost.Image, Path: testFile(t, "a.png"), CaptionPrompt: "x"}

	for i := 0; i < 2; i++ {
		if _, err := c.Publish(context.Background(), content); err != nil {
			t.Fatalf("Publish #%d: %v", i+1, err)
		}
	}
	if f.posts.Load() != 2 || f.registers.Load() != 2 {
		t.Errorf("posts=%d registers=%d, want 2 each", f.posts.Load(), f.registers.Load())
	}
}
