package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/llm"
)

type fakeGraph struct {
	srv *httptest.Server

	photoBody     string
	infoBody      string
	containerBody string
	publishBody   string

	mu        sync.Mutex
	calls     []string
	photoForm map[string]string
	container map[string]string
	publish   map[string]string
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	f := &fakeGraph{
		photoBody:     `{"id":"photo-1"}`,
		infoBody:      `{"images":[{"source":"https://cdn.example.com/p1.jpg"}],"link":"https://facebook.com/photo-1"}`,
		containerBody: `{"id":"container-1"}`,
		publishBody:   `{"id":"media-1"}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /page-1", func(w http.ResponseWriter, r *http.Request) {
		f.record("token")
		_, _ = w.Write([]byte(`{"access_token":"page-token"}`))
	})
	mux.HandleFunc("POST /page-1/photos", func(w http.ResponseWriter, r *http.Request) {
		f.record("upload")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		f.photoForm = map[string]string{
			"access_token": r.FormValue("access_token"),
			"published":    r.FormValue("published"),
		}
		_, _ = w.Write([]byte(f.photoBody))
	})
	mux.HandleFunc("GET /photo-1", func(w http.ResponseWriter, r *http.Request) {
		f.record("resolve")
		if r.URL.Query().Get("fields") != "images,link" || r.URL.Query().Get("access_token") != "page-token" {
			t.Errorf("unexpected resolve query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(f.infoBody))
	})
	mux.HandleFunc("POST /ig-1/media", func(w http.ResponseWriter, r *http.Request) {
		f.record("container")
		_ = r.ParseForm()
		f.container = map[string]string{
			"image_url":    r.PostForm.Get("image_url"),
			"caption":      r.PostForm.Get("caption"),
			"access_token": r.PostForm.Get("access_token"),
		}
		_, _ = w.Write([]byte(f.containerBody))
	})
	mux.HandleFunc("POST /ig-1/media_publish", func(w http.ResponseWriter, r *http.Request) {
		f.record("publish")
		_ = r.ParseForm()
		f.publish = map[string]string{
			"creation_id":  r.PostForm.Get("creation_id"),
			"access_token": r.PostForm.Get("access_token"),
		}
		_, _ = w.Write([]byte(f.publishBody))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGraph) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
}

func (f *fakeGraph) steps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var staticCaption = llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
	return "Sunny days #summer", nil
})

func testConfig(base string) config.Instagram {
	return config.Instagram{AccessToken: "meta-token", PageID: "page-1", UserID: "ig-1", APIURL: base}
}

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestPublish(t *testing.T) {
	f := newFakeGraph(t)
	c := New(testConfig(f.srv.URL), staticCaption)

	out, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testImage(t), CaptionPrompt: "beach"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{"token", "upload", "resolve", "container", "publish"}
	got := f.steps()
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, got[i], want[i])
		}
	}
	if f.photoForm["published"] != "false" || f.photoForm["access_token"] != "page-token" {
		t.Errorf("photo form = %v", f.photoForm)
	}
	if f.container["image_url"] != "https://cdn.example.com/p1.jpg" || f.container["caption"] != "Sunny days #summer" {
		t.Errorf("container form = %v", f.container)
	}
	if f.container["access_token"] != "meta-token" || f.publish["access_token"] != "meta-token" {
		t.Error("container and publish must use the configured Meta token")
	}
	if f.publish["creation_id"] != "container-1" {
		t.Errorf("creation_id = %q", f.publish["creation_id"])
	}
	if out.PostID != "media-1" || out.Caption != "Sunny days #summer" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestPublicURLFallsBackToLink(t *testing.T) {
	f := newFakeGraph(t)
	f.infoBody = `{"images":[{"source":"cdn-relative/p1.jpg"}],"link":"https://facebook.com/photo-1"}`
	c := New(testConfig(f.srv.URL), staticCaption)

	if _, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testImage(t)}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if f.container["image_url"] != "https://facebook.com/photo-1" {
		t.Errorf("image_url = %q, want link fallback", f.container["image_url"])
	}
}

func TestPublicURLMissing(t *testing.T) {
	f := newFakeGraph(t)
	f.infoBody = `{"images":[]}`
	c := New(testConfig(f.srv.URL), staticCaption)

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testImage(t)})
	var pe *genpost.ProtocolError
	if !errors.As(err, &pe) || pe.Stage != genpost.StageResolve {
		t.Fatalf("err = %v, want resolve ProtocolError", err)
	}
	if len(f.container) != 0 {
		t.Error("no container expected without a public url")
	}
}

func TestMissingIDs(t *testing.T) {
	tests := []struct {
		name  string
		patch func(*fakeGraph)
		stage genpost.Stage
	}{
		{"upload", func(f *fakeGraph) { f.photoBody = `{}` }, genpost.StageUpload},
		{"container", func(f *fakeGraph) { f.containerBody = `{"status":"ok"}` }, genpost.StageContainer},
		{"publish", func(f *fakeGraph) { f.publishBody = `{}` }, genpost.StagePublish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGraph(t)
			tt.patch(f)
			c := New(testConfig(f.srv.URL), staticCaption)

			_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testImage(t)})
			var pe *genpost.ProtocolError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ProtocolError", err)
			}
			if pe.Stage != tt.stage || pe.Field != "id" {
				t.Errorf("protocol error = %+v, want stage %s", pe, tt.stage)
			}
			if !errors.Is(err, genpost.ErrProtocol) {
				t.Error("expected ErrProtocol")
			}
		})
	}
}

func TestRejectsVideo(t *testing.T) {
	f := newFakeGraph(t)
	c := New(testConfig(f.srv.URL), staticCaption)

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Video, Path: testImage(t)})
	if !errors.Is(err, genpost.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(f.steps()) != 0 {
		t.Error("no network calls expected")
	}
}

func TestMissingUserID(t *testing.T) {
	f := newFakeGraph(t)
	cfg := testConfig(f.srv.URL)
	cfg.UserID = ""
	c := New(cfg, staticCaption)

	_, err := c.Publish(context.Background(), genpost.Content{Type: genpost.Image, Path: testImage(t)})
	var missing genpost.MissingEnvError
	if !errors.As(err, &missing) || missing.Variables[0] != config.EnvInstagramUserID {
		t.Fatalf("err = %v, want missing %s", err, config.EnvInstagramUserID)
	}
	if len(f.steps()) != 0 {
		t.Error("no network calls expected")
	}
}
