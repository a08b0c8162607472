package genpost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type fakePublisher struct {
	platform Platform
	calls    atomic.Int32
	err      error
	panicMsg string
	got      Content
}

func (f *fakePublisher) Platform() Platform { return f.platform }

func (f *fakePublisher) Publish(_ context.Context, c Content) (*Outcome, error) {
	n := f.calls.Add(1)
	f.got = c
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Outcome{
		Caption: "caption for " + c.CaptionPrompt,
		PostID:  string(f.platform) + "-" + string(rune('0'+n)),
		Raw:     []byte(`{"id":"x"}`),
	}, nil
}

type staticResolver struct {
	path  string
	calls int
}

func (r *staticResolver) Latest(ContentType) (string, error) {
	r.calls++
	return r.path, nil
}

func newFakes() (*fakePublisher, *fakePublisher, *fakePublisher) {
	return &fakePublisher{platform: LinkedIn}, &fakePublisher{platform: Instagram}, &fakePublisher{platform: Facebook}
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func mustDispatcher(t *testing.T, r Resolver, pubs ...Publisher) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(r, pubs...)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestNewDispatcherRejectsDuplicates(t *testing.T) {
	_, err := NewDispatcher(nil, &fakePublisher{platform: LinkedIn}, &fakePublisher{platform: LinkedIn})
	if err == nil {
		t.Fatal("expected duplicate publisher error")
	}
}

func TestPublishInvalidPlatformMakesNoCalls(t *testing.T) {
	li, ig, fb := newFakes()
	resolver := &staticResolver{}
	d := mustDispatcher(t, resolver, li, ig, fb)

	res := d.Publish(context.Background(), Request{Platform: "twitter", ContentPath: writeFile(t, "a.png")})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, ErrInvalidPlatform) || !errors.Is(res.Err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidPlatform", res.Err)
	}
	if !strings.HasPrefix(res.ErrorMessage, FailureMarker) {
		t.Errorf("message %q missing failure marker", res.ErrorMessage)
	}
	if n := li.calls.Load() + ig.calls.Load() + fb.calls.Load(); n != 0 {
		t.Errorf("publishers called %d times", n)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times", resolver.calls)
	}
}

func TestPublishInvalidContentType(t *testing.T) {
	li, _, _ := newFakes()
	d := mustDispatcher(t, nil, li)

	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentType: "gif"})
	if !errors.Is(res.Err, ErrInvalidContentType) {
		t.Fatalf("err = %v, want ErrInvalidContentType", res.Err)
	}
	if res.Stage != StageValidation {
		t.Errorf("stage = %s, want validation", res.Stage)
	}
	if li.calls.Load() != 0 {
		t.Error("publisher should not be called")
	}
}

func TestPublishInstagramVideoUnsupported(t *testing.T) {
	li, ig, fb := newFakes()
	resolver := &staticResolver{}
	d := mustDispatcher(t, resolver, li, ig, fb)

	// The file does not exist; the capability check still wins.
	res := d.Publish(context.Background(), Request{Platform: "Instagram", ContentPath: "/missing.mp4", ContentType: "VIDEO"})
	if !errors.Is(res.Err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", res.Err)
	}
	if ig.calls.Load() != 0 || resolver.calls != 0 {
		t.Error("no adapter or filesystem work expected for unsupported requests")
	}
}

func TestPublishMissingFileNoFallback(t *testing.T) {
	li, _, _ := newFakes()
	d := mustDispatcher(t, &staticResolver{}, li)

	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentPath: filepath.Join(t.TempDir(), "nope.png")})
	if !errors.Is(res.Err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", res.Err)
	}
	if li.calls.Load() != 0 {
		t.Error("publisher should not be called")
	}
}

func TestPublishDirectoryUsesFallback(t *testing.T) {
	li, _, _ := newFakes()
	fallback := writeFile(t, "latest.png")
	d := mustDispatcher(t, &staticResolver{path: fallback}, li)

	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentPath: t.TempDir(), CaptionPrompt: "launch"})
	if !res.Success {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if res.FilePath != fallback || li.got.Path != fallback {
		t.Errorf("file path = %q, want fallback %q", res.FilePath, fallback)
	}
}

func TestPublishSuccess(t *testing.T) {
	li, ig, fb := newFakes()
	d := mustDispatcher(t, nil, li, ig, fb)
	path := writeFile(t, "a.png")

	res := d.Publish(context.Background(), Request{Platform: " FACEBOOK ", ContentPath: path, CaptionPrompt: " spring sale "})
	if !res.Success {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if res.Platform != Facebook || res.ContentType != Image {
		t.Errorf("unexpected platform/type %s/%s", res.Platform, res.ContentType)
	}
	if res.Caption != "caption for spring sale" {
		t.Errorf("caption = %q", res.Caption)
	}
	if res.Stage != StagePublished {
		t.Errorf("stage = %s", res.Stage)
	}
	if res.ID == "" {
		t.Error("expected request id")
	}
	if fb.calls.Load() != 1 || li.calls.Load() != 0 || ig.calls.Load() != 0 {
		t.Error("only the facebook publisher should run")
	}
}

func TestPublishAdapterErrorCarriesStage(t *testing.T) {
	li := &fakePublisher{platform: LinkedIn, err: &HTTPError{Provider: "linkedin", Stage: StageUpload, StatusCode: 500, Body: "boom"}}
	d := mustDispatcher(t, nil, li)

	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentPath: writeFile(t, "a.png")})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Stage != StageUpload {
		t.Errorf("stage = %s, want upload", res.Stage)
	}
	if !errors.Is(res.Err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", res.Err)
	}
	if !strings.Contains(res.ErrorMessage, "status 500") {
		t.Errorf("message %q missing status", res.ErrorMessage)
	}
}

func TestPublishMissingCredentials(t *testing.T) {
	li := &fakePublisher{platform: LinkedIn, err: MissingEnvError{Provider: "linkedin", Variables: []string{"GENPOST_LINKEDIN_ACCESS_TOKEN"}}}
	d := mustDispatcher(t, nil, li)

	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentPath: writeFile(t, "a.png")})
	if !errors.Is(res.Err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", res.Err)
	}
	if !strings.Contains(res.ErrorMessage, "GENPOST_LINKEDIN_ACCESS_TOKEN") {
		t.Errorf("message %q should name the missing variable", res.ErrorMessage)
	}
}

func TestPublishRecoversPanics(t *testing.T) {
	li := &fakePublisher{platform: LinkedIn, panicMsg: "nil map"}
	d := mustDispatcher(t, nil, li)

	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentPath: writeFile(t, "a.png")})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.ErrorMessage, FailureMarker+" Unexpected error") {
		t.Errorf("message = %q", res.ErrorMessage)
	}
}

func TestPublishUnregisteredPlatform(t *testing.T) {
	d := mustDispatcher(t, nil)
	res := d.Publish(context.Background(), Request{Platform: "linkedin", ContentPath: writeFile(t, "a.png")})
	if !errors.Is(res.Err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", res.Err)
	}
}

func TestPublishIsNotIdempotent(t *testing.T) {
	li, _, _ := newFakes()
	d := mustDispatcher(t, nil, li)
	req := Request{Platform: "linkedin", ContentPath: writeFile(t, "a.png"), CaptionPrompt: "hi"}

	first := d.Publish(context.Background(), req)
	second := d.Publish(context.Background(), req)
	if !first.Success || !second.Success {
		t.Fatal("expected both publishes to succeed")
	}
	if li.calls.Load() != 2 {
		t.Errorf("publisher called %d times, want 2", li.calls.Load())
	}
	if first.PostID == second.PostID {
		t.Errorf("expected two distinct posts, both were %q", first.PostID)
	}
	if first.ID == second.ID {
		t.Error("expected distinct request ids")
	}
}

func TestDispatcherPlatformsOrder(t *testing.T) {
	li, ig, fb := newFakes()
	d := mustDispatcher(t, nil, fb, li, ig)
	got := d.Platforms()
	want := []Platform{LinkedIn, Instagram, Facebook}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Platforms()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFailureMessageLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidPlatform, "Invalid request"},
		{ErrFileNotFound, "File not found"},
		{ErrUnsupported, "Not supported"},
		{&CaptionError{Provider: "facebook", Err: errors.New("quota")}, "Caption generation failed"},
		{&ProtocolError{Provider: "instagram", Stage: StageContainer, Field: "id"}, "Publishing failed"},
		{errors.New("other"), "Unexpected error"},
	}
	for _, tt := range tests {
		got := FailureMessage(tt.err)
		if !strings.HasPrefix(got, FailureMarker+" "+tt.want) {
			t.Errorf("FailureMessage(%v) = %q, want label %q", tt.err, got, tt.want)
		}
	}
}

func TestStageOf(t *testing.T) {
	if s, ok := StageOf(&CaptionError{Provider: "x", Err: errors.New("e")}); !ok || s != StageCaption {
		t.Errorf("caption stage = %s, %v", s, ok)
	}
	if _, ok := StageOf(errors.New("plain")); ok {
		t.Error("plain errors carry no stage")
	}
}
