package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/blacktop/genpost/internal/genpost"
)

func TestNormalizePlatforms(t *testing.T) {
	defaults := []genpost.Platform{genpost.LinkedIn}
	tests := []struct {
		name    string
		in      []string
		want    []genpost.Platform
		wantErr error
	}{
		{"defaults", nil, defaults, nil},
		{"dedupe", []string{"Facebook", " facebook ", "linkedin"}, []genpost.Platform{genpost.Facebook, genpost.LinkedIn}, nil},
		{"all", []string{"linkedin", "all"}, genpost.Platforms, nil},
		{"unknown", []string{"myspace"}, nil, genpost.ErrInvalidPlatform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePlatforms(tt.in, defaults)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePlatformsEmpty(t *testing.T) {
	if _, err := normalizePlatforms([]string{" "}, nil); err == nil {
		t.Fatal("expected error for blank platform list")
	}
	if _, err := normalizePlatforms(nil, nil); err == nil {
		t.Fatal("expected error with no configured targets")
	}
}

type scriptedDispatcher struct {
	calls   []genpost.Request
	results map[string]genpost.Result
}

func (d *scriptedDispatcher) Publish(_ context.Context, req genpost.Request) genpost.Result {
	d.calls = append(d.calls, req)
	return d.results[req.Platform]
}

func TestPublishAll(t *testing.T) {
	upstream := fmt.Errorf("%w: token expired", genpost.ErrAuth)
	d := &scriptedDispatcher{results: map[string]genpost.Result{
		"linkedin": {
			Success:     true,
			Platform:    genpost.LinkedIn,
			ContentType: genpost.Image,
			FilePath:    "/tmp/a.png",
			PostID:      "urn:li:share:1",
		},
		"facebook": {
			Platform:     genpost.Facebook,
			Err:          upstream,
			ErrorMessage: "✗ Authentication failed: token expired",
		},
	}}

	var out bytes.Buffer
	err := publishAll(context.Background(), d, []genpost.Platform{genpost.LinkedIn, genpost.Facebook},
		genpost.Request{ContentPath: "/tmp/a.png", CaptionPrompt: "launch", ContentType: "image"}, &out)

	if !errors.Is(err, genpost.ErrAuth) {
		t.Fatalf("err = %v, want auth failure", err)
	}
	if !strings.Contains(err.Error(), "Facebook") {
		t.Errorf("error %q does not name the platform", err)
	}
	if len(d.calls) != 2 || d.calls[0].Platform != "linkedin" || d.calls[1].Platform != "facebook" {
		t.Fatalf("calls = %+v", d.calls)
	}
	for _, want := range []string{"✓ Published to LinkedIn!", "urn:li:share:1", "✗ Authentication failed: token expired"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestPublishDryRun(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newPublishCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--platform", "all", "--file", "launch.png", "--caption-prompt", "launch", "--dry-run"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(genpost.Platforms) {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	for i, p := range genpost.Platforms {
		if !strings.HasPrefix(lines[i], "[dry-run] would publish image") || !strings.HasSuffix(strings.SplitN(lines[i], " (", 2)[0], p.Title()) {
			t.Errorf("line %d = %q", i, lines[i])
		}
	}
}
