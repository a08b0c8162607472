package genpost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blacktop/genpost/internal/logutil"
	"github.com/google/uuid"
)

// FailureMarker prefixes every human-readable failure message.
const FailureMarker = "✗"

// Resolver finds the most recently generated file of a content type.
type Resolver interface {
	Latest(t ContentType) (string, error)
}

// Dispatcher validates publish requests and routes them to the matching Publisher.
// It is the single error-containment point of the publish path.
type Dispatcher struct {
	publishers map[Platform]Publisher
	resolver   Resolver
}

// NewDispatcher builds a Dispatcher from a set of publishers. Registering two
// publishers for the same platform is a programming error.
func NewDispatcher(resolver Resolver, publishers ...Publisher) (*Dispatcher, error) {
	d := &Dispatcher{
		publishers: make(map[Platform]Publisher, len(publishers)),
		resolver:   resolver,
	}
	for _, p := range publishers {
		if p == nil {
			continue
		}
		if _, ok := d.publishers[p.Platform()]; ok {
			return nil, fmt.Errorf("duplicate publisher for %s", p.Platform())
		}
		d.publishers[p.Platform()] = p
	}
	return d, nil
}

// Platforms returns the platforms that have a registered publisher.
func (d *Dispatcher) Platforms() []Platform {
	out := make([]Platform, 0, len(d.publishers))
	for _, p := range Platforms {
		if _, ok := d.publishers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Publish runs one publish request end to end. It never returns an error: every
// failure is reported through Result.Success, Result.Err and Result.ErrorMessage.
// Publishing is not idempotent; two identical calls create two posts.
func (d *Dispatcher) Publish(ctx context.Context, req Request) (res Result) {
	res = Result{
		ID:    uuid.NewString(),
		Stage: StageValidation,
	}
	defer func() {
		if r := recover(); r != nil {
			res = d.fail(res, fmt.Errorf("unexpected error: %v", r))
		}
	}()

	content, err := d.validate(req)
	res.Platform = content.Platform
	res.ContentType = content.Type
	res.FilePath = content.Path
	if err != nil {
		return d.fail(res, err)
	}

	publisher, ok := d.publishers[content.Platform]
	if !ok {
		return d.fail(res, fmt.Errorf("%w: no publisher configured for %s", ErrUnsupported, content.Platform.Title()))
	}

	logutil.Debugf("publish %s: platform=%s type=%s file=%s", res.ID, content.Platform, content.Type, content.Path)
	res.Stage = StageIdle
	outcome, err := publisher.Publish(ctx, content)
	if err != nil {
		if stage, ok := StageOf(err); ok {
			res.Stage = stage
		}
		return d.fail(res, err)
	}

	res.Success = true
	res.Stage = StagePublished
	if outcome != nil {
		res.Caption = outcome.Caption
		res.PostID = outcome.PostID
		res.Raw = outcome.Raw
	}
	logutil.Infof("published %s to %s (post_id=%s)", content.Type, content.Platform.Title(), res.PostID)
	return res
}

func (d *Dispatcher) validate(req Request) (Content, error) {
	var content Content

	platform, err := ParsePlatform(req.Platform)
	if err != nil {
		return content, err
	}
	content.Platform = platform

	ctype, err := ParseContentType(req.ContentType)
	if err != nil {
		return content, err
	}
	content.Type = ctype

	if !platform.Supports(ctype) {
		return content, fmt.Errorf("%w: %s %s posting is not supported, only images are", ErrUnsupported, platform.Title(), ctype)
	}

	path, err := d.resolvePath(req.ContentPath, ctype)
	if err != nil {
		return content, err
	}
	content.Path = path
	content.CaptionPrompt = strings.TrimSpace(req.CaptionPrompt)
	content.Title = strings.TrimSpace(req.VideoTitle)
	return content, nil
}

// resolvePath keeps an existing path, else substitutes the newest generated file.
func (d *Dispatcher) resolvePath(path string, t ContentType) (string, error) {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path, nil
	}
	if d.resolver != nil {
		latest, err := d.resolver.Latest(t)
		if err != nil {
			logutil.Debugf("resolve latest %s: %v", t, err)
		}
		if latest != "" {
			logutil.Infof("%q not found, using most recent %s %s", path, t, latest)
			return latest, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
}

func (d *Dispatcher) fail(res Result, err error) Result {
	res.Success = false
	res.Err = err
	res.ErrorMessage = FailureMessage(err)
	logutil.Errorf("publish %s failed at %s: %v", res.ID, res.Stage, err)
	return res
}

// FailureMessage renders err for display in a chat transcript.
func FailureMessage(err error) string {
	var label string
	switch {
	case errors.Is(err, ErrInvalidInput):
		label = "Invalid request"
	case errors.Is(err, ErrFileNotFound):
		label = "File not found"
	case errors.Is(err, ErrUnsupported):
		label = "Not supported"
	case errors.Is(err, ErrCaption):
		label = "Caption generation failed"
	case errors.Is(err, ErrAuth):
		label = "Authentication failed"
	case errors.Is(err, ErrProtocol), errors.Is(err, ErrUpstream):
		label = "Publishing failed"
	default:
		label = "Unexpected error"
	}
	return fmt.Sprintf("%s %s: %v", FailureMarker, label, err)
}
