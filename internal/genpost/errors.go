package genpost

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Concrete errors below match them through errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPlatform    = fmt.Errorf("%w: invalid platform", ErrInvalidInput)
	ErrInvalidContentType = fmt.Errorf("%w: invalid content_type", ErrInvalidInput)
	ErrFileNotFound       = errors.New("file not found")
	ErrUnsupported        = errors.New("unsupported operation")
	ErrAuth               = errors.New("auth failure")
	ErrProtocol           = errors.New("protocol violation")
	ErrUpstream           = errors.New("upstream http error")
	ErrCaption            = errors.New("caption generation failed")
)

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Provider  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Provider)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Provider, strings.Join(e.Variables, ", "))
}

// Is makes every MissingEnvError an ErrAuth.
func (e MissingEnvError) Is(target error) bool { return target == ErrAuth }

// ValidationError captures provider-specific validation issues.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Provider, e.Reason)
}

func (e ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ProtocolError reports an API response that lacks a field the protocol needs.
type ProtocolError struct {
	Provider string
	Stage    Stage
	Field    string
	Detail   string
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s %s failed: response missing %s", e.Provider, e.Stage, e.Field)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// HTTPError reports an unexpected status code from a platform API.
type HTTPError struct {
	Provider   string
	Stage      Stage
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s failed: status %d", e.Provider, e.Stage, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed: status %d: %s", e.Provider, e.Stage, e.StatusCode, body)
}

func (e *HTTPError) Is(target error) bool { return target == ErrUpstream }

// CaptionError wraps a failed LLM caption call.
type CaptionError struct {
	Provider string
	Err      error
}

func (e *CaptionError) Error() string {
	return fmt.Sprintf("%s caption generation failed: %v", e.Provider, e.Err)
}

func (e *CaptionError) Unwrap() error { return e.Err }

func (e *CaptionError) Is(target error) bool { return target == ErrCaption }

// StageOf returns the protocol stage recorded on err, if any.
func StageOf(err error) (Stage, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Stage, true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Stage, true
	}
	var ce *CaptionError
	if errors.As(err, &ce) {
		return StageCaption, true
	}
	return "", false
}
