package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blacktop/genpost/internal/config"
)

func enter(t *testing.T, m WizardModel, value string) WizardModel {
	t.Helper()
	m.input.SetValue(value)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(WizardModel)
}

func TestWizardDefaults(t *testing.T) {
	m := NewWizardModel(config.Defaults())
	for i := 0; i < len(questions); i++ {
		if m.done {
			break
		}
		m = enter(t, m, "")
	}
	if !m.ShouldSave() {
		t.Fatal("expected wizard to complete")
	}
	got := m.Result()
	want := config.Defaults()
	if strings.Join(got.TargetPlatforms, ",") != "linkedin" || got.VideoDuration != want.VideoDuration ||
		got.CaptionStyle != want.CaptionStyle || got.AutoPublish != want.AutoPublish {
		t.Errorf("defaults changed: %+v", got)
	}
	if len(m.Warnings()) != 0 {
		t.Errorf("unexpected warnings %v", m.Warnings())
	}
}

func TestWizardAnswers(t *testing.T) {
	m := NewWizardModel(config.Defaults())
	answers := []string{"instagram, facebook, myspace", "30", "9:16", "1792x1024", "yes", "Casual", "no", "y"}
	for _, a := range answers {
		m = enter(t, m, a)
	}
	if !m.ShouldSave() {
		t.Fatal("expected wizard to complete")
	}
	got := m.Result()
	if strings.Join(got.TargetPlatforms, ",") != "instagram,facebook" {
		t.Errorf("platforms = %v", got.TargetPlatforms)
	}
	if got.VideoDuration != 30 || got.VideoAspectRatio != "9:16" || got.ImageSize != "1792x1024" {
		t.Errorf("video/image settings = %+v", got)
	}
	if got.CaptionStyle != "casual" || got.AutoComplianceCheck || !got.AutoPublish {
		t.Errorf("caption/workflow settings = %+v", got)
	}
}

func TestWizardInvalidAnswersKeepDefault(t *testing.T) {
	m := NewWizardModel(config.Defaults())
	m = enter(t, m, "myspace")
	m = enter(t, m, "90")
	m = enter(t, m, "21:9")

	got := m.Result()
	if strings.Join(got.TargetPlatforms, ",") != "linkedin" || got.VideoDuration != 10 || got.VideoAspectRatio != "16:9" {
		t.Errorf("invalid answers changed settings: %+v", got)
	}
	if len(m.Warnings()) != 3 {
		t.Errorf("warnings = %v", m.Warnings())
	}
	if !strings.Contains(m.View(), "Using default (16:9)") {
		t.Errorf("view does not show last warning:\n%s", m.View())
	}
}

func TestWizardSkipsStyleWhenCaptionsDisabled(t *testing.T) {
	m := NewWizardModel(config.Defaults())
	for _, a := range []string{"", "", "", "", "no"} {
		m = enter(t, m, a)
	}
	if q := questions[m.step]; !strings.HasPrefix(q.label, "Auto-run compliance") {
		t.Errorf("expected compliance question, got %q", q.label)
	}
}

func TestWizardCancel(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEscape, tea.KeyCtrlC} {
		m := NewWizardModel(config.Defaults())
		updated, cmd := m.Update(tea.KeyMsg{Type: key})
		m = updated.(WizardModel)
		if m.ShouldSave() {
			t.Errorf("%v: cancelled wizard should not save", key)
		}
		if cmd == nil {
			t.Errorf("%v: expected quit command", key)
		}
	}
}
