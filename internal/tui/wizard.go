// Package tui holds the interactive settings wizard.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// question is one wizard prompt. apply parses a non-empty answer into s.
type question struct {
	section string
	label   string
	hints   []string
	current func(s config.Settings) string
	apply   func(s *config.Settings, input string) error
	skip    func(s config.Settings) bool
}

var questions = []question{
	{
		section: "📱 Target Platforms",
		label:   "Platforms",
		hints:   []string{"Available: " + strings.Join(platformNames(), ", "), "(You can select multiple, comma-separated)"},
		current: func(s config.Settings) string { return strings.Join(s.TargetPlatforms, ",") },
		apply: func(s *config.Settings, in string) error {
			p, err := config.ParsePlatformList(in)
			if err != nil {
				return err
			}
			s.TargetPlatforms = p
			return nil
		},
	},
	{
		section: "📹 Video Settings",
		label:   fmt.Sprintf("Duration in seconds (%d-%d)", config.MinVideoDuration, config.MaxVideoDuration),
		current: func(s config.Settings) string { return strconv.Itoa(s.VideoDuration) },
		apply: func(s *config.Settings, in string) error {
			n, err := config.ParseVideoDuration(in)
			if err != nil {
				return err
			}
			s.VideoDuration = n
			return nil
		},
	},
	{
		section: "📹 Video Settings",
		label:   "Aspect ratio",
		hints:   aspectHints(),
		current: func(s config.Settings) string { return s.VideoAspectRatio },
		apply: func(s *config.Settings, in string) error {
			ar, ok := config.LookupAspectRatio(in)
			if !ok {
				return fmt.Errorf("invalid aspect ratio %q", in)
			}
			s.VideoAspectRatio = ar.Ratio
			return nil
		},
	},
	{
		section: "🖼️  Image Settings",
		label:   "Image size",
		hints:   []string{"Sizes: 1024x1024 (square), 1792x1024 (landscape), 1024x1792 (portrait)"},
		current: func(s config.Settings) string { return s.ImageSize },
		apply: func(s *config.Settings, in string) error {
			v, err := config.ParseChoice(in, config.ImageSizes)
			if err != nil {
				return err
			}
			s.ImageSize = v
			return nil
		},
	},
	{
		section: "📝 Caption Settings",
		label:   "Enable captions? (yes/no)",
		current: func(s config.Settings) string { return yesNo(s.EnableCaptions) },
		apply: func(s *config.Settings, in string) error {
			v, err := config.ParseYesNo(in)
			if err != nil {
				return err
			}
			s.EnableCaptions = v
			return nil
		},
	},
	{
		section: "📝 Caption Settings",
		label:   "Style (" + strings.Join(config.CaptionStyles, "/") + ")",
		current: func(s config.Settings) string { return s.CaptionStyle },
		apply: func(s *config.Settings, in string) error {
			v, err := config.ParseChoice(in, config.CaptionStyles)
			if err != nil {
				return err
			}
			s.CaptionStyle = v
			return nil
		},
		skip: func(s config.Settings) bool { return !s.EnableCaptions },
	},
	{
		section: "⚙️  Workflow Settings",
		label:   "Auto-run compliance checks? (yes/no)",
		current: func(s config.Settings) string { return yesNo(s.AutoComplianceCheck) },
		apply: func(s *config.Settings, in string) error {
			v, err := config.ParseYesNo(in)
			if err != nil {
				return err
			}
			s.AutoComplianceCheck = v
			return nil
		},
	},
	{
		section: "⚙️  Workflow Settings",
		label:   "Auto-publish after generation? (yes/no)",
		current: func(s config.Settings) string { return yesNo(s.AutoPublish) },
		apply: func(s *config.Settings, in string) error {
			v, err := config.ParseYesNo(in)
			if err != nil {
				return err
			}
			s.AutoPublish = v
			return nil
		},
	},
}

// WizardModel is the bubbletea model for the settings wizard.
type WizardModel struct {
	settings config.Settings
	step     int
	input    textinput.Model
	warnings []string
	done     bool
	quitting bool
}

// NewWizardModel starts the wizard with s as the default answers.
func NewWizardModel(s config.Settings) WizardModel {
	s.Normalize()
	in := textinput.New()
	in.Width = 40
	in.Focus()
	m := WizardModel{settings: s, input: in}
	m.placeholder()
	return m
}

// Init implements tea.Model.
func (m WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEscape:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEnter:
		return m.answer()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m WizardModel) answer() (tea.Model, tea.Cmd) {
	q := questions[m.step]
	if in := strings.TrimSpace(m.input.Value()); in != "" {
		if err := q.apply(&m.settings, in); err != nil {
			m.warnings = append(m.warnings, fmt.Sprintf("%s: %v. Using default (%s).", q.label, err, q.current(m.settings)))
		}
	}

	m.step++
	for m.step < len(questions) && questions[m.step].skip != nil && questions[m.step].skip(m.settings) {
		m.step++
	}
	if m.step >= len(questions) {
		m.done = true
		m.input.Blur()
		return m, tea.Quit
	}
	m.input.SetValue("")
	m.placeholder()
	return m, textinput.Blink
}

func (m *WizardModel) placeholder() {
	m.input.Placeholder = questions[m.step].current(m.settings)
}

// View implements tea.Model.
func (m WizardModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("🔧 Configuration Setup"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("(Press Enter to accept default values, Esc to cancel)"))
	b.WriteString("\n\n")

	if m.done {
		for _, w := range m.warnings {
			b.WriteString(warnStyle.Render("⚠️  "+w) + "\n")
		}
		b.WriteString(successStyle.Render("✓ Configuration saved!"))
		b.WriteString("\n")
		b.WriteString(m.settings.Render())
		b.WriteString("\n")
		return b.String()
	}

	q := questions[m.step]
	b.WriteString(sectionStyle.Render(q.section))
	b.WriteString("\n")
	for _, h := range q.hints {
		b.WriteString("  " + hintStyle.Render(h) + "\n")
	}
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s [default: %s]", m.step+1, len(questions), q.label, q.current(m.settings))))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if n := len(m.warnings); n > 0 {
		b.WriteString("\n" + warnStyle.Render("⚠️  "+m.warnings[n-1]) + "\n")
	}
	return b.String()
}

// Result returns the settings collected so far.
func (m WizardModel) Result() config.Settings { return m.settings }

// Warnings lists the answers that were rejected.
func (m WizardModel) Warnings() []string { return m.warnings }

// ShouldSave reports whether the wizard completed without being cancelled.
func (m WizardModel) ShouldSave() bool {
	return m.done && !m.quitting
}

func platformNames() []string {
	names := make([]string, len(genpost.Platforms))
	for i, p := range genpost.Platforms {
		names[i] = string(p)
	}
	return names
}

func aspectHints() []string {
	hints := make([]string, len(config.AspectRatios))
	for i, ar := range config.AspectRatios {
		hints[i] = fmt.Sprintf("• %s (%s) - %s", ar.Ratio, ar.Size, ar.Description)
	}
	return hints
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
