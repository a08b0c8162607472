package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blacktop/genpost/internal/advisor"
	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/generate"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/genpost/facebook"
	"github.com/blacktop/genpost/internal/genpost/instagram"
	"github.com/blacktop/genpost/internal/genpost/linkedin"
	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/media"
	"github.com/blacktop/genpost/internal/tools"
	"github.com/blacktop/genpost/internal/tui"
)

// app wires the services shared by the chat, MCP and one-shot commands.
type app struct {
	openai     *llm.OpenAI
	library    media.Library
	generator  *generate.Generator
	advisor    *advisor.Advisor
	dispatcher *genpost.Dispatcher
	registry   *tools.Registry
}

func newApp(settings config.Settings, creds config.Credentials) (*app, error) {
	client, err := llm.NewOpenAI(llm.Config{
		APIKey:  creds.OpenAI.APIKey,
		BaseURL: creds.OpenAI.BaseURL,
		Model:   modelFlag,
	})
	if err != nil {
		return nil, err
	}

	root := outputDirFlag
	if root == "" {
		root = settings.OutputDir
	}
	guidelines := guidelinesFlag
	if guidelines == "" {
		guidelines = advisor.DefaultGuidelinesDir
	}

	lib := media.NewLibrary(root)
	dispatcher, err := genpost.NewDispatcher(lib,
		linkedin.New(creds.LinkedIn, client),
		instagram.New(creds.Instagram, client),
		facebook.New(creds.Facebook, client),
	)
	if err != nil {
		return nil, err
	}
	for _, p := range settings.Platforms() {
		if missing := creds.Missing(p); len(missing) > 0 {
			logutil.Warnf("%s publishing is not configured: missing %v", p.Title(), missing)
		}
	}

	a := &app{
		openai:     client,
		library:    lib,
		generator:  generate.New(client.Client(), lib, generate.WithGuidelinesDir(guidelines)),
		advisor:    advisor.New(client, advisor.WithGuidelinesDir(guidelines), advisor.WithModel(modelFlag)),
		dispatcher: dispatcher,
	}
	a.registry = tools.New(tools.Deps{
		Generator:  a.generator,
		Advisor:    a.advisor,
		Dispatcher: a.dispatcher,
		Settings:   settings,
	})
	logutil.Debugf("output dir=%s guidelines dir=%s", lib.Root, guidelines)
	return a, nil
}

func (a *app) setSettings(s config.Settings) {
	a.registry.SetSettings(s)
}

// runWizard returns nil settings when the user cancels.
func runWizard(current config.Settings) (*config.Settings, error) {
	result, err := tea.NewProgram(tui.NewWizardModel(current)).Run()
	if err != nil {
		return nil, fmt.Errorf("settings wizard: %w", err)
	}
	final := result.(tui.WizardModel)
	if !final.ShouldSave() {
		return nil, nil
	}
	s := final.Result()
	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return &s, nil
}
