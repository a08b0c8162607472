/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blacktop/genpost/internal/agent"
	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time.
var Version = "dev"

var (
	verboseFlag    bool
	modelFlag      string
	outputDirFlag  string
	guidelinesFlag string
)

const banner = `
╔═══════════════════════════════════════════════════════════════════╗
║                                                                   ║
║   🎨 GENPOST                                                      ║
║   ─────────────────────────────────────────────────────────────   ║
║   AI-Powered Social Media Content Creator                         ║
║                                                                   ║
║   Powered by: OpenAI chat | DALL-E 3 | Sora                       ║
║                                                                   ║
╚═══════════════════════════════════════════════════════════════════╝
`

const helpText = `
┌─────────────────────────────────────────────────────────────────┐
│  Available Commands                                             │
├─────────────────────────────────────────────────────────────────┤
│  /config    - Reconfigure generation settings                   │
│  /settings  - View current settings                             │
│  /clear     - Clear conversation history                        │
│  /help      - Show this help message                            │
│  /exit      - Exit the application                              │
│  /quit      - Exit the application                              │
└─────────────────────────────────────────────────────────────────┘

💡 Tips:
   • Describe your event/theme and ask for content suggestions
   • Request specific platforms: "Create an Instagram post for..."
   • Ask for variations: "Give me 3 different styles for..."
   • Refine results: "Make it more professional" or "Add more energy"
`

const goodbye = "\n👋 Goodbye! Thanks for using genpost."

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genpost",
		Short: "Generate and publish social media content",
		Long: "genpost is a conversational assistant that generates images, videos and captions with OpenAI, " +
			"checks them against your policy and design guidelines, and publishes them to LinkedIn, Instagram and Facebook.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logutil.SetVerbose(verboseFlag)
		},
		RunE: runChat,
		Example: `  genpost
  genpost publish --platform linkedin --file ./launch.png --caption-prompt "Our new product"
  genpost generate image "A sunrise over a modern office"`,
	}

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Chat model for the agent, captions and compliance checks")
	cmd.PersistentFlags().StringVar(&outputDirFlag, "output-dir", "", "Where generated content is stored (default generated_content)")
	cmd.PersistentFlags().StringVar(&guidelinesFlag, "guidelines-dir", "", "Directory with policy_guidelines.md and design_guidelines.md overrides (default guidelines)")

	cmd.AddCommand(
		newPublishCommand(),
		newGenerateCommand(),
		newCheckCommand(),
		newConfigCommand(),
		newMCPCommand(),
		newCompletionCommand(),
	)
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fmt.Fprint(out, banner)

	creds := config.LoadCredentials()
	if missing := creds.OpenAI.Missing(); len(missing) > 0 {
		fmt.Fprintln(out, "\n✗ ERROR: OpenAI API key not configured!")
		fmt.Fprintf(out, "\nPlease export %s, e.g.\n  export %s=sk-...\n", missing[0], missing[0])
		fmt.Fprintln(out, "\nGet your API key from: https://platform.openai.com/api-keys")
		return genpost.MissingEnvError{Provider: "openai", Variables: missing}
	}
	fmt.Fprintln(out, "✓ API key found!")

	interactive := isTerminal(cmd.InOrStdin())
	settings, err := loadOrConfigure(out, interactive)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n🚀 Initializing agent...")
	a, err := newApp(*settings, creds)
	if err != nil {
		return err
	}
	chat, err := agent.New(a.openai.Client(), a.registry, *settings, agent.WithModel(modelFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Agent ready!")
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 65))
	fmt.Fprintln(out, "  Start chatting! Tell me about your event or content needs.")
	fmt.Fprintln(out, strings.Repeat("=", 65))

	lines := newLineReader(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "\n🧑 You: ")
		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, goodbye)
			return nil
		case line, ok := <-lines.next():
			if !ok {
				fmt.Fprintln(out, goodbye)
				return nil
			}
			input = strings.TrimSpace(line)
		}
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			switch strings.ToLower(input) {
			case "/exit", "/quit":
				fmt.Fprintln(out, goodbye)
				return nil
			case "/help":
				fmt.Fprint(out, helpText)
			case "/config":
				if !interactive {
					fmt.Fprintln(out, "✗ /config needs an interactive terminal.")
					continue
				}
				fmt.Fprintln(out, "\n🔄 Reconfiguring settings...")
				updated, err := runWizard(*settings)
				if err != nil {
					fmt.Fprintf(out, "✗ %v\n", err)
					continue
				}
				if updated == nil {
					fmt.Fprintln(out, "Configuration unchanged.")
					continue
				}
				settings = updated
				a.setSettings(*settings)
				chat.Refresh(*settings)
				fmt.Fprintln(out, "✓ Agent updated with new configuration!")
			case "/settings":
				fmt.Fprintln(out, settings.Render())
			case "/clear":
				chat.Reset()
				fmt.Fprintln(out, "✓ Conversation history cleared!")
			default:
				fmt.Fprintf(out, "❓ Unknown command: %s\n", input)
				fmt.Fprintln(out, "   Type /help to see available commands.")
			}
			continue
		}

		fmt.Fprint(out, "\n🤖 Agent: ")
		fmt.Fprintln(out, strings.Repeat("-", 55))
		reply, err := chat.Chat(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, goodbye)
				return nil
			}
			logutil.Errorf("chat: %v", err)
			reply = fmt.Sprintf("%s Error: %v\n   Please try again or type /help for assistance.", genpost.FailureMarker, err)
		}
		fmt.Fprintln(out, reply)
		fmt.Fprintln(out, strings.Repeat("-", 55))
	}
}

// loadOrConfigure runs the wizard on first use when a terminal is attached.
func loadOrConfigure(out io.Writer, interactive bool) (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if config.Exists() || !interactive {
		return settings, nil
	}
	fmt.Fprintln(out, "\nLet's configure your content generation settings.")
	updated, err := runWizard(*settings)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		fmt.Fprintln(out, "Using default settings.")
		return settings, nil
	}
	return updated, nil
}

// lineReader reads stdin one line per request, leaving it free for the
// settings wizard between prompts.
type lineReader struct {
	scanner *bufio.Scanner
	want    chan struct{}
	lines   chan string
	done    chan struct{}
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		scanner: bufio.NewScanner(r),
		want:    make(chan struct{}),
		lines:   make(chan string),
		done:    make(chan struct{}),
	}
	go lr.run()
	return lr
}

func (lr *lineReader) run() {
	defer close(lr.done)
	defer close(lr.lines)
	for range lr.want {
		if !lr.scanner.Scan() {
			return
		}
		lr.lines <- lr.scanner.Text()
	}
}

// next requests one line. The returned channel is closed at end of input.
func (lr *lineReader) next() <-chan string {
	select {
	case lr.want <- struct{}{}:
	case <-lr.done:
	}
	return lr.lines
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
