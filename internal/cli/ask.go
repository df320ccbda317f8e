// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the orgrag CLI.
//
// Handles the "orgrag ask" command which sends one question straight to the
// document index and streams the answer to stdout.
//
// Examples:
//   orgrag ask "What is our travel reimbursement policy?"
//   orgrag ask --top-k 10 "Summarize the onboarding checklist"
//   echo "What changed in Q3?" | orgrag ask
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders answers for terminal display. Plain text is the
// fallback when the renderer fails to initialize.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display. Returns the
// original content if rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// STYLES
// =============================================================================

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	sourceStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// =============================================================================
// ASK HANDLER
// =============================================================================

// AskOptions configures a one-shot query.
type AskOptions struct {
	Question    string
	TopK        int
	ShowSources bool
	Quiet       bool
}

// HandleAsk runs a single direct query against the index. On a TTY the
// answer streams in, then is re-rendered as markdown; piped output stays
// plain and incremental.
func HandleAsk(ctx context.Context, client *api.Client, opts AskOptions) error {
	question := strings.TrimSpace(opts.Question)

	// Piped stdin supplies the question when the argument is missing.
	if question == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(bufio.NewReader(os.Stdin))
			if err == nil {
				question = strings.TrimSpace(string(data))
			}
		}
	}
	if question == "" {
		return fmt.Errorf("no question provided. Usage: orgrag ask \"your question\"")
	}

	useMarkdown := IsStdoutTTY()
	req := api.ChatRequest{Query: question, TopK: opts.TopK}

	if useMarkdown && opts.ShowSources {
		// Sources only come back on the non-streaming endpoint.
		result, err := client.Chat(ctx, req)
		if err != nil {
			return displayAskError(err)
		}
		fmt.Print(renderMarkdown(result.Response))
		if len(result.Sources) > 0 && !opts.Quiet {
			fmt.Println(separatorStyle.Render(strings.Repeat("─", 45)))
			for _, s := range result.Sources {
				fmt.Println(sourceStyle.Render(fmt.Sprintf("  %s (distance %.3f)", s.Source, s.Distance)))
			}
		}
		return nil
	}

	full, err := client.StreamChat(ctx, req, func(chunk string) {
		if !useMarkdown {
			fmt.Print(chunk)
		}
	})
	if err != nil {
		return displayAskError(err)
	}

	if useMarkdown {
		fmt.Print(renderMarkdown(full))
	} else {
		fmt.Println()
	}
	return nil
}

// displayAskError unwraps server detail for readable failures.
func displayAskError(err error) error {
	var te *api.TransportError
	if errors.As(err, &te) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("[X]"), te.DisplayMessage())
		return err
	}
	var de *api.DecodeError
	if errors.As(err, &de) {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[X]"), de)
		return err
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[X]"), err)
	return err
}
