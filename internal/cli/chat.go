// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the orgrag CLI.
//
// Handles the "orgrag chat" command: a line-oriented REPL over stored
// conversations, for terminals where the full TUI is unwanted (ssh, screen
// readers, scripting with expect).
//
// Interactive commands:
//   /help             Show available commands
//   /new              Start a new conversation
//   /list             List conversations
//   /open N           Open conversation N from the list
//   /sources          List document sources with selection state
//   /select N         Toggle source N in the selection
//   /mode [name]      Show or switch query mode (rag, general_knowledge, web_search)
//   /stats            Show backend index statistics
//   /quit             Exit chat
//   Ctrl+D            Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/config"
	"github.com/jeranaias/orgrag-tui/internal/model"
	"github.com/jeranaias/orgrag-tui/internal/session"
	"github.com/jeranaias/orgrag-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	answerLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive REPL against the given session. The
// client is used for backend queries outside the session's scope, like
// /stats.
func HandleChat(ctx context.Context, client *api.Client, mgr *session.Manager) error {
	if !IsTTY() {
		return fmt.Errorf("stdin is not a terminal; use 'orgrag ask' for piped input")
	}

	input := NewChatCLI()
	defer input.Close()

	fmt.Println(infoStyle.Render("orgrag chat. /help lists commands, Ctrl+D exits."))

	// Warm the lists; failures surface later through the error slot.
	mgr.LoadConversations(ctx)
	mgr.LoadSources(ctx)

	for {
		line, err := input.ReadInput(promptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// io.EOF on Ctrl+D
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(ctx, client, mgr, line); quit {
				return nil
			}
			continue
		}

		sendFromREPL(ctx, mgr, line)
	}
}

// sendFromREPL submits a question, creating a conversation on first use.
func sendFromREPL(ctx context.Context, mgr *session.Manager, question string) {
	if mgr.Phase() != session.PhaseActive {
		if _, err := mgr.NewConversation(ctx); err != nil {
			printSessionError(err)
			return
		}
		fmt.Println(infoStyle.Render("started a new conversation"))
	}

	if err := mgr.SendMessage(ctx, question); err != nil {
		printSessionError(err)
		return
	}

	msgs := mgr.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant {
		return
	}

	fmt.Println(answerLabelStyle.Render("Assistant"))
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(last.Content))
	} else {
		fmt.Println(last.Content)
	}
	if len(last.SourcesUsed) > 0 {
		fmt.Println(sourceStyle.Render("Sources: " + strings.Join(last.SourcesUsed, ", ")))
	}
}

// runChatCommand executes a /command. Returns true when the REPL should
// exit.
func runChatCommand(ctx context.Context, client *api.Client, mgr *session.Manager, line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		printChatHelp()

	case "/new":
		if id, err := mgr.NewConversation(ctx); err != nil {
			printSessionError(err)
		} else {
			fmt.Println(infoStyle.Render("new conversation " + id))
		}

	case "/list":
		convs := mgr.Conversations()
		if len(convs) == 0 {
			fmt.Println(infoStyle.Render("no conversations"))
			break
		}
		active := mgr.ActiveConversationID()
		for i, c := range convs {
			marker := " "
			if c.ID == active {
				marker = "*"
			}
			fmt.Printf("%s %2d. %s\n", marker, i+1, c.DisplayTitle())
		}

	case "/open":
		convs := mgr.Conversations()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(convs) {
			fmt.Println(infoStyle.Render("usage: /open N (see /list)"))
			break
		}
		target := convs[n-1]
		if err := mgr.SelectConversation(ctx, target.ID); err != nil {
			printSessionError(err)
			break
		}
		fmt.Println(infoStyle.Render("opened " + target.DisplayTitle()))
		for _, msg := range mgr.Messages() {
			fmt.Printf("%s: %s\n", msg.Role.DisplayName(), msg.Preview(120))
		}

	case "/sources":
		sources := mgr.Sources()
		if len(sources) == 0 {
			fmt.Println(infoStyle.Render("no documents"))
			break
		}
		for i, s := range sources {
			check := "[ ]"
			if mgr.IsSelected(s.ID) {
				check = "[x]"
			}
			suffix := ""
			if s.IsOrgWide() {
				suffix = " (org)"
			}
			fmt.Printf("%s %2d. %s%s\n", check, i+1, s.Name, suffix)
		}

	case "/select":
		sources := mgr.Sources()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(sources) {
			fmt.Println(infoStyle.Render("usage: /select N (see /sources)"))
			break
		}
		s := sources[n-1]
		if mgr.ToggleSource(s.ID) {
			fmt.Println(commandStyle.Render("selected " + s.Name))
		} else {
			fmt.Println(infoStyle.Render("deselected " + s.Name))
		}

	case "/mode":
		if arg == "" {
			fmt.Println(infoStyle.Render("mode: " + mgr.Mode().String()))
			break
		}
		if err := mgr.SetMode(model.QueryMode(arg)); err != nil {
			fmt.Println(infoStyle.Render("modes: rag, general_knowledge, web_search"))
			break
		}
		fmt.Println(commandStyle.Render("mode: " + arg))

	case "/stats":
		stats, err := client.Stats(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[X] stats unavailable: "+err.Error()))
			break
		}
		fmt.Printf("collection: %s\n", stats.CollectionName)
		fmt.Printf("documents:  %d\n", stats.TotalDocuments)
		if stats.EmbeddingModel != "" {
			fmt.Printf("embedding:  %s\n", stats.EmbeddingModel)
		}
		if stats.LLMModel != "" {
			fmt.Printf("llm:        %s\n", stats.LLMModel)
		}

	default:
		fmt.Println(infoStyle.Render("unknown command " + cmd + " (/help lists commands)"))
	}
	return false
}

func printChatHelp() {
	help := []string{
		"/new              start a new conversation",
		"/list             list conversations",
		"/open N           open conversation N",
		"/sources          list document sources",
		"/select N         toggle source N",
		"/mode [name]      show or switch query mode",
		"/stats            show backend index statistics",
		"/quit             exit",
	}
	for _, h := range help {
		fmt.Println("  " + commandStyle.Render(h))
	}
}

func printSessionError(err error) {
	var se *session.Error
	if errors.As(err, &se) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("[X] "+se.DisplayMessage()))
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("[X] "+err.Error()))
}
