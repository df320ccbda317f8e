// orgrag TUI - A terminal client for the organization RAG backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orgrag-tui/internal/api"
	"github.com/jeranaias/orgrag-tui/internal/cli"
	"github.com/jeranaias/orgrag-tui/internal/config"
	"github.com/jeranaias/orgrag-tui/internal/identity"
	"github.com/jeranaias/orgrag-tui/internal/ingest"
	"github.com/jeranaias/orgrag-tui/internal/model"
	"github.com/jeranaias/orgrag-tui/internal/session"
	"github.com/jeranaias/orgrag-tui/internal/storage"
	"github.com/jeranaias/orgrag-tui/internal/ui/chat"
	"github.com/jeranaias/orgrag-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd := ""
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "", "tui":
		runTUI()
	case "ask":
		runAsk(args)
	case "chat":
		runChat()
	case "upload":
		runUpload(args)
	case "transcripts":
		runTranscripts(args)
	case "export":
		runExport(args)
	case "watch":
		runWatch()
	case "stats":
		runStats()
	case "health":
		runHealth()
	case "version":
		fmt.Printf("orgrag %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`orgrag - terminal client for the organization RAG backend

Usage:
  orgrag                   Start the TUI (default)
  orgrag ask "question"    One-shot query, streamed to stdout
  orgrag chat              Line-oriented chat REPL
  orgrag upload FILE       Upload a document for ingestion
  orgrag transcripts [q]   List or search saved transcripts
  orgrag export ID         Export a saved transcript as markdown
  orgrag watch             Watch the configured directory and auto-upload
  orgrag stats             Show backend index statistics
  orgrag health            Check backend reachability
  orgrag version           Show version

Configuration lives at ~/.orgrag/config.toml. ORGRAG_URL, ORGRAG_USER,
ORGRAG_ORG, ORGRAG_MODE, ORGRAG_WATCH_DIR, and ORGRAG_THEME override it.
`)
}

// =============================================================================
// APP WIRING
// =============================================================================

// app bundles the wired-up dependencies every command needs.
type app struct {
	cfg    *config.Config
	client *api.Client
	user   identity.User
	org    identity.Organization
	mgr    *session.Manager
}

// setup loads configuration, resolves the identity, and builds the backend
// client and session manager.
func setup() *app {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		fatal(err)
	}
	org := provider.Organization()

	userID := cfg.Identity.UserID
	if userID == "" {
		userID = identity.DemoUserID
	}
	user, ok := provider.Lookup(userID)
	if !ok {
		fatal(fmt.Errorf("unknown user %q", userID))
	}

	client := api.NewClient(cfg.Server.URL)
	if cfg.Server.TimeoutSecs > 0 {
		client = client.WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second)
	}

	return &app{
		cfg:    cfg,
		client: client,
		user:   user,
		org:    org,
		mgr:    session.NewManager(client, user.ID, org.ID),
	}
}

func buildProvider(cfg *config.Config) (identity.Provider, error) {
	if cfg.Identity.UseDemo {
		return identity.NewDemoProvider(), nil
	}
	return identity.NewStaticProvider(
		identity.User{
			ID:    cfg.Identity.UserID,
			Name:  cfg.Identity.UserName,
			Role:  cfg.Identity.Role,
			OrgID: cfg.Identity.OrgID,
		},
		identity.Organization{
			ID:   cfg.Identity.OrgID,
			Name: cfg.Identity.OrgName,
		},
	)
}

func (a *app) transcriptStore() *storage.Store {
	if dir := a.cfg.UI.TranscriptDir; dir != "" {
		store, err := storage.NewStoreWithDir(dir)
		if err != nil {
			fatal(err)
		}
		return store
	}
	store, err := storage.NewStore()
	if err != nil {
		fatal(err)
	}
	return store
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// =============================================================================
// TUI
// =============================================================================

func runTUI() {
	a := setup()
	styles.ApplyTheme(a.cfg.UI.Theme)

	m := chat.New(a.mgr, a.client, a.transcriptStore(), a.user, a.org, a.cfg.Chat.TopK, a.cfg.Chat.HistoryLimit)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// The document watcher runs alongside the TUI when a watch dir is
	// configured, so drops into the folder become sources mid-session.
	if a.cfg.Documents.WatchDir != "" {
		watcher := startWatcher(a, func(*api.UploadResult) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := a.mgr.LoadSources(ctx); err == nil {
					p.Send(chat.SourcesLoadedMsg{Sources: a.mgr.Sources()})
				}
			}()
		}, nil)
		if watcher != nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

// =============================================================================
// CLI COMMANDS
// =============================================================================

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	topK := fs.Int("top-k", 0, "number of chunks to retrieve")
	showSources := fs.Bool("sources", false, "show retrieved sources")
	quiet := fs.Bool("quiet", false, "suppress extra output")
	fs.Parse(args)

	a := setup()
	k := *topK
	if k == 0 {
		k = a.cfg.Chat.TopK
	}

	opts := cli.AskOptions{
		Question:    strings.Join(fs.Args(), " "),
		TopK:        k,
		ShowSources: *showSources,
		Quiet:       *quiet,
	}
	if err := cli.HandleAsk(context.Background(), a.client, opts); err != nil {
		os.Exit(1)
	}
}

func runChat() {
	a := setup()
	if err := cli.HandleChat(context.Background(), a.client, a.mgr); err != nil {
		fatal(err)
	}
}

func runUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	visibility := fs.String("visibility", "", "personal or org-wide")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fatal(fmt.Errorf("usage: orgrag upload FILE [-visibility personal|org-wide]"))
	}
	path := fs.Arg(0)

	a := setup()
	vis := model.Visibility(*visibility)
	if vis == "" {
		vis = model.Visibility(a.cfg.Documents.Visibility)
	}

	f, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	result, err := a.mgr.UploadDocument(context.Background(), f, filepath.Base(path), vis)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("uploaded %s: %d chunks added, %d documents total\n",
		result.Filename, result.ChunksAdded, result.TotalDocuments)
}

func runTranscripts(args []string) {
	a := setup()
	store := a.transcriptStore()

	query := strings.Join(args, " ")
	metas, err := store.Search(query)
	if err != nil {
		fatal(err)
	}
	if len(metas) == 0 {
		fmt.Println("no transcripts")
		return
	}
	for _, meta := range metas {
		fmt.Printf("%s  %s  %s\n", meta.ID, meta.CachedAt.Format("2006-01-02 15:04"), meta.Title)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "export as JSON instead of markdown")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fatal(fmt.Errorf("usage: orgrag export CONVERSATION_ID [-json]"))
	}
	id := fs.Arg(0)

	a := setup()
	store := a.transcriptStore()

	transcript, err := store.Load(id)
	if err != nil {
		// Not cached locally; pull the log from the backend.
		msgs, apiErr := a.client.GetConversation(context.Background(), id)
		if apiErr != nil {
			fatal(err)
		}
		conv := model.Conversation{ID: id, CreatedAt: time.Now()}
		if saveErr := store.Save(conv, msgs); saveErr != nil {
			fatal(saveErr)
		}
		transcript, err = store.Load(id)
		if err != nil {
			fatal(err)
		}
	}

	if *asJSON {
		data, err := transcript.ExportJSON()
		if err != nil {
			fatal(err)
		}
		os.Stdout.Write(data)
		fmt.Println()
		return
	}
	fmt.Print(transcript.ExportMarkdown())
}

func runStats() {
	a := setup()
	stats, err := a.client.Stats(context.Background())
	if err != nil {
		fatal(err)
	}
	fmt.Printf("collection:      %s\n", stats.CollectionName)
	fmt.Printf("documents:       %d\n", stats.TotalDocuments)
	if stats.EmbeddingModel != "" {
		fmt.Printf("embedding model: %s\n", stats.EmbeddingModel)
	}
	if stats.LLMModel != "" {
		fmt.Printf("llm model:       %s\n", stats.LLMModel)
	}
}

func runHealth() {
	a := setup()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.client.Health(ctx); err != nil {
		fatal(err)
	}
	fmt.Printf("backend healthy at %s\n", a.client.BaseURL())
}

// =============================================================================
// DOCUMENT WATCHER
// =============================================================================

func runWatch() {
	a := setup()
	if a.cfg.Documents.WatchDir == "" {
		fatal(fmt.Errorf("no watch directory configured (documents.watch_dir or ORGRAG_WATCH_DIR)"))
	}

	watcher := startWatcher(a,
		func(result *api.UploadResult) {
			fmt.Printf("uploaded %s (%d chunks)\n", result.Filename, result.ChunksAdded)
		},
		func(path string, err error) {
			fmt.Fprintf(os.Stderr, "upload failed for %s: %v\n", filepath.Base(path), err)
		},
	)
	if watcher == nil {
		os.Exit(1)
	}
	defer watcher.Close()

	fmt.Printf("watching %s (ctrl+c to stop)\n", a.cfg.Documents.WatchDir)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func startWatcher(a *app, onUpload func(*api.UploadResult), onError func(string, error)) *ingest.Watcher {
	configDir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "watcher disabled: %v\n", err)
		return nil
	}

	watcher, err := ingest.NewWatcher(a.client, ingest.Config{
		WatchDir:         a.cfg.Documents.WatchDir,
		ManifestPath:     filepath.Join(configDir, "uploads.db"),
		Visibility:       model.Visibility(a.cfg.Documents.Visibility),
		Debounce:         time.Duration(a.cfg.Documents.DebounceMs) * time.Millisecond,
		UploadsPerMinute: a.cfg.Documents.MaxUploadsPerMinute,
		IgnorePatterns:   a.cfg.Documents.IgnorePatterns,
		UserID:           a.user.ID,
		OrgID:            a.org.ID,
		OnUpload:         onUpload,
		OnError:          onError,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "watcher disabled: %v\n", err)
		return nil
	}
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "watcher disabled: %v\n", err)
		return nil
	}
	return watcher
}
