// The console is a terminal chat client for the marketing intelligence
// agent: it probes the backend, submits turns, renders the transcript
// with agent activity, and offers trend selection and session switching.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tottenjordan/zghost/internal/artifact"
	"github.com/tottenjordan/zghost/internal/backend"
	"github.com/tottenjordan/zghost/internal/config"
	"github.com/tottenjordan/zghost/internal/conversation"
	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/repository"
	"github.com/tottenjordan/zghost/internal/service"
	"github.com/tottenjordan/zghost/internal/view"
)

type console struct {
	cfg      *config.Config
	svc      *service.Service
	renderer *view.Renderer
	resolver *artifact.Resolver

	// Index of the first not-yet-printed message.
	watermark int

	// Base64 PDF staged for the next submission, and its filename.
	pendingPDF     string
	pendingPDFName string
}

func main() {
	apiURL := flag.String("api", "", "agent backend base URL (overrides API_BASE_URL)")
	artifactURL := flag.String("artifacts", "", "artifact server base URL (overrides ARTIFACT_BASE_URL)")
	dbPath := flag.String("db", "", "local transcript database (overrides DATABASE_URL)")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	showTimeline := flag.Bool("timeline", true, "show agent activity above replies")
	flag.Parse()

	log.SetFlags(log.Ltime)

	cfg := config.Load()
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if *artifactURL != "" {
		cfg.ArtifactBaseURL = *artifactURL
	}
	if *dbPath != "" {
		cfg.DatabaseURL = *dbPath
	}

	client := backend.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)

	fmt.Printf("Waiting for agent backend at %s...\n", cfg.APIBaseURL)
	prober := backend.NewProber(client, cfg.ProbeInterval, cfg.ProbeAttempts)
	if !prober.Wait(context.Background()) {
		log.Fatalf("Agent backend did not become ready at %s", cfg.APIBaseURL)
	}
	fmt.Println("Backend ready.")

	store, err := repository.NewTranscriptStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	conv := conversation.New(
		domain.Session{UserID: cfg.DefaultUserID, AppName: cfg.DefaultAppName},
		func(session domain.Session, key string) string {
			return artifact.APIRetrievalURL(cfg.APIBaseURL, session, key)
		},
	)

	c := &console{
		cfg: cfg,
		renderer: view.NewRenderer(view.Options{
			ForceNoColor: *noColor,
			ShowTimeline: *showTimeline,
		}),
		resolver: artifact.NewResolver(cfg.RequestTimeout),
	}
	c.svc = service.New(cfg, client, conv, store, nil)

	fmt.Println("\nType a message and press Enter to send.")
	fmt.Println("Commands: /help for the list, /quit to exit")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), cfg.MaxMessageLength+1024)

	for {
		fmt.Print("\n> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		default:
			if !scanner.Scan() {
				return
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" && c.pendingPDF == "" {
				continue
			}
			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}
			if strings.HasPrefix(input, "/") {
				c.runCommand(input)
				continue
			}
			c.submit(input)
		}
	}
}

// composeSubmission resolves the outgoing text and any staged PDF. An
// attached PDF forces the query to the phrasing the backend expects.
func (c *console) composeSubmission(input string) (string, string) {
	pdf := c.pendingPDF
	text := input
	if pdf != "" {
		text = "use this pdf " + c.pendingPDFName
	}
	c.pendingPDF = ""
	c.pendingPDFName = ""
	return text, pdf
}

func (c *console) submit(input string) {
	ctx := context.Background()
	text, pdf := c.composeSubmission(input)
	fmt.Println("Thinking...")

	err := c.svc.Submit(ctx, text, pdf)
	if err != nil {
		// Backend failures already show up as chat messages; only
		// local rejections need their own line.
		switch err {
		case service.ErrEmptyMessage, service.ErrMessageTooLong, service.ErrSubmissionInFlight:
			fmt.Printf("Not sent: %v\n", err)
			return
		}
	}
	c.redraw()
}

func (c *console) redraw() {
	snap := c.svc.Snapshot()
	c.watermark = c.renderer.RenderMessages(snap, c.watermark)
	c.renderer.RenderTrends(snap)
	c.renderer.RenderStatus(snap)
}

func (c *console) runCommand(input string) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]
	ctx := context.Background()

	switch cmd {
	case "/help":
		fmt.Println(`Commands:
  /trends            show the current trend picker
  /google <n>        select google trend number n
  /youtube <n>       select youtube trend number n
  /sessions          list your sessions
  /switch <id>       load an existing session
  /new               start a fresh session
  /attach <file>     attach a PDF to the next message
  /save              download generated artifacts
  /quit              exit`)

	case "/trends":
		c.renderer.RenderTrends(c.svc.Snapshot())

	case "/google", "/youtube":
		c.selectTrend(ctx, cmd, args)

	case "/sessions":
		sessions, err := c.svc.ListSessions(ctx)
		if err != nil {
			fmt.Printf("Failed to list sessions: %v\n", err)
			return
		}
		c.renderer.RenderSessionList(sessions)

	case "/switch":
		if len(args) != 1 {
			fmt.Println("Usage: /switch <session-id>")
			return
		}
		if err := c.svc.SwitchSession(ctx, args[0]); err != nil {
			fmt.Printf("Failed to switch session: %v\n", err)
			return
		}
		c.watermark = 0
		c.redraw()

	case "/new":
		if err := c.svc.StartNewSession(); err != nil {
			fmt.Printf("Failed to start new session: %v\n", err)
			return
		}
		c.watermark = 0
		fmt.Println("Started a new session.")

	case "/attach":
		if len(args) != 1 {
			fmt.Println("Usage: /attach <file.pdf>")
			return
		}
		c.attachPDF(args[0])

	case "/save":
		c.saveArtifacts(ctx)

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", cmd)
	}
}

func (c *console) selectTrend(ctx context.Context, cmd string, args []string) {
	snap := c.svc.Snapshot()

	kind := domain.TrendKindGoogle
	list := snap.GoogleTrends
	if cmd == "/youtube" {
		kind = domain.TrendKindYouTube
		list = snap.YouTubeTrends
	}

	if len(args) != 1 {
		fmt.Printf("Usage: %s <number>\n", cmd)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(list) {
		fmt.Printf("Pick a number between 1 and %d.\n", len(list))
		return
	}

	fmt.Println("Thinking...")
	if err := c.svc.SelectTrend(ctx, kind, list[n-1]); err != nil {
		switch err {
		case conversation.ErrTrendAlreadySelected:
			fmt.Println("You already selected a trend of that kind.")
			return
		case service.ErrSubmissionInFlight:
			fmt.Printf("Not sent: %v\n", err)
			return
		}
	}
	c.redraw()
}

func (c *console) attachPDF(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", path, err)
		return
	}
	c.pendingPDF = base64.StdEncoding.EncodeToString(data)
	c.pendingPDFName = filepath.Base(path)
	fmt.Printf("Attached %s (%d bytes); press Enter to send it as \"use this pdf %s\".\n", path, len(data), c.pendingPDFName)
}

// saveArtifacts downloads every artifact in the transcript to the local
// artifact directory.
func (c *console) saveArtifacts(ctx context.Context) {
	snap := c.svc.Snapshot()

	saved := 0
	for _, msg := range snap.Messages {
		for _, art := range msg.Artifacts {
			media, err := c.resolver.Fetch(ctx, art.URL, art.Kind)
			if err != nil {
				fmt.Printf("Failed to fetch %s: %v\n", art.Key, err)
				continue
			}
			path, err := media.Save(c.cfg.ArtifactDir, art.Key)
			if err != nil {
				fmt.Printf("Failed to save %s: %v\n", art.Key, err)
				continue
			}
			fmt.Printf("Saved %s\n", path)
			saved++
		}
	}
	if saved == 0 {
		fmt.Println("No artifacts to save.")
	}
}
