// Package view renders conversation state for the terminal.
package view

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/tottenjordan/zghost/internal/conversation"
	"github.com/tottenjordan/zghost/internal/domain"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiDim       = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiAI        = "\x1b[38;5;44m"
	ansiHuman     = "\x1b[38;5;220m"
	ansiSystem    = "\x1b[38;5;207m"
)

// Options configures a Renderer.
type Options struct {
	Out          io.Writer
	Wrap         int
	ForceColor   bool
	ForceNoColor bool
	ShowTimeline bool
}

// Renderer writes transcript output. It is stateless with respect to the
// conversation; the caller decides which slice of messages to print.
type Renderer struct {
	out          io.Writer
	width        int
	useColor     bool
	showTimeline bool
}

// NewRenderer creates a renderer for the given options.
func NewRenderer(opts Options) *Renderer {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{
		out:          out,
		width:        resolveWidth(out, opts.Wrap),
		useColor:     resolveColorChoice(out, opts),
		showTimeline: opts.ShowTimeline,
	}
}

// RenderMessages prints messages of the snapshot starting at index from,
// with each message's timeline when enabled. It returns the new high
// watermark.
func (r *Renderer) RenderMessages(snap conversation.Snapshot, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(snap.Messages); i++ {
		r.renderMessage(snap.Messages[i], snap.Timelines[snap.Messages[i].ID])
	}
	return len(snap.Messages)
}

func (r *Renderer) renderMessage(msg domain.Message, timeline []domain.TimelineEvent) {
	label := r.kindLabel(msg.Kind)
	if msg.Agent != "" {
		label += r.colorize(ansiDim, fmt.Sprintf(" (%s)", msg.Agent))
	}
	fmt.Fprintf(r.out, "\n%s\n", label)

	if r.showTimeline && len(timeline) > 0 {
		for _, ev := range timeline {
			r.renderTimelineEvent(ev)
		}
		fmt.Fprintln(r.out, r.colorize(ansiSeparator, strings.Repeat("-", 24)))
	}

	for _, line := range wrapText(msg.Content, r.width-2) {
		fmt.Fprintf(r.out, "  %s\n", line)
	}

	if msg.FinalReport {
		fmt.Fprintln(r.out, r.colorize(ansiDim, "  [final report]"))
	}
	if msg.PDFData != "" {
		fmt.Fprintln(r.out, r.colorize(ansiDim, "  [pdf attached]"))
	}
	for _, art := range msg.Artifacts {
		fmt.Fprintf(r.out, "  %s %s\n",
			r.colorize(ansiDim, fmt.Sprintf("[%s]", art.Kind)), art.URL)
	}
}

func (r *Renderer) renderTimelineEvent(ev domain.TimelineEvent) {
	prefix := r.colorize(ansiSeparator, "|")
	switch ev.Type {
	case domain.TimelineAgentActivity:
		fmt.Fprintf(r.out, "%s %s\n", prefix, r.colorize(ansiDim, ev.Activity))
	case domain.TimelineFunctionCall, domain.TimelineFunctionResponse:
		fmt.Fprintf(r.out, "%s %s\n", prefix, r.colorize(ansiDim, ev.Title))
	case domain.TimelineSources:
		fmt.Fprintf(r.out, "%s %s\n", prefix, r.colorize(ansiDim, ev.Title))
	case domain.TimelineArtifact:
		if ev.Artifact != nil {
			fmt.Fprintf(r.out, "%s %s: %s\n", prefix, r.colorize(ansiDim, ev.Title), ev.Artifact.Key)
		}
	}
}

// RenderTrends prints the trend picker when the snapshot offers one.
func (r *Renderer) RenderTrends(snap conversation.Snapshot) {
	if !snap.TrendSelectorVisible {
		return
	}
	if len(snap.GoogleTrends) == 0 && len(snap.YouTubeTrends) == 0 {
		return
	}

	fmt.Fprintln(r.out)
	if len(snap.GoogleTrends) > 0 && snap.SelectedGoogleTrend == "" {
		fmt.Fprintln(r.out, r.colorize(ansiBoldWhite, "Google Trends (/google <n> to select):"))
		for i, trend := range snap.GoogleTrends {
			fmt.Fprintf(r.out, "  %2d. %s\n", i+1, trend.Label())
		}
	}
	if len(snap.YouTubeTrends) > 0 && snap.SelectedYouTubeTrend == "" {
		fmt.Fprintln(r.out, r.colorize(ansiBoldWhite, "YouTube Trends (/youtube <n> to select):"))
		for i, trend := range snap.YouTubeTrends {
			fmt.Fprintf(r.out, "  %2d. %s\n", i+1, trend.Label())
		}
	}
}

// RenderStatus prints the one-line session status footer.
func (r *Renderer) RenderStatus(snap conversation.Snapshot) {
	parts := []string{}
	if snap.Session.SessionID != "" {
		parts = append(parts, "session "+snap.Session.SessionID)
	} else {
		parts = append(parts, "no session yet")
	}
	if snap.SourceCount > 0 {
		parts = append(parts, fmt.Sprintf("%d sources", snap.SourceCount))
	}
	fmt.Fprintln(r.out, r.colorize(ansiDim, "["+strings.Join(parts, " | ")+"]"))
}

// RenderSessionList prints a numbered session picker list.
func (r *Renderer) RenderSessionList(sessions []domain.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(r.out, "No sessions found.")
		return
	}
	fmt.Fprintln(r.out, r.colorize(ansiBoldWhite, "Sessions (/switch <id> to load):"))
	for i, s := range sessions {
		fmt.Fprintf(r.out, "  %2d. %s  %s\n", i+1, s.ID,
			r.colorize(ansiDim, fmt.Sprintf("(%d events)", s.EventCount)))
	}
}

func (r *Renderer) kindLabel(kind domain.MessageKind) string {
	switch kind {
	case domain.MessageKindHuman:
		return r.colorize(ansiHuman, "You")
	case domain.MessageKindAI:
		return r.colorize(ansiAI, "Assistant")
	case domain.MessageKindSystem:
		return r.colorize(ansiSystem, "System")
	default:
		return string(kind)
	}
}

func (r *Renderer) colorize(code, text string) string {
	if !r.useColor {
		return text
	}
	return code + text + ansiReset
}

// wrapText breaks text into lines no wider than width, preserving
// existing newlines. Words longer than the width stay on their own line.
func wrapText(text string, width int) []string {
	if width < 20 {
		width = 20
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line += " " + word
		}
		lines = append(lines, line)
	}
	return lines
}

func resolveWidth(out io.Writer, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if file, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func resolveColorChoice(out io.Writer, opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
