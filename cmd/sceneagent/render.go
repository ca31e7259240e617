package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/memory"
	"github.com/nerrad567/sceneagent/internal/script"
)

// Catppuccin Mocha subset.
const (
	colorBlue     lipgloss.Color = "#89b4fa"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

// theme renders for one writer; a non-terminal writer gets plain text.
type theme struct {
	title lipgloss.Style
	label lipgloss.Style
	text  lipgloss.Style
	muted lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	code  lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		title: r.NewStyle().Foreground(colorBlue).Bold(true),
		label: r.NewStyle().Foreground(colorPeach),
		text:  r.NewStyle().Foreground(colorText),
		muted: r.NewStyle().Foreground(colorOverlay1),
		ok:    r.NewStyle().Foreground(colorGreen),
		warn:  r.NewStyle().Foreground(colorYellow),
		bad:   r.NewStyle().Foreground(colorRed),
		code:  r.NewStyle().Foreground(colorText).PaddingLeft(2),
	}
}

func renderSummary(w io.Writer, s memory.Summary) {
	t := newTheme(w)
	fmt.Fprintln(w, t.title.Render("Scene summary"))

	section := func(name string, items []string) {
		fmt.Fprintln(w, "  "+t.label.Render(name)+t.muted.Render(" ("+strconv.Itoa(len(items))+")"))
		if len(items) == 0 {
			fmt.Fprintln(w, "    "+t.muted.Render("none"))
			return
		}
		for _, it := range items {
			fmt.Fprintln(w, "    "+t.text.Render("• "+it))
		}
	}
	section("Objects", s.Objects)
	section("Materials", s.Materials)
	section("Cameras", s.Cameras)
	section("Lights", s.Lights)
	section("Collections", s.Collections)
	section("Add-ons", s.Addons)

	if s.LastCommand != "" {
		fmt.Fprintln(w, "  "+t.label.Render("Last command")+" "+t.text.Render(s.LastCommand))
	}
	if len(s.History) == 0 {
		return
	}
	fmt.Fprintln(w, t.title.Render("Recent tasks"))
	for _, h := range s.History {
		fmt.Fprintln(w, "  "+t.muted.Render(h.Timestamp)+" "+t.text.Render(h.Command))
		for _, o := range h.Objects {
			fmt.Fprintln(w, "    "+t.muted.Render(o))
		}
	}
}

func renderChanges(w io.Writer, changes []memory.Change) {
	t := newTheme(w)
	fmt.Fprintln(w, t.title.Render("Scene changes"))
	if len(changes) == 0 {
		fmt.Fprintln(w, "  "+t.muted.Render(memory.NoChanges))
		return
	}
	for _, c := range changes {
		style := t.text
		switch c.Kind {
		case memory.ChangeAdded:
			style = t.ok
		case memory.ChangeDeleted:
			style = t.bad
		case memory.ChangeTypeChanged:
			style = t.warn
		}
		fmt.Fprintln(w, "  "+style.Render(c.String()))
	}
}

func renderHistory(w io.Writer, rows []ledger.Dispatch) {
	t := newTheme(w)
	fmt.Fprintln(w, t.title.Render("Recent dispatches"))
	if len(rows) == 0 {
		fmt.Fprintln(w, "  "+t.muted.Render("none recorded"))
		return
	}
	for _, d := range rows {
		var outcome string
		switch {
		case d.Error != "":
			outcome = t.bad.Render("failed: " + d.Error)
		case !d.ConfirmWaited:
			outcome = t.muted.Render("unconfirmed")
		case d.Confirmed:
			outcome = t.ok.Render("confirmed " + d.ConfirmTime.String())
		default:
			outcome = t.warn.Render("timed out")
		}
		fmt.Fprintf(w, "  %s %s %s %s\n",
			t.muted.Render(d.DispatchedAt.Local().Format("2006-01-02 15:04:05.000")),
			t.label.Render(shortID(d.RunID)),
			t.text.Render(fmt.Sprintf("%-40s ops=%d skipped=%d", truncate(d.BlockHead, 40), d.Operations, d.Skipped)),
			outcome,
		)
	}
}

func renderCompile(w io.Writer, res directive.Result) {
	t := newTheme(w)
	if res.Empty() {
		fmt.Fprintln(w, t.warn.Render("nothing compiled"))
	} else {
		for _, ln := range strings.Split(strings.TrimRight(script.Join(res.Ops), "\n"), "\n") {
			fmt.Fprintln(w, t.code.Render(ln))
		}
	}
	for _, sk := range res.Skipped {
		reason := ""
		if sk.Reason != nil {
			reason = sk.Reason.Error()
		}
		fmt.Fprintln(w, t.warn.Render("skipped ")+t.text.Render(strconv.Quote(sk.Clause))+t.muted.Render(": "+reason))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
