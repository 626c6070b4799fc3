package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/forPelevin/dips/internal/types"
)

// termSurface renders session events as styled terminal lines.
type termSurface struct {
	w io.Writer

	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newTermSurface(w io.Writer) *termSurface {
	r := lipgloss.NewRenderer(w)
	return &termSurface{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		label:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
	}
}

func (s *termSurface) Render(ev types.Event) {
	switch ev.Kind {
	case types.EventPreview:
		fmt.Fprintf(s.w, "%s %s\n", s.label.Render("preview:"), ev.Preview.ImageURL)
		fmt.Fprintf(s.w, "%s %s\n", s.label.Render("input:"), ev.Preview.Path)
	case types.EventOutput:
		if p, ok := ev.Output.Path(); ok {
			fmt.Fprintf(s.w, "%s %s\n", s.label.Render("output:"), p)
		} else {
			fmt.Fprintf(s.w, "%s %s\n", s.label.Render("output:"), s.muted.Render("none"))
		}
	case types.EventDispatched:
		fmt.Fprintf(s.w, "%s %s -> %s\n", s.success.Render("dispatched:"), ev.Input, ev.Output)
	case types.EventError:
		fmt.Fprintf(s.w, "%s %s\n", s.failure.Render("error ("+ev.Op+"):"), ev.Message)
	}
}

func (s *termSurface) banner(text string) {
	fmt.Fprintln(s.w, s.title.Render(text))
}
