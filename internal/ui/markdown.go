package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer turns assistant markdown into terminal output.
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}

// GlamourRenderer renders markdown with glamour.
type GlamourRenderer struct {
	term *glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer that wraps at width columns.
func NewGlamourRenderer(width int) (*GlamourRenderer, error) {
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &GlamourRenderer{term: term}, nil
}

// Render falls back to the raw text when glamour fails.
func (r *GlamourRenderer) Render(markdown string) (string, error) {
	out, err := r.term.Render(markdown)
	if err != nil {
		return markdown, nil
	}
	return out, nil
}

// PlainRenderer is used when output is not a terminal.
type PlainRenderer struct{}

func (PlainRenderer) Render(markdown string) (string, error) {
	return strings.TrimRight(markdown, "\n") + "\n", nil
}
