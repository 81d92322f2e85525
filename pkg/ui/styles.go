// Package ui holds the color palette shared by the terminal views.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type StyleFunc func(...string) string

const (
	DarkGrayHex = "#333333"
	FuchsiaHex  = "#EE6FF8"
	MagentaHex  = "#F25D94"
)

var (
	Fuchsia = lipgloss.AdaptiveColor{Light: FuchsiaHex, Dark: FuchsiaHex}
	Cream   = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	Green   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	Red     = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	// Row colors
	RowPrimaryFocused     = FuchsiaFg
	RowSecondaryFocused   = DullFuchsiaFg
	RowPrimaryUnfocused   = BrightGrayFg
	RowSecondaryUnfocused = DimBrightGrayFg

	NormalFg    = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#dddddd", Light: "#1a1a1a"})
	DimNormalFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#777777", Light: "#A49FA5"})

	BrightGrayFg    = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#979797", Light: "#847A85"})
	DimBrightGrayFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#4D4D4D", Light: "#C2B8C2"})

	GrayFg     = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#626262", Light: "#909090"})
	DarkGrayFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#3C3C3C", Light: "#DDDADA"})

	GreenFg    = NewFgStyle(Green)
	DimGreenFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#0B5137", Light: "#72D2B0"})

	FuchsiaFg     = NewFgStyle(Fuchsia)
	DullFuchsiaFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#AD58B4", Light: "#F793FF"})

	SubtleIndigoFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#514DC1", Light: "#7D79F6"})

	YellowFg     = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#ECFD65", Light: "#04B575"}) // renders light green on light backgrounds
	DullYellowFg = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#9BA92F", Light: "#6BCB94"})
	RedFg        = NewFgStyle(Red)
	FaintRedFg   = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#C74665", Light: "#FF6F91"})

	TabColor         = InstaPurple
	SelectedTabColor = InstaMagenta

	// instagram color palette
	// https://www.color-hex.com/color-palette/44340
	InstaMagenta = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#d62976", Light: "#d62976"})
	InstaPurple  = NewFgStyle(lipgloss.AdaptiveColor{Dark: "#962fbf", Light: "#962fbf"})
)

// Returns a style func with foreground and background colors.
func NewStyle(fg, bg lipgloss.TerminalColor, bold bool) StyleFunc {
	return lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(bold).Render
}

// Returns a style func with a foreground color only.
func NewFgStyle(c lipgloss.TerminalColor) StyleFunc {
	return lipgloss.NewStyle().Foreground(c).Render
}

// TermStyle is a termenv style for c in the detected color profile, for
// helpers that style per rune.
func TermStyle(c lipgloss.AdaptiveColor) termenv.Style {
	hex := c.Light
	if lipgloss.HasDarkBackground() {
		hex = c.Dark
	}
	p := lipgloss.ColorProfile()
	return p.String().Foreground(p.Color(hex))
}
