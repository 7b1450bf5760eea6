package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Goldfinch yellow for FINCH branding
const finchGold = "#F4B942"

// FINCH ASCII art (filled block style)
var finchArt = []string{
	"    ███████╗██╗███╗   ██╗ ██████╗██╗  ██╗",
	"    ██╔════╝██║████╗  ██║██╔════╝██║  ██║",
	"    █████╗  ██║██╔██╗ ██║██║     ███████║",
	"    ██╔══╝  ██║██║╚██╗██║██║     ██╔══██║",
	"    ██║     ██║██║ ╚████║╚██████╗██║  ██║",
	"    ╚═╝     ╚═╝╚═╝  ╚═══╝ ╚═════╝╚═╝  ╚═╝",
}

// Arrow ASCII art (large ">" shape)
var arrowArt = []string{
	"  ██  ",
	"   ██ ",
	"    ██",
	"   ██ ",
	"  ██  ",
	"      ",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(finchGold)),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(finchGold)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

// RenderBanner returns the FINCH ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for i := range finchArt {
		arrow := s.Banner.Render(arrowArt[i])
		text := s.Banner.Render(finchArt[i])
		_, _ = b.WriteString(arrow)
		_, _ = b.WriteString(text)
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips contains getting started tips displayed under the banner.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Ask about stock prices by ticker, e.g. \"AAPL stock price\"",
	"  • Ask for the latest news and Finch searches the web for you",
	"  • Use /help to see available commands",
	"  • Press Esc to cancel a response, Ctrl+D to exit",
}

// RenderWelcomeTips returns styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
