package prompt

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPurple    = lipgloss.Color("#7D56F4")
	colorGreen     = lipgloss.Color("#04B575")
	colorRed       = lipgloss.Color("#FF4141")
	colorYellow    = lipgloss.Color("#E5C07B")
	colorGray      = lipgloss.Color("#626262")
	colorLightGray = lipgloss.Color("#9e9e9e")
	colorBlue      = lipgloss.Color("#007BFF")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorGray)

	styleCode = lipgloss.NewStyle().
			Foreground(colorLightGray).
			PaddingLeft(2)

	styleHighlight = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(0, 1)
)

// Title renders a section heading.
func Title(s string) string { return styleTitle.Render(s) }

// Success renders a line that reports something done.
func Success(s string) string { return styleSuccess.Render("✔ " + s) }

// Warning renders a non fatal problem.
func Warning(s string) string { return styleWarning.Render("! " + s) }

// Failure renders a fatal error heading.
func Failure(s string) string { return styleError.Render(s) }

// Muted renders secondary text.
func Muted(s string) string { return styleMuted.Render(s) }

// Code renders a command the user can copy.
func Code(s string) string { return styleCode.Render(s) }

// Highlight renders a value inside a sentence, such as a driver name.
func Highlight(s string) string { return styleHighlight.Render(s) }

// Box frames a block of text.
func Box(s string) string { return styleBox.Render(s) }
