// Package presenter provides consistent CLI output for user-facing messages,
// including success, error, warning, and informational output with color
// support and quiet mode. Logging (pkg/logger) is for diagnostics; presenter
// output is the product surface the user reads.
package presenter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
)

// UsageStats represents token usage and cost information for display
type UsageStats struct {
	InputTokens          int64
	OutputTokens         int64
	CacheWriteTokens     int64
	CacheReadTokens      int64
	TotalCost            float64
	CurrentContextWindow int
	MaxContextWindow     int
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output
	ColorAlways
	// ColorNever disables colored output
	ColorNever
)

// TerminalPresenter writes user-facing messages to a terminal
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	input       io.Reader
	quiet       bool
}

// New creates a TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		input:       os.Stdin,
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SIDEKICK_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// SetQuiet toggles quiet mode, which suppresses everything but errors
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is on
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Separator prints a horizontal rule
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, strings.Repeat("─", 60))
}

// Prompt displays a question and reads a single line of user input
func (p *TerminalPresenter) Prompt(question string) string {
	color.New(color.FgCyan).Fprintf(p.output, "%s: ", question)

	reader := bufio.NewReader(p.input)
	response, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(response)
}

// Stats displays token usage statistics, including a context window meter
func (p *TerminalPresenter) Stats(usage *UsageStats) {
	if p.quiet || usage == nil {
		return
	}

	statsColor := color.New(color.FgCyan, color.Bold)
	statsColor.Fprintf(p.output, "[Usage] input: %d | output: %d | cache write: %d | cache read: %d | cost: $%.4f\n",
		usage.InputTokens, usage.OutputTokens, usage.CacheWriteTokens, usage.CacheReadTokens, usage.TotalCost)

	if usage.MaxContextWindow > 0 {
		fmt.Fprintf(p.output, "[Context] %s\n", ContextBar(usage.CurrentContextWindow, usage.MaxContextWindow))
	}
}

// ContextBar renders a textual meter of context window utilisation,
// e.g. "12,034 / 200,000 tokens [███░░░...] (6.0%)".
func ContextBar(current, max int) string {
	if max <= 0 {
		return ""
	}
	if current < 0 {
		current = 0
	}

	percentage := float64(current) / float64(max) * 100
	if percentage > 100 {
		percentage = 100
	}

	const barLength = 30
	filled := barLength * current / max
	if filled > barLength {
		filled = barLength
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)

	return fmt.Sprintf("%s / %s tokens [%s] (%.1f%%)", formatCount(current), formatCount(max), bar, percentage)
}

func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

// ConvertUsageStats converts llm usage into displayable stats
func ConvertUsageStats(usage *llmtypes.Usage) *UsageStats {
	if usage == nil {
		return nil
	}
	return &UsageStats{
		InputTokens:          int64(usage.InputTokens),
		OutputTokens:         int64(usage.OutputTokens),
		CacheWriteTokens:     int64(usage.CacheCreationInputTokens),
		CacheReadTokens:      int64(usage.CacheReadInputTokens),
		TotalCost:            usage.TotalCost(),
		CurrentContextWindow: usage.CurrentContextWindow,
		MaxContextWindow:     usage.MaxContextWindow,
	}
}

// default is the package level presenter used by the convenience functions
var defaultPresenter = New()

// Error displays an error via the default presenter
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success displays a success message via the default presenter
func Success(message string) { defaultPresenter.Success(message) }

// Warning displays a warning via the default presenter
func Warning(message string) { defaultPresenter.Warning(message) }

// Info displays a message via the default presenter
func Info(message string) { defaultPresenter.Info(message) }

// Section displays a section header via the default presenter
func Section(title string) { defaultPresenter.Section(title) }

// Separator prints a horizontal rule via the default presenter
func Separator() { defaultPresenter.Separator() }

// Prompt asks a question via the default presenter
func Prompt(question string) string { return defaultPresenter.Prompt(question) }

// Stats displays usage statistics via the default presenter
func Stats(usage *UsageStats) { defaultPresenter.Stats(usage) }

// SetQuiet toggles quiet mode on the default presenter
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
