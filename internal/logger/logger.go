package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the log level
type Level int

const (
	LevelDebug Level = iota // Debug information (only shown with --verbose)
	LevelInfo               // Important steps
	LevelTool               // Plan step related
	LevelAgent              // Router decisions and final answers
	LevelError              // Error messages
)

// ANSI color codes for terminal output
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
)

// Logger provides leveled terminal logging for plan runs
type Logger struct {
	mu        sync.Mutex
	writer    io.Writer
	level     Level
	showTime  bool
	colorMode bool
}

// NewLogger creates a new Logger instance
func NewLogger(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		writer:    w,
		level:     level,
		showTime:  true,
		colorMode: true,
	}
}

// Discard returns a logger that drops everything. Used as the default
// when a component is built without one.
func Discard() *Logger {
	l := NewLogger(io.Discard, LevelError+1)
	l.colorMode = false
	return l
}

// SetColorMode enables or disables colored output
func (l *Logger) SetColorMode(enabled bool) {
	l.colorMode = enabled
}

// SetShowTime enables or disables timestamp display
func (l *Logger) SetShowTime(enabled bool) {
	l.showTime = enabled
}

// Level returns the configured minimum level
func (l *Logger) Level() Level {
	return l.level
}

// Debug logs debug information (only shown in verbose mode)
func (l *Logger) Debug(format string, args ...any) {
	if l.level <= LevelDebug {
		l.log(ColorGray, "DEBUG", format, args...)
	}
}

// Info logs general information
func (l *Logger) Info(format string, args ...any) {
	if l.level <= LevelInfo {
		l.log(ColorBlue, "INFO", format, args...)
	}
}

// Warn logs recoverable problems
func (l *Logger) Warn(format string, args ...any) {
	if l.level <= LevelError {
		l.log(ColorYellow, "WARN", format, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...any) {
	if l.level <= LevelError {
		l.log(ColorRed, "ERROR", format, args...)
	}
}

// Route logs the router's choice of agent and task
func (l *Logger) Route(agent, task string) {
	if l.level <= LevelAgent {
		l.printSection(ColorMagenta, fmt.Sprintf("🧭 Routed to: %s", agent), task)
	}
}

// Step logs a plan step before it runs
func (l *Logger) Step(index int, toolName string, args any, reasoning string) {
	if l.level > LevelTool {
		return
	}
	params := l.formatJSON(args)
	if reasoning != "" {
		params += "\n" + reasoning
	}
	l.printSection(ColorCyan, fmt.Sprintf("🔧 Step %d: %s", index+1, toolName), params)
}

// StepResult logs the outcome of a plan step
func (l *Logger) StepResult(toolName string, success bool, output string, duration time.Duration) {
	if l.level > LevelTool {
		return
	}
	status := "✅ Success"
	color := ColorGreen
	if !success {
		status = "❌ Failed"
		color = ColorRed
	}

	// Results can be long retrieval lists
	const maxLines = 2
	const maxLength = 500

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	displayOutput := output
	truncatedLines := false

	if len(lines) > maxLines {
		displayOutput = strings.Join(lines[:maxLines], "\n")
		truncatedLines = true
	}

	if len(displayOutput) > maxLength {
		displayOutput = displayOutput[:maxLength] + "..."
	} else if truncatedLines {
		displayOutput += "\n..."
	}

	header := fmt.Sprintf("📊 Result: %s [%s] (%s)", toolName, status, duration)
	l.printSection(color, header, displayOutput)
}

// RunStart logs the beginning of a request cycle
func (l *Logger) RunStart(prompt string) {
	if l.level <= LevelInfo {
		l.printBanner(ColorCyan, "🚀 Run Started", prompt)
	}
}

// RunEnd logs the completion of a request cycle with statistics
func (l *Logger) RunEnd(duration time.Duration, steps int, failed bool) {
	if l.level > LevelInfo {
		return
	}
	summary := fmt.Sprintf("Duration: %s | Steps: %d", duration.Round(time.Millisecond), steps)
	if failed {
		l.printBanner(ColorRed, "💥 Run Failed", summary)
		return
	}
	l.printBanner(ColorGreen, "✨ Run Completed", summary)
}

// log is the core logging method
func (l *Logger) log(color, level, format string, args ...any) {
	timestamp := ""
	if l.showTime {
		timestamp = time.Now().Format("15:04:05") + " "
	}

	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.colorMode {
		fmt.Fprintf(l.writer, "%s%s[%s]%s %s\n",
			color, timestamp, level, ColorReset, msg)
	} else {
		fmt.Fprintf(l.writer, "%s[%s] %s\n", timestamp, level, msg)
	}
}

// printSection prints a formatted section with header and content
func (l *Logger) printSection(color, header, content string) {
	separator := strings.Repeat("─", 60)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.colorMode {
		fmt.Fprintf(l.writer, "\n%s%s%s%s\n", ColorBold, color, header, ColorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", color, separator, ColorReset)
		fmt.Fprintf(l.writer, "%s\n", content)
		fmt.Fprintf(l.writer, "%s%s%s\n\n", color, separator, ColorReset)
	} else {
		fmt.Fprintf(l.writer, "\n%s\n%s\n%s\n%s\n\n", header, separator, content, separator)
	}
}

// printBanner prints a prominent banner for run start/end
func (l *Logger) printBanner(color, title, subtitle string) {
	separator := strings.Repeat("═", 70)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.colorMode {
		fmt.Fprintf(l.writer, "\n%s%s%s%s\n", ColorBold, color, separator, ColorReset)
		fmt.Fprintf(l.writer, "%s%s  %s%s\n", ColorBold, color, title, ColorReset)
		if subtitle != "" {
			fmt.Fprintf(l.writer, "%s  %s%s\n", color, subtitle, ColorReset)
		}
		fmt.Fprintf(l.writer, "%s%s%s%s\n\n", ColorBold, color, separator, ColorReset)
	} else {
		fmt.Fprintf(l.writer, "\n%s\n  %s\n", separator, title)
		if subtitle != "" {
			fmt.Fprintf(l.writer, "  %s\n", subtitle)
		}
		fmt.Fprintf(l.writer, "%s\n\n", separator)
	}
}

// formatJSON renders a value as JSON, compact when short and indented otherwise
func (l *Logger) formatJSON(v any) string {
	compact, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	if len(compact) < 80 {
		return string(compact)
	}

	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(compact)
	}

	return string(pretty)
}
