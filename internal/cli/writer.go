package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ANSI Color codes
const (
	ColorReset = "\033[0m"
	ColorRed   = "\033[31m"
	ColorGreen = "\033[32m"
	ColorCyan  = "\033[36m"
	ColorBold  = "\033[1m"
)

// Writer renders session output
type Writer struct {
	writer    io.Writer
	colorMode bool
}

func NewWriter(w io.Writer) *Writer {
	if w == nil {
		w = os.Stdout
	}
	return &Writer{
		writer:    w,
		colorMode: true,
	}
}

func (w *Writer) SetColorMode(enabled bool) {
	w.colorMode = enabled
}

// Write writes content to the output
func (w *Writer) Write(content string) {
	fmt.Fprint(w.writer, content)
}

// WriteLine writes a line to the output
func (w *Writer) WriteLine(content string) {
	fmt.Fprintln(w.writer, content)
}

// WriteColored writes colored content if color mode is enabled
func (w *Writer) WriteColored(content, color string) {
	if w.colorMode {
		fmt.Fprintf(w.writer, "%s%s%s", color, content, ColorReset)
	} else {
		fmt.Fprint(w.writer, content)
	}
}

// WriteJSON writes v as indented JSON followed by a newline
func (w *Writer) WriteJSON(v any, color string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	w.WriteColored(string(data), color)
	w.WriteLine("")
	return nil
}
