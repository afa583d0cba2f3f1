package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// Result is what one request cycle produces. It is rendered as JSON.
type Result interface {
	Failed() bool
}

// Handler runs one request cycle
type Handler func(ctx context.Context, prompt string) Result

// DefaultPrompt is shown before every line read
const DefaultPrompt = "\nAsk something (or type 'exit'): "

// Session is the interactive request/response loop. Each line is handled
// to completion before the next one is read.
type Session struct {
	in      *bufio.Reader
	out     *Writer
	prompt  string
	handler Handler
}

// NewSession reads lines from in. Hooks that prompt on the terminal must
// share the same *bufio.Reader.
func NewSession(in io.Reader, out *Writer, handler Handler) *Session {
	return &Session{
		in:      bufio.NewReader(in),
		out:     out,
		prompt:  DefaultPrompt,
		handler: handler,
	}
}

// SetPrompt replaces the text shown before each line
func (s *Session) SetPrompt(prompt string) {
	s.prompt = prompt
}

// Run reads lines until "exit" (any case), end of input or ctx is done.
// Blank lines are skipped. Request failures are rendered, never returned.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.out.WriteColored(s.prompt, ColorBold)
		raw, readErr := s.in.ReadString('\n')
		if readErr != nil && raw == "" {
			s.out.WriteLine("")
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			return nil
		}

		result := s.handler(ctx, line)
		color := ColorGreen
		if result.Failed() {
			color = ColorRed
		}
		if err := s.out.WriteJSON(result, color); err != nil {
			s.out.WriteColored(err.Error()+"\n", ColorRed)
		}
	}
}
