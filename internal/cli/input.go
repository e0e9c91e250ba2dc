// Package cli runs the tokenizer over stdin lines, for debugging a
// configuration without starting the HTTP server.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/tokenserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
)

// InputHandler feeds each input line through the same pipeline the server
// uses and prints the response body.
type InputHandler struct {
	pipeline     *server.Pipeline
	in           *bufio.Scanner
	out          io.Writer
	prompt       bool
	requestCount int
}

// NewInputHandler reads lines from in and writes one response per line to
// out. With prompt set a prompt is printed before every line.
func NewInputHandler(p *server.Pipeline, in io.Reader, out io.Writer, prompt bool) *InputHandler {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), server.MaxBodyBytes)
	return &InputHandler{
		pipeline: p,
		in:       scanner,
		out:      out,
		prompt:   prompt,
	}
}

// Start runs until in is exhausted. Blank lines are skipped.
func (h *InputHandler) Start() error {
	if h.prompt {
		log.Print("TokenServe CLI")
		log.Print("type some text and press Enter to see the tokens (Ctrl+C to exit):")
	}

	for {
		if h.prompt {
			fmt.Fprint(h.out, promptStyle.Render("> "))
		}
		if !h.in.Scan() {
			return h.in.Err()
		}
		line := strings.TrimRight(h.in.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	ctx := server.WithRequestID(context.Background(), "cli-"+strconv.Itoa(h.requestCount))

	start := time.Now()
	out, err := h.pipeline.Process(ctx, []byte(line))
	log.Debugf("Took [ %v ] for line %d", time.Since(start), h.requestCount)

	if err != nil {
		if h.prompt {
			fmt.Fprintln(h.out, errorStyle.Render(err.Error()))
			return
		}
		data, _ := json.Marshal(server.ErrorResponse{Error: err.Error()})
		fmt.Fprintln(h.out, string(data))
		return
	}
	fmt.Fprintln(h.out, string(out))
}
