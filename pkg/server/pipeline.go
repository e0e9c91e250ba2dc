package server

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/tokenserve/pkg/config"
	"github.com/bastiangx/tokenserve/pkg/engine"
	"github.com/charmbracelet/log"
)

// MaxBodyBytes is the smallest body size that is rejected.
const MaxBodyBytes = 1024 * 5000

// Pipeline turns one accepted request body into a response body.
type Pipeline struct {
	handle    engine.Handle
	formatter Formatter
	normalize config.Normalization
	logger    *log.Logger
}

// NewPipeline creates a pipeline over h. The formatter is fixed for the
// lifetime of the pipeline.
func NewPipeline(h engine.Handle, f Formatter, n config.Normalization, logger *log.Logger) *Pipeline {
	return &Pipeline{
		handle:    h,
		formatter: f,
		normalize: n,
		logger:    logger,
	}
}

// Process decodes body, tokenizes it and formats the result. Every error it
// returns is a *RequestError.
func (p *Pipeline) Process(ctx context.Context, body []byte) ([]byte, error) {
	id := RequestIDFromContext(ctx)

	if err := validUTF8(body); err != nil {
		p.logger.Error("Rejected body", "id", id, "err", err)
		return nil, err
	}
	text := p.normalize.Apply(string(body))
	p.logger.Debug("Tokenize", "id", id, "text", text)

	start := time.Now()
	var out []byte
	err := p.handle.Run(func(e engine.Engine) error {
		tokens, err := e.Tokenize(text)
		if err != nil {
			return &RequestError{Kind: TokenizeError, Err: err}
		}
		out, err = p.formatter.Format(e, tokens)
		return err
	})
	if err != nil {
		rerr := classify(err)
		p.logger.Error("Request failed", "id", id, "stage", rerr.Kind, "err", rerr.Err)
		return nil, rerr
	}

	p.logger.Debug("Done", "id", id, "bytes", len(out), "took", time.Since(start))
	return out, nil
}

// validUTF8 reports the first offending byte offset of a malformed body.
func validUTF8(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(b[i:]) {
				return &RequestError{
					Kind: Utf8DecodeError,
					Err:  fmt.Errorf("incomplete utf-8 byte sequence from index %d", i),
				}
			}
			return &RequestError{
				Kind: Utf8DecodeError,
				Err:  fmt.Errorf("invalid utf-8 sequence of 1 bytes from index %d", i),
			}
		}
		i += size
	}
	return nil
}
