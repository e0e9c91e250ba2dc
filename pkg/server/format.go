package server

import (
	"encoding/json"
	"fmt"

	"github.com/bastiangx/tokenserve/pkg/config"
	"github.com/bastiangx/tokenserve/pkg/engine"
)

// Formatter renders the tokens of one request. It runs inside the same
// Handle.Run as the tokenize call, so it may use the engine freely.
type Formatter interface {
	Format(e engine.Engine, tokens []engine.Token) ([]byte, error)
}

// NewFormatter returns the formatter selected by f.
func NewFormatter(f config.Format) Formatter {
	switch f {
	case config.FormatDetailed:
		return Detailed{}
	case config.FormatNative:
		return Native{}
	}
	return Simple{}
}

// Simple lists the surface forms in input order.
type Simple struct{}

func (Simple) Format(_ engine.Engine, tokens []engine.Token) ([]byte, error) {
	list := TokenList{Tokens: make([]string, len(tokens))}
	for i, t := range tokens {
		list.Tokens[i] = t.Text
	}
	return marshal(list)
}

// Detailed pairs every token with its dictionary features. A single failed
// lookup fails the whole request; tokens are never dropped.
type Detailed struct{}

func (Detailed) Format(e engine.Engine, tokens []engine.Token) ([]byte, error) {
	out := make([]DetailedToken, len(tokens))
	for i, t := range tokens {
		detail, err := e.WordDetail(t.WordID)
		if err != nil {
			return nil, &RequestError{
				Kind: DetailLookupError,
				Err:  fmt.Errorf("token %d (%q): %w", i, t.Text, err),
			}
		}
		if detail == nil {
			detail = []string{}
		}
		out[i] = DetailedToken{Text: t.Text, Detail: detail}
	}
	return marshal(out)
}

// Native relays the engine's own document.
type Native struct{}

func (Native) Format(e engine.Engine, tokens []engine.Token) ([]byte, error) {
	data, err := e.NativeFormat(tokens)
	if err != nil {
		return nil, &RequestError{Kind: FormatError, Err: err}
	}
	if !json.Valid(data) {
		return nil, &RequestError{Kind: FormatError, Err: fmt.Errorf("%w: engine produced invalid json", engine.ErrFormat)}
	}
	return data, nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &RequestError{Kind: FormatError, Err: err}
	}
	return data, nil
}
