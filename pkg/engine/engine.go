/*
Package engine wraps the morphological analyzer behind a small contract.

An Engine segments text into Tokens, looks up the dictionary features of a
token by its WordID and renders tokens in its own JSON layout. The only
implementation here is backed by kagome; the rest of the service depends on
the Engine interface alone.

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	h := engine.NewHandle(eng, cfg.Policy)
	tokens, err := engine.Tokenize(h, "すもももももももものうち")

A Handle decides how concurrent requests share the engine, see NewHandle.
*/
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenize marks a failure to segment text.
	ErrTokenize = errors.New("tokenize failed")
	// ErrDetailLookup marks a word id the dictionary does not know.
	ErrDetailLookup = errors.New("word detail lookup failed")
	// ErrFormat marks a failure of the native formatter.
	ErrFormat = errors.New("format failed")
)

// ConstructionError is returned when an engine cannot be built.
type ConstructionError struct {
	Stage string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("engine construction failed at %s: %v", e.Stage, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Class tells which dictionary a word id points into.
type Class int

const (
	ClassDummy Class = iota
	ClassKnown
	ClassUnknown
	ClassUser
)

func (c Class) String() string {
	switch c {
	case ClassDummy:
		return "DUMMY"
	case ClassKnown:
		return "KNOWN"
	case ClassUnknown:
		return "UNKNOWN"
	case ClassUser:
		return "USER"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// WordID identifies an entry of the loaded dictionaries.
type WordID struct {
	Class Class
	ID    int
}

func (w WordID) String() string {
	return fmt.Sprintf("%s:%d", w.Class, w.ID)
}

// Token is one segment of the input. Start and End are rune offsets.
type Token struct {
	Text   string
	WordID WordID
	Start  int
	End    int

	// native is the engine's own token, kept for NativeFormat
	native any
}

// Engine is the analyzer contract the service relies on.
type Engine interface {
	// Tokenize segments text. Identical input yields identical tokens.
	Tokenize(text string) ([]Token, error)
	// WordDetail returns the dictionary features of a word.
	WordDetail(id WordID) ([]string, error)
	// NativeFormat renders tokens as a JSON document.
	NativeFormat(tokens []Token) ([]byte, error)
}
