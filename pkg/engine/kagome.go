package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bastiangx/tokenserve/pkg/config"
	"github.com/bastiangx/tokenserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Kagome is an Engine backed by the kagome tokenizer. It is read-only after
// New returns and safe for concurrent use.
type Kagome struct {
	tok  *tokenizer.Tokenizer
	sys  *dict.Dict
	user *dict.UserDict
	mode tokenizer.TokenizeMode
}

// New loads the dictionaries named by cfg and builds the tokenizer.
func New(cfg config.Config) (*Kagome, error) {
	start := time.Now()

	sys, err := dictionary.LoadSystem(cfg.Dictionary, cfg.DictionaryPath)
	if err != nil {
		return nil, &ConstructionError{Stage: "system dictionary", Err: err}
	}

	opts := []tokenizer.Option{tokenizer.OmitBosEos()}
	var user *dict.UserDict
	if cfg.UserDictionaryPath != "" {
		user, err = dictionary.LoadUser(cfg.UserDictionaryPath, cfg.UserDictionaryType)
		if err != nil {
			return nil, &ConstructionError{Stage: "user dictionary", Err: err}
		}
		if user != nil {
			opts = append(opts, tokenizer.UserDict(user))
		} else {
			log.Warnf("User dictionary %s has no entries", cfg.UserDictionaryPath)
		}
	}

	tok, err := tokenizer.New(sys, opts...)
	if err != nil {
		return nil, &ConstructionError{Stage: "tokenizer", Err: err}
	}

	log.Debug("Engine ready",
		"dictionary", cfg.Dictionary,
		"userDictionary", cfg.UserDictionaryPath != "",
		"mode", cfg.Mode,
		"took", time.Since(start))

	return &Kagome{
		tok:  tok,
		sys:  sys,
		user: user,
		mode: kagomeMode(cfg.Mode),
	}, nil
}

// kagomeMode maps the configured mode to a kagome mode. search and
// decompose both select kagome's search mode.
func kagomeMode(m config.Mode) tokenizer.TokenizeMode {
	switch m {
	case config.ModeSearch, config.ModeDecompose:
		return tokenizer.Search
	}
	return tokenizer.Normal
}

func classOf(c tokenizer.TokenClass) Class {
	switch c {
	case tokenizer.KNOWN:
		return ClassKnown
	case tokenizer.UNKNOWN:
		return ClassUnknown
	case tokenizer.USER:
		return ClassUser
	}
	return ClassDummy
}

// Tokenize segments text with the configured mode. A panic inside the
// analyzer is returned as an ErrTokenize error.
func (k *Kagome) Tokenize(text string) (tokens []Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("%w: %v", ErrTokenize, r)
		}
	}()

	analyzed := k.tok.Analyze(text, k.mode)
	tokens = make([]Token, 0, len(analyzed))
	for _, t := range analyzed {
		if t.Class == tokenizer.DUMMY {
			continue
		}
		tokens = append(tokens, Token{
			Text:   t.Surface,
			WordID: WordID{Class: classOf(t.Class), ID: t.ID},
			Start:  t.Start,
			End:    t.End,
			native: t,
		})
	}
	return tokens, nil
}

// WordDetail returns the features stored for id: part of speech names
// followed by the dictionary contents for known words, the unknown word
// features, or pos, segmentation and readings for user entries.
func (k *Kagome) WordDetail(id WordID) ([]string, error) {
	if id.ID < 0 {
		return nil, fmt.Errorf("%w: negative id %s", ErrDetailLookup, id)
	}

	switch id.Class {
	case ClassKnown:
		if id.ID >= len(k.sys.POSTable.POSs) {
			return nil, fmt.Errorf("%w: unknown id %s", ErrDetailLookup, id)
		}
		pos := k.sys.POSTable.POSs[id.ID]
		var contents []string
		if id.ID < len(k.sys.Contents) {
			contents = k.sys.Contents[id.ID]
		}
		detail := make([]string, 0, len(pos)+len(contents))
		for _, p := range pos {
			if int(p) >= len(k.sys.POSTable.NameList) {
				return nil, fmt.Errorf("%w: broken part of speech table for %s", ErrDetailLookup, id)
			}
			detail = append(detail, k.sys.POSTable.NameList[p])
		}
		return append(detail, contents...), nil

	case ClassUnknown:
		if id.ID >= len(k.sys.UnkDict.Contents) {
			return nil, fmt.Errorf("%w: unknown id %s", ErrDetailLookup, id)
		}
		return append([]string(nil), k.sys.UnkDict.Contents[id.ID]...), nil

	case ClassUser:
		if k.user == nil || id.ID >= len(k.user.Contents) {
			return nil, fmt.Errorf("%w: unknown id %s", ErrDetailLookup, id)
		}
		c := k.user.Contents[id.ID]
		return []string{c.Pos, strings.Join(c.Tokens, "/"), strings.Join(c.Yomi, "/")}, nil
	}

	return nil, fmt.Errorf("%w: no detail for %s", ErrDetailLookup, id)
}

// nativeToken is the kagome style JSON rendering of a token.
type nativeToken struct {
	ID            int      `json:"id"`
	Start         int      `json:"start"`
	End           int      `json:"end"`
	Surface       string   `json:"surface"`
	Class         string   `json:"class"`
	POS           []string `json:"pos"`
	BaseForm      string   `json:"base_form"`
	Reading       string   `json:"reading"`
	Pronunciation string   `json:"pronunciation"`
	Features      []string `json:"features"`
}

// NativeFormat renders tokens produced by this engine. Tokens from any
// other source are rejected with ErrFormat.
func (k *Kagome) NativeFormat(tokens []Token) ([]byte, error) {
	out := make([]nativeToken, 0, len(tokens))
	for i, tok := range tokens {
		t, ok := tok.native.(tokenizer.Token)
		if !ok {
			return nil, fmt.Errorf("%w: token %d (%q) was not produced by this engine", ErrFormat, i, tok.Text)
		}
		baseForm, _ := t.BaseForm()
		reading, _ := t.Reading()
		pronunciation, _ := t.Pronunciation()
		out = append(out, nativeToken{
			ID:            t.ID,
			Start:         t.Start,
			End:           t.End,
			Surface:       t.Surface,
			Class:         t.Class.String(),
			POS:           t.POS(),
			BaseForm:      baseForm,
			Reading:       reading,
			Pronunciation: pronunciation,
			Features:      t.Features(),
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return data, nil
}
