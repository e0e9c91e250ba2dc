package engine

import (
	"sync"

	"github.com/bastiangx/tokenserve/pkg/config"
)

// Handle owns the one engine instance of the process and applies a sharing
// policy to every use of it.
type Handle interface {
	// Run calls fn with the engine. Everything fn does with the engine,
	// a tokenize and the detail lookups that depend on it, happens under
	// one acquisition of the policy.
	Run(fn func(Engine) error) error
	Policy() config.Policy
}

// NewHandle wraps e. With config.PolicyShared calls run concurrently and
// without coordination; the engine must be read-only. With
// config.PolicyExclusive a mutex serializes calls, there is no timeout on
// acquiring it and waiters are not served in FIFO order.
func NewHandle(e Engine, policy config.Policy) Handle {
	if policy == config.PolicyExclusive {
		return &exclusiveHandle{engine: e}
	}
	return &sharedHandle{engine: e}
}

type sharedHandle struct {
	engine Engine
}

func (h *sharedHandle) Run(fn func(Engine) error) error {
	return fn(h.engine)
}

func (h *sharedHandle) Policy() config.Policy { return config.PolicyShared }

type exclusiveHandle struct {
	mu     sync.Mutex
	engine Engine
}

func (h *exclusiveHandle) Run(fn func(Engine) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.engine)
}

func (h *exclusiveHandle) Policy() config.Policy { return config.PolicyExclusive }

// Tokenize runs a single tokenize call through h.
func Tokenize(h Handle, text string) ([]Token, error) {
	var tokens []Token
	err := h.Run(func(e Engine) error {
		var err error
		tokens, err = e.Tokenize(text)
		return err
	})
	return tokens, err
}
