/*
Package dictionary loads the lexical data the tokenization engine runs on.

Two families of dictionaries exist. System dictionaries are either compiled
into the binary (each kind lives behind its own build tag and registers
itself from an init function) or loaded from a kagome dictionary archive on
disk with the "local" kind. User dictionaries are optional overlays read
from a kagome CSV file or from the msgpack binary produced by cmd/userdict.

# Kinds

The set of compiled-in kinds is closed at build time:

	go build ./cmd/tokenserve                    # ipadic + unidic
	go build -tags nounidic ./cmd/tokenserve     # ipadic only

Supported returns the kinds of the current build, Local is always available.

# User dictionaries

The CSV layout is the kagome one, one record per line:

	東京スカイツリー,東京 スカイツリー,トウキョウ スカイツリー,カスタム名詞

The binary layout is a small header followed by msgpack records, see
WriteBinary.
*/
package dictionary

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/dict"
)

// Kind names a system dictionary.
type Kind string

// Local loads a system dictionary archive from a path instead of the binary.
const Local Kind = "local"

// SystemLoader returns a compiled-in system dictionary.
type SystemLoader func() *dict.Dict

// kindInfo is a registry entry for a compiled-in dictionary.
type kindInfo struct {
	kind        Kind
	description string
	priority    int
	load        SystemLoader
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]kindInfo)
)

// Register adds a compiled-in dictionary kind. It is meant to be called from
// init functions guarded by build tags; registering the same kind twice or
// registering Local panics.
func Register(kind Kind, description string, priority int, load SystemLoader) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if kind == Local {
		panic("dictionary: cannot register reserved kind \"local\"")
	}
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("dictionary: kind %q registered twice", kind))
	}
	registry[kind] = kindInfo{
		kind:        kind,
		description: description,
		priority:    priority,
		load:        load,
	}
}

// Supported returns the compiled-in kinds in a stable order.
func Supported() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Default returns the build default kind: the compiled-in kind with the
// lowest priority value, or Local when nothing is compiled in.
func Default() Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	best := Local
	bestPriority := 0
	for k, info := range registry {
		if best == Local || info.priority < bestPriority || (info.priority == bestPriority && k < best) {
			best = k
			bestPriority = info.priority
		}
	}
	return best
}

// ParseKind validates a raw dictionary kind against the current build.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.TrimSpace(raw))
	if kind == Local {
		return Local, nil
	}
	registryMu.RLock()
	_, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%v are available", append(Supported(), Local))
	}
	return kind, nil
}

// Describe returns the human readable description of a kind.
func Describe(kind Kind) string {
	if kind == Local {
		return "dictionary archive loaded from disk"
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[kind].description
}

func lookup(kind Kind) (SystemLoader, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[kind]
	return info.load, ok
}
