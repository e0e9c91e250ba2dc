package config

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/bastiangx/tokenserve/pkg/dictionary"
	"golang.org/x/text/unicode/norm"
)

// ConfigurationError reports an invalid startup parameter.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func invalid(field, value, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Mode is the segmentation strategy.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeDecompose
)

var modeNames = map[string]Mode{
	"normal":    ModeNormal,
	"search":    ModeSearch,
	"decompose": ModeDecompose,
}

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSearch:
		return "search"
	case ModeDecompose:
		return "decompose"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Format selects the response shape.
type Format int

const (
	FormatSimple Format = iota
	FormatDetailed
	FormatNative
)

var formatNames = map[string]Format{
	"simple":   FormatSimple,
	"detailed": FormatDetailed,
	"native":   FormatNative,
}

func (f Format) String() string {
	switch f {
	case FormatSimple:
		return "simple"
	case FormatDetailed:
		return "detailed"
	case FormatNative:
		return "native"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Policy is how the engine instance is shared between requests.
type Policy int

const (
	// PolicyShared lets any number of requests use the engine concurrently.
	PolicyShared Policy = iota
	// PolicyExclusive serializes engine use behind a mutex.
	PolicyExclusive
)

var policyNames = map[string]Policy{
	"shared":    PolicyShared,
	"exclusive": PolicyExclusive,
}

func (p Policy) String() string {
	switch p {
	case PolicyShared:
		return "shared"
	case PolicyExclusive:
		return "exclusive"
	}
	return "Policy(" + strconv.Itoa(int(p)) + ")"
}

// Normalization is the Unicode normalization applied to input text.
type Normalization int

const (
	NormalizeNone Normalization = iota
	NormalizeNFC
	NormalizeNFKC
)

var normalizationNames = map[string]Normalization{
	"none": NormalizeNone,
	"nfc":  NormalizeNFC,
	"nfkc": NormalizeNFKC,
}

func (n Normalization) String() string {
	switch n {
	case NormalizeNone:
		return "none"
	case NormalizeNFC:
		return "nfc"
	case NormalizeNFKC:
		return "nfkc"
	}
	return "Normalization(" + strconv.Itoa(int(n)) + ")"
}

// Apply normalizes s. NormalizeNone returns s unchanged.
func (n Normalization) Apply(s string) string {
	switch n {
	case NormalizeNFC:
		return norm.NFC.String(s)
	case NormalizeNFKC:
		return norm.NFKC.String(s)
	}
	return s
}

// Config is the validated, immutable startup configuration.
type Config struct {
	Host string
	Port int

	Dictionary         dictionary.Kind
	DictionaryPath     string
	UserDictionaryPath string
	UserDictionaryType dictionary.UserDictType

	Mode      Mode
	Format    Format
	Policy    Policy
	Normalize Normalization

	Path      string
	Demo      bool
	RateLimit float64
	RateBurst int
}

// Addr returns the bind address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Resolve validates params and returns the configuration they describe.
func Resolve(params Params) (Config, error) {
	var cfg Config

	rawKind := params.Dict.Type
	if strings.TrimSpace(rawKind) == "" {
		rawKind = string(dictionary.Default())
	}
	kind, err := dictionary.ParseKind(rawKind)
	if err != nil {
		return Config{}, invalid("dictionary type", params.Dict.Type, err.Error())
	}
	cfg.Dictionary = kind
	if kind == dictionary.Local {
		if strings.TrimSpace(params.Dict.Path) == "" {
			return Config{}, invalid("dictionary path", params.Dict.Path, "required when the dictionary type is local")
		}
		cfg.DictionaryPath = params.Dict.Path
	}

	cfg.UserDictionaryPath = params.Dict.UserDict
	if params.Dict.UserDictType != "" {
		typ, err := dictionary.ParseUserDictType(params.Dict.UserDictType)
		if err != nil {
			return Config{}, invalid("user dictionary type", params.Dict.UserDictType, "csv and bin are available")
		}
		if cfg.UserDictionaryPath != "" {
			cfg.UserDictionaryType = typ
		}
	}

	if cfg.Mode, err = parseEnum("mode", params.Tokenizer.Mode, ModeNormal, modeNames); err != nil {
		return Config{}, err
	}
	if cfg.Format, err = parseEnum("format", params.Tokenizer.Format, FormatSimple, formatNames); err != nil {
		return Config{}, err
	}
	if cfg.Policy, err = parseEnum("policy", params.Tokenizer.Policy, PolicyShared, policyNames); err != nil {
		return Config{}, err
	}
	if cfg.Normalize, err = parseEnum("normalize", params.Tokenizer.Normalize, NormalizeNone, normalizationNames); err != nil {
		return Config{}, err
	}

	if net.ParseIP(params.Server.Host) == nil {
		return Config{}, invalid("host", params.Server.Host, "not an IP address")
	}
	cfg.Host = params.Server.Host
	if params.Server.Port < 1 || params.Server.Port > 65535 {
		return Config{}, invalid("port", strconv.Itoa(params.Server.Port), "out of range 1-65535")
	}
	cfg.Port = params.Server.Port

	cfg.Path = params.Server.Path
	if cfg.Path == "" {
		cfg.Path = "/tokenize"
	}
	if !strings.HasPrefix(cfg.Path, "/") || strings.ContainsAny(cfg.Path, " {}") {
		return Config{}, invalid("path", params.Server.Path, "must be an absolute URL path")
	}
	if cfg.Path == "/" {
		return Config{}, invalid("path", params.Server.Path, "the root path is reserved")
	}
	cfg.Demo = params.Server.Demo

	if params.Server.RateLimit < 0 {
		return Config{}, invalid("rate limit", strconv.FormatFloat(params.Server.RateLimit, 'f', -1, 64), "must not be negative")
	}
	if params.Server.RateBurst < 0 {
		return Config{}, invalid("rate burst", strconv.Itoa(params.Server.RateBurst), "must not be negative")
	}
	cfg.RateLimit = params.Server.RateLimit
	cfg.RateBurst = params.Server.RateBurst
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = 1
	}

	return cfg, nil
}

// parseEnum maps a raw value through names. An empty value selects def.
func parseEnum[T ~int](field, raw string, def T, names map[string]T) (T, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return def, nil
	}
	if v, ok := names[key]; ok {
		return v, nil
	}
	available := make([]string, 0, len(names))
	for name := range names {
		available = append(available, name)
	}
	sort.Strings(available)
	return def, invalid(field, raw, fmt.Sprintf("%s are available", strings.Join(available, ", ")))
}
