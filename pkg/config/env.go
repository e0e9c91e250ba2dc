package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TOKENSERVE_"

type envBinding struct {
	name  string
	apply func(p *Params, value string) error
}

func stringEnv(field func(p *Params) *string) func(*Params, string) error {
	return func(p *Params, value string) error {
		*field(p) = value
		return nil
	}
}

var envBindings = []envBinding{
	{"HOST", stringEnv(func(p *Params) *string { return &p.Server.Host })},
	{"PORT", func(p *Params, value string) error {
		port, err := strconv.Atoi(value)
		if err != nil {
			return invalid("port", value, "not a number")
		}
		p.Server.Port = port
		return nil
	}},
	{"PATH", stringEnv(func(p *Params) *string { return &p.Server.Path })},
	{"DEMO", func(p *Params, value string) error {
		demo, err := strconv.ParseBool(value)
		if err != nil {
			return invalid("demo", value, "not a boolean")
		}
		p.Server.Demo = demo
		return nil
	}},
	{"RATE_LIMIT", func(p *Params, value string) error {
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid("rate limit", value, "not a number")
		}
		p.Server.RateLimit = limit
		return nil
	}},
	{"RATE_BURST", func(p *Params, value string) error {
		burst, err := strconv.Atoi(value)
		if err != nil {
			return invalid("rate burst", value, "not a number")
		}
		p.Server.RateBurst = burst
		return nil
	}},
	{"DICT_TYPE", stringEnv(func(p *Params) *string { return &p.Dict.Type })},
	{"DICT", stringEnv(func(p *Params) *string { return &p.Dict.Path })},
	{"USER_DICT", stringEnv(func(p *Params) *string { return &p.Dict.UserDict })},
	{"USER_DICT_TYPE", stringEnv(func(p *Params) *string { return &p.Dict.UserDictType })},
	{"MODE", stringEnv(func(p *Params) *string { return &p.Tokenizer.Mode })},
	{"FORMAT", stringEnv(func(p *Params) *string { return &p.Tokenizer.Format })},
	{"POLICY", stringEnv(func(p *Params) *string { return &p.Tokenizer.Policy })},
	{"NORMALIZE", stringEnv(func(p *Params) *string { return &p.Tokenizer.Normalize })},
}

// ApplyEnv overrides params with TOKENSERVE_* variables found by lookup,
// usually os.LookupEnv.
func ApplyEnv(p *Params, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		value, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		if err := b.apply(p, value); err != nil {
			return err
		}
	}
	return nil
}

// EnvLookup returns a lookup over the process environment. When dotenv is
// set, variables from that file fill in whatever the process environment
// does not define.
func EnvLookup(dotenv string) (func(string) (string, bool), error) {
	if dotenv == "" {
		return os.LookupEnv, nil
	}
	file, err := godotenv.Read(dotenv)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", dotenv, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}
