package config

import (
	"flag"
)

// Flags binds the startup parameters to a flag set. Only flags that were
// set on the command line override the lower layers.
type Flags struct {
	fs     *flag.FlagSet
	values Params
	// aliases maps every flag name to its canonical name
	aliases map[string]string
}

// RegisterFlags defines the parameter flags on fs. Short and long forms
// share one value.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, aliases: make(map[string]string)}
	def := DefaultParams()

	f.str(&f.values.Server.Host, def.Server.Host, "Host address", "host", "H")
	f.integer(&f.values.Server.Port, def.Server.Port, "HTTP port", "port", "p")
	f.str(&f.values.Server.Path, def.Server.Path, "Route of the tokenize endpoint", "path")
	fs.BoolVar(&f.values.Server.Demo, "demo", false, "Also serve a fixed example tokenization on GET /")
	f.aliases["demo"] = "demo"
	fs.Float64Var(&f.values.Server.RateLimit, "rate", 0, "Requests per second allowed across the process (0 disables)")
	f.aliases["rate"] = "rate"
	f.integer(&f.values.Server.RateBurst, 0, "Burst size for -rate", "burst")

	f.str(&f.values.Dict.Type, def.Dict.Type, "The dictionary type. Compiled-in kinds and local are available", "dict-type", "t")
	f.str(&f.values.Dict.Path, "", "The dictionary archive. Required when the dictionary type is local", "dict", "d")
	f.str(&f.values.Dict.UserDict, "", "The user dictionary file path", "user-dict", "D")
	f.str(&f.values.Dict.UserDictType, "", "The user dictionary type. csv and bin are available", "user-dict-type", "T")

	f.str(&f.values.Tokenizer.Mode, def.Tokenizer.Mode, "The tokenization mode. normal, search and decompose are available", "mode", "m")
	f.str(&f.values.Tokenizer.Format, def.Tokenizer.Format, "The response format. simple, detailed and native are available", "format", "f")
	f.str(&f.values.Tokenizer.Policy, def.Tokenizer.Policy, "How requests share the engine. shared and exclusive are available", "policy")
	f.str(&f.values.Tokenizer.Normalize, "none", "Unicode normalization of input text. none, nfc and nfkc are available", "normalize")

	return f
}

func (f *Flags) str(p *string, value, usage string, names ...string) {
	for _, name := range names {
		f.fs.StringVar(p, name, value, usage)
		f.aliases[name] = names[0]
	}
}

func (f *Flags) integer(p *int, value int, usage string, names ...string) {
	for _, name := range names {
		f.fs.IntVar(p, name, value, usage)
		f.aliases[name] = names[0]
	}
}

// Apply copies the flags set on the command line into p.
func (f *Flags) Apply(p *Params) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch f.aliases[fl.Name] {
		case "host":
			p.Server.Host = f.values.Server.Host
		case "port":
			p.Server.Port = f.values.Server.Port
		case "path":
			p.Server.Path = f.values.Server.Path
		case "demo":
			p.Server.Demo = f.values.Server.Demo
		case "rate":
			p.Server.RateLimit = f.values.Server.RateLimit
		case "burst":
			p.Server.RateBurst = f.values.Server.RateBurst
		case "dict-type":
			p.Dict.Type = f.values.Dict.Type
		case "dict":
			p.Dict.Path = f.values.Dict.Path
		case "user-dict":
			p.Dict.UserDict = f.values.Dict.UserDict
		case "user-dict-type":
			p.Dict.UserDictType = f.values.Dict.UserDictType
		case "mode":
			p.Tokenizer.Mode = f.values.Tokenizer.Mode
		case "format":
			p.Tokenizer.Format = f.values.Tokenizer.Format
		case "policy":
			p.Tokenizer.Policy = f.values.Tokenizer.Policy
		case "normalize":
			p.Tokenizer.Normalize = f.values.Tokenizer.Normalize
		}
	})
}
