package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/tokenserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(*DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, dictionary.Default(), cfg.Dictionary)
	assert.Empty(t, cfg.DictionaryPath)
	assert.Empty(t, cfg.UserDictionaryPath)
	assert.Equal(t, dictionary.UserDictCSV, cfg.UserDictionaryType)
	assert.Equal(t, ModeNormal, cfg.Mode)
	assert.Equal(t, FormatSimple, cfg.Format)
	assert.Equal(t, PolicyShared, cfg.Policy)
	assert.Equal(t, NormalizeNone, cfg.Normalize)
	assert.Equal(t, "/tokenize", cfg.Path)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestResolveEveryValidCombination(t *testing.T) {
	kinds := append(dictionary.Supported(), dictionary.Local)
	userTypes := []string{"", "csv", "bin", "binary"}
	modes := []string{"", "normal", "search", "decompose"}

	for _, kind := range kinds {
		for _, userType := range userTypes {
			for _, mode := range modes {
				params := DefaultParams()
				params.Dict.Type = string(kind)
				if kind == dictionary.Local {
					params.Dict.Path = "/srv/dict/ipa.dict"
				}
				params.Dict.UserDict = "user.dic"
				params.Dict.UserDictType = userType
				params.Tokenizer.Mode = mode

				cfg, err := Resolve(*params)
				require.NoError(t, err, "kind=%s userType=%q mode=%q", kind, userType, mode)
				assert.Equal(t, kind, cfg.Dictionary)
			}
		}
	}
}

func TestResolveRejectsUnknownDictionaryKind(t *testing.T) {
	for _, raw := range []string{"ko-dic", "cc-cedict", "IPADIC", "ipa"} {
		params := DefaultParams()
		params.Dict.Type = raw

		_, err := Resolve(*params)
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr), "raw=%q err=%v", raw, err)
		assert.Equal(t, "dictionary type", cfgErr.Field)
		assert.Equal(t, raw, cfgErr.Value)
	}
}

func TestResolveLocalRequiresPath(t *testing.T) {
	params := DefaultParams()
	params.Dict.Type = "local"

	_, err := Resolve(*params)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "dictionary path", cfgErr.Field)

	params.Dict.Path = "   "
	_, err = Resolve(*params)
	assert.Error(t, err)

	params.Dict.Path = "ipa.dict"
	cfg, err := Resolve(*params)
	require.NoError(t, err)
	assert.Equal(t, "ipa.dict", cfg.DictionaryPath)
}

func TestResolveIgnoresPathForCompiledKinds(t *testing.T) {
	params := DefaultParams()
	params.Dict.Type = "ipadic"
	params.Dict.Path = "/somewhere/else"

	cfg, err := Resolve(*params)
	require.NoError(t, err)
	assert.Empty(t, cfg.DictionaryPath)
}

func TestResolveUserDictionaryType(t *testing.T) {
	params := DefaultParams()
	params.Dict.UserDictType = "bin"

	// no user dictionary: the type falls back to csv
	cfg, err := Resolve(*params)
	require.NoError(t, err)
	assert.Equal(t, dictionary.UserDictCSV, cfg.UserDictionaryType)

	params.Dict.UserDict = "user.bin"
	cfg, err = Resolve(*params)
	require.NoError(t, err)
	assert.Equal(t, dictionary.UserDictBinary, cfg.UserDictionaryType)

	// an invalid type is rejected even without a user dictionary
	params.Dict.UserDict = ""
	params.Dict.UserDictType = "json"
	_, err = Resolve(*params)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "user dictionary type", cfgErr.Field)
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(p *Params)
		field  string
	}{
		{"mode", func(p *Params) { p.Tokenizer.Mode = "extended" }, "mode"},
		{"mode case", func(p *Params) { p.Tokenizer.Mode = "Normal" }, "mode"},
		{"format", func(p *Params) { p.Tokenizer.Format = "xml" }, "format"},
		{"policy", func(p *Params) { p.Tokenizer.Policy = "pooled" }, "policy"},
		{"normalize", func(p *Params) { p.Tokenizer.Normalize = "nfd" }, "normalize"},
		{"host", func(p *Params) { p.Server.Host = "localhost:80" }, "host"},
		{"host name", func(p *Params) { p.Server.Host = "example.com" }, "host"},
		{"port high", func(p *Params) { p.Server.Port = 70000 }, "port"},
		{"port negative", func(p *Params) { p.Server.Port = -1 }, "port"},
		{"port zero", func(p *Params) { p.Server.Port = 0 }, "port"},
		{"path relative", func(p *Params) { p.Server.Path = "tokenize" }, "path"},
		{"path root", func(p *Params) { p.Server.Path = "/" }, "path"},
		{"rate", func(p *Params) { p.Server.RateLimit = -1 }, "rate limit"},
		{"burst", func(p *Params) { p.Server.RateBurst = -5 }, "rate burst"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.mutate(params)
			_, err := Resolve(*params)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestResolveModeErrorListsModes(t *testing.T) {
	params := DefaultParams()
	params.Tokenizer.Mode = "fast"
	_, err := Resolve(*params)
	require.Error(t, err)
	assert.Equal(t, `invalid mode "fast": decompose, normal, search are available`, err.Error())
}

func TestResolveRateBurstDefault(t *testing.T) {
	params := DefaultParams()
	params.Server.RateLimit = 2.5
	cfg, err := Resolve(*params)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.RateBurst)
}

func TestResolveIPv6Host(t *testing.T) {
	params := DefaultParams()
	params.Server.Host = "::1"
	params.Server.Port = 9000
	cfg, err := Resolve(*params)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:9000", cfg.Addr())
}

func TestNormalizationApply(t *testing.T) {
	assert.Equal(t, "ｶﾞ", NormalizeNone.Apply("ｶﾞ"))
	assert.Equal(t, "ガ", NormalizeNFKC.Apply("ｶﾞ"))
	assert.Equal(t, "が", NormalizeNFC.Apply("が"))
}

func TestLoadParamsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenserve.toml")
	data := `
[server]
port = 9090

[dict]
type = "unidic"

[tokenizer]
mode = "search"
format = "detailed"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	params, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, params.Server.Port)
	assert.Equal(t, "0.0.0.0", params.Server.Host, "defaults survive")
	assert.Equal(t, "unidic", params.Dict.Type)
	assert.Equal(t, "search", params.Tokenizer.Mode)
	assert.Equal(t, "detailed", params.Tokenizer.Format)
}

func TestLoadParamsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenserve.yaml")
	data := `
server:
  host: 127.0.0.1
  demo: true
tokenizer:
  policy: exclusive
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	params, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", params.Server.Host)
	assert.True(t, params.Server.Demo)
	assert.Equal(t, "exclusive", params.Tokenizer.Policy)
	assert.Equal(t, 8080, params.Server.Port)
}

func TestLoadParamsRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[server]\nhots = \"1.2.3.4\"\n"), 0o644))
	_, err := LoadParams(tomlPath)
	assert.Error(t, err)

	yamlPath := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  hots: 1.2.3.4\n"), 0o644))
	_, err = LoadParams(yamlPath)
	assert.Error(t, err)

	_, err = LoadParams(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestSaveParamsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokenserve.toml")
	params := DefaultParams()
	params.Tokenizer.Format = "native"
	params.Server.RateLimit = 10

	require.NoError(t, SaveParams(params, path))
	loaded, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, params, loaded)
}

func TestSaveResolved(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "valid.toml")
	params := DefaultParams()
	params.Server.Port = 9090
	require.NoError(t, SaveResolved(params, path))
	loaded, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, params, loaded)

	path = filepath.Join(dir, "invalid.toml")
	params.Server.Port = 0
	err = SaveResolved(params, path)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "port", cerr.Field)
	assert.NoFileExists(t, path)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TOKENSERVE_PORT":       "9999",
		"TOKENSERVE_MODE":       "decompose",
		"TOKENSERVE_DEMO":       "true",
		"TOKENSERVE_RATE_LIMIT": "1.5",
		"TOKENSERVE_USER_DICT":  "user.csv",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	params := DefaultParams()
	require.NoError(t, ApplyEnv(params, lookup))
	assert.Equal(t, 9999, params.Server.Port)
	assert.Equal(t, "decompose", params.Tokenizer.Mode)
	assert.True(t, params.Server.Demo)
	assert.Equal(t, 1.5, params.Server.RateLimit)
	assert.Equal(t, "user.csv", params.Dict.UserDict)

	env["TOKENSERVE_PORT"] = "eighty"
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, ApplyEnv(DefaultParams(), lookup), &cfgErr)
}

func TestGatherPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenserve.toml")
	data := "[server]\nport = 9000\nhost = \"127.0.0.1\"\n[tokenizer]\nmode = \"search\"\nformat = \"native\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	env := map[string]string{
		"TOKENSERVE_PORT": "9100",
		"TOKENSERVE_MODE": "decompose",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-p", "9200", "-f", "detailed"}))

	params, err := Gather(path, lookup, flags)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", params.Server.Host, "file beats defaults")
	assert.Equal(t, "decompose", params.Tokenizer.Mode, "env beats file")
	assert.Equal(t, 9200, params.Server.Port, "flags beat env")
	assert.Equal(t, "detailed", params.Tokenizer.Format, "flags beat file")
}

func TestFlagsOnlyApplyWhenSet(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-dict-type", "local", "-d", "ipa.dict", "-T", "bin", "-policy", "exclusive"}))

	params := DefaultParams()
	params.Server.Port = 1234
	flags.Apply(params)

	assert.Equal(t, 1234, params.Server.Port)
	assert.Equal(t, "local", params.Dict.Type)
	assert.Equal(t, "ipa.dict", params.Dict.Path)
	assert.Equal(t, "bin", params.Dict.UserDictType)
	assert.Equal(t, "exclusive", params.Tokenizer.Policy)

	cfg, err := Resolve(*params)
	require.NoError(t, err)
	assert.Equal(t, PolicyExclusive, cfg.Policy)
	assert.Equal(t, dictionary.Local, cfg.Dictionary)
}

func TestEnvLookupDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenserve.env")
	data := "# local overrides\nTOKENSERVE_PORT=9300\nTOKENSERVE_MODE=search\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("TOKENSERVE_MODE", "decompose")

	lookup, err := EnvLookup(path)
	require.NoError(t, err)

	params := DefaultParams()
	require.NoError(t, ApplyEnv(params, lookup))
	assert.Equal(t, 9300, params.Server.Port)
	assert.Equal(t, "decompose", params.Tokenizer.Mode)
}

func TestEnvLookupMissingFile(t *testing.T) {
	_, err := EnvLookup(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
