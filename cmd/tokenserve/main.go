// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the TokenServe HTTP tokenization server and its CLI
[DBG] mode.

TokenServe segments Japanese text into morphemes with a dictionary based
analyzer and returns the result as JSON. One process serves one
configuration: one dictionary, one segmentation mode and one response
format.

# Usage

Start the server with the compiled-in default dictionary:

	tokenserve

Listen on another port and answer with dictionary features:

	tokenserve -p 3333 -f detailed

Use a local dictionary archive and a user dictionary:

	tokenserve -t local -d ./mydict.dict -D ./user.csv

Tokenize stdin lines instead of serving HTTP:

	echo すもももももももものうち | tokenserve -c

# Requests

	curl -X POST --data-binary 'すもももももももものうち' localhost:8080/tokenize
	{"tokens":["すもも","も","もも","も","もも","の","うち"]}

Failures after the body was accepted answer 200 OK with {"error": "..."}.

# Configuration

Parameters are read from, in increasing precedence, built-in defaults, the
file given by -config (TOML, or YAML for .yaml/.yml), TOKENSERVE_* environment
variables and command line flags:

	[server]
	host = "127.0.0.1"
	port = 8080

	[tokenizer]
	mode = "search"
	format = "simple"
	policy = "shared"

-write-config writes the effective parameters to a TOML file and exits.

Any invalid parameter, unreadable dictionary or invalid user dictionary stops
the process with a diagnostic before a socket is bound.

# Command Line Flags

	-H, -host string         Host address (default "0.0.0.0")
	-p, -port int            HTTP port (default 8080)
	-path string             Route of the tokenize endpoint (default "/tokenize")
	-t, -dict-type string    Dictionary type (default "ipadic")
	-d, -dict string         Dictionary archive for -t local
	-D, -user-dict string    User dictionary file
	-T, -user-dict-type      csv or bin (default csv)
	-m, -mode string         normal, search or decompose (default "normal")
	-f, -format string       simple, detailed or native (default "simple")
	-policy string           shared or exclusive (default "shared")
	-normalize string        none, nfc or nfkc (default "none")
	-demo                    Also serve GET / with a fixed example
	-rate float, -burst int  Process wide rate limit
	-config string           Config file
	-env-file string         File of TOKENSERVE_* variables
	-debug                   Toggle debug logging
	-log-format string       text, json or logfmt
	-c                       Run the CLI mode
	-version                 Show current version
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bastiangx/tokenserve/internal/cli"
	"github.com/bastiangx/tokenserve/internal/logger"
	"github.com/bastiangx/tokenserve/pkg/config"
	"github.com/bastiangx/tokenserve/pkg/dictionary"
	"github.com/bastiangx/tokenserve/pkg/engine"
	"github.com/bastiangx/tokenserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0"
	AppName = "tokenserve"
	gh      = "https://github.com/bastiangx/tokenserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow; parsing, validation and serving live in the
// config, engine and server packages.
func main() {
	sigHandler()

	params := config.RegisterFlags(flag.CommandLine)
	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "TOML or YAML config file")
	envFile := flag.String("env-file", "", "File of TOKENSERVE_* variables; the process environment wins")
	writeConfig := flag.String("write-config", "", "Write the effective parameters to this TOML file and exit")
	debugMode := flag.Bool("debug", false, "Toggle debug mode")
	logFormat := flag.String("log-format", "text", "Log format. text, json and logfmt are available")
	cliMode := flag.Bool("c", false, "Tokenize stdin lines instead of serving HTTP -- useful for testing and debugging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	formatter, err := logger.ParseFormatter(*logFormat)
	if err != nil {
		log.Fatalf("Invalid flag: %v", err)
	}

	lookup, err := config.EnvLookup(*envFile)
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	raw, err := config.Gather(*configPath, lookup, params)
	if err != nil {
		log.Fatalf("Failed to read parameters: %v", err)
	}

	if *writeConfig != "" {
		if err := config.SaveResolved(raw, *writeConfig); err != nil {
			fatalConfig(err)
		}
		log.Infof("Config written to %s", *writeConfig)
		return
	}

	cfg, err := config.Resolve(*raw)
	if err != nil {
		fatalConfig(err)
	}

	log.Debug("Resolved configuration",
		"dictionary", cfg.Dictionary,
		"userDictionary", cfg.UserDictionaryPath,
		"mode", cfg.Mode,
		"format", cfg.Format,
		"policy", cfg.Policy,
		"normalize", cfg.Normalize)

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	handle := engine.NewHandle(eng, cfg.Policy)

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		pipeline := server.NewPipeline(handle, server.NewFormatter(cfg.Format), cfg.Normalize, logger.New("cli"))
		inputHandler := cli.NewInputHandler(pipeline, os.Stdin, os.Stdout, isTerminal(os.Stdin))
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	srvLogger := logger.NewWithConfig("server", log.GetLevel(), false, *debugMode, formatter)
	srv := server.NewServer(cfg, handle, server.WithLogger(srvLogger))

	showStartupInfo(cfg)

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func fatalConfig(err error) {
	var cerr *config.ConfigurationError
	if errors.As(err, &cerr) {
		log.Fatal("Invalid configuration", "field", cerr.Field, "value", cerr.Value, "reason", cerr.Reason)
	}
	log.Fatalf("Configuration error: %v", err)
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["dictionaries"] = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	kinds := make([]string, 0)
	for _, k := range dictionary.Supported() {
		kinds = append(kinds, string(k))
	}

	logger.Print("")
	logger.Print("[ TokenServe ] Morphological analysis over HTTP")
	logger.Print("", "version", Version)
	logger.Print("", "dictionaries", strings.Join(kinds, ", "))
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(cfg config.Config) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("============")
	println(" TokenServe ")
	println("============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("dictionary: ( %s )", dictionary.Describe(cfg.Dictionary))
	if cfg.UserDictionaryPath != "" {
		log.Infof("user dictionary: ( %s, %s )", cfg.UserDictionaryPath, cfg.UserDictionaryType)
	}
	log.Infof("mode: %s  format: %s  policy: %s", cfg.Mode, cfg.Format, cfg.Policy)
	log.Infof("endpoint: POST http://%s%s", cfg.Addr(), cfg.Path)
	if cfg.Demo {
		log.Infof("demo: GET http://%s/", cfg.Addr())
	}
	println("============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
