// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main compiles a CSV user dictionary into the binary form TokenServe
loads with -T bin.

Each CSV record is

	surface,segmentation,readings,part of speech

where segmentation and readings are space separated and have the same
number of parts, for example

	東京スカイツリー,東京 スカイツリー,トウキョウ スカイツリー,カスタム名詞

Lines starting with # are comments. When a surface appears more than once
the last record wins. The records are checked by building a user dictionary
from them before anything is written. A binary input is recompiled as is.

	userdict -in user.csv -out user.bin
*/
package main

import (
	"bufio"
	"flag"
	"os"
	"time"

	"github.com/bastiangx/tokenserve/internal/utils"
	"github.com/bastiangx/tokenserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

func main() {
	in := flag.String("in", "", "CSV user dictionary to compile")
	out := flag.String("out", "user.bin", "Output path of the binary user dictionary")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	flag.Parse()

	if *debugMode {
		log.SetLevel(log.DebugLevel)
	}
	if *in == "" {
		log.Fatal("Missing -in")
	}

	typ := dictionary.UserDictCSV
	format, err := dictionary.DetectFileFormat(*in)
	switch {
	case err != nil:
		log.Debugf("Reading %s as CSV: %v", *in, err)
	case format == dictionary.FormatUserBinary:
		typ = dictionary.UserDictBinary
	case format == dictionary.FormatArchive:
		log.Fatalf("%s is a system dictionary archive, not a user dictionary", *in)
	}

	start := time.Now()
	records, err := dictionary.ReadRecords(*in, typ)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *in, err)
	}
	unique := dictionary.Dedupe(records)
	if dropped := len(records) - len(unique); dropped > 0 {
		log.Warnf("Dropped %d duplicate surfaces, last entry kept", dropped)
	}

	if _, err := dictionary.Build(unique); err != nil {
		log.Fatalf("Invalid user dictionary: %v", err)
	}

	if err := write(*out, unique); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	log.Infof("Wrote %d entries to %s in %v", len(unique), utils.GetAbsolutePath(*out), time.Since(start))
}

func write(path string, records []dictionary.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := dictionary.WriteBinary(w, records); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
