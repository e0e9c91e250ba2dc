package dictionary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ikawaha/kagome-dict/dict"
	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/vmihailenco/msgpack/v5"
)

// UserDictType is the encoding of a user dictionary file.
type UserDictType int

const (
	UserDictCSV UserDictType = iota
	UserDictBinary
)

// String returns the canonical name of the type.
func (t UserDictType) String() string {
	switch t {
	case UserDictCSV:
		return "csv"
	case UserDictBinary:
		return "binary"
	}
	return fmt.Sprintf("UserDictType(%d)", int(t))
}

// ParseUserDictType accepts "csv", "bin" and "binary". An empty value is csv.
func ParseUserDictType(raw string) (UserDictType, error) {
	switch strings.TrimSpace(raw) {
	case "", "csv":
		return UserDictCSV, nil
	case "bin", "binary":
		return UserDictBinary, nil
	}
	return UserDictCSV, fmt.Errorf("invalid user dictionary type: %s", raw)
}

// Record is one user dictionary entry: a surface form, its segmentation,
// the reading of every segment and a part of speech.
type Record struct {
	Text   string   `msgpack:"t"`
	Tokens []string `msgpack:"k"`
	Yomi   []string `msgpack:"y"`
	Pos    string   `msgpack:"p"`
}

// Validate checks that a record can be loaded by the engine.
func (r Record) Validate() error {
	if r.Text == "" {
		return errors.New("empty surface")
	}
	if len(r.Tokens) == 0 {
		return fmt.Errorf("%s: no tokens", r.Text)
	}
	if len(r.Tokens) != len(r.Yomi) {
		return fmt.Errorf("%s: %d tokens but %d readings", r.Text, len(r.Tokens), len(r.Yomi))
	}
	if strings.Join(r.Tokens, "") != r.Text {
		return fmt.Errorf("%s: tokens %v do not spell the surface", r.Text, r.Tokens)
	}
	if r.Pos == "" {
		return fmt.Errorf("%s: empty part of speech", r.Text)
	}
	return nil
}

// ReadCSV parses user dictionary records. Blank lines and lines starting
// with '#' are skipped.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comment = '#'
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var records []Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse user dictionary: %w", err)
		}
		rec := Record{
			Text:   fields[0],
			Tokens: strings.Fields(fields[1]),
			Yomi:   strings.Fields(fields[2]),
			Pos:    fields[3],
		}
		if err := rec.Validate(); err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("user dictionary line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteCSV renders records in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	for _, rec := range records {
		row := []string{rec.Text, strings.Join(rec.Tokens, " "), strings.Join(rec.Yomi, " "), rec.Pos}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Dedupe keeps the last record for every surface form and returns the
// survivors ordered by surface.
func Dedupe(records []Record) []Record {
	trie := patricia.NewTrie()
	for _, rec := range records {
		if !trie.Insert(patricia.Prefix(rec.Text), rec) {
			log.Debugf("user dictionary: %s redefined, keeping the later entry", rec.Text)
			trie.Set(patricia.Prefix(rec.Text), rec)
		}
	}

	out := make([]Record, 0, len(records))
	_ = trie.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		out = append(out, item.(Record))
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

// binaryMagic starts every binary user dictionary, followed by a
// little endian uint16 version and the msgpack encoded records.
var binaryMagic = []byte("TSUD")

const binaryVersion uint16 = 1

// WriteBinary encodes records in the binary user dictionary format.
func WriteBinary(w io.Writer, records []Record) error {
	if _, err := w.Write(binaryMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, binaryVersion); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(records)
}

// ReadBinary decodes a binary user dictionary.
func ReadBinary(r io.Reader) ([]Record, error) {
	header := make([]byte, len(binaryMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("failed to read user dictionary header: %w", err)
	}
	if !bytes.Equal(header, binaryMagic) {
		return nil, fmt.Errorf("not a binary user dictionary (header %q)", header)
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read user dictionary version: %w", err)
	}
	if version != binaryVersion {
		return nil, fmt.Errorf("unsupported user dictionary version %d", version)
	}

	var records []Record
	if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode user dictionary: %w", err)
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("user dictionary record %d: %w", i, err)
		}
	}
	return records, nil
}

// Build turns records into an engine user dictionary. It returns nil
// without an error when there are no records.
func Build(records []Record) (*dict.UserDict, error) {
	if len(records) == 0 {
		return nil, nil
	}
	unique := Dedupe(records)
	recs := make(dict.UserDictRecords, 0, len(unique))
	for _, r := range unique {
		recs = append(recs, dict.UserDicRecord{
			Text:   r.Text,
			Tokens: r.Tokens,
			Yomi:   r.Yomi,
			Pos:    r.Pos,
		})
	}
	udict, err := recs.NewUserDict()
	if err != nil {
		return nil, fmt.Errorf("failed to build user dictionary: %w", err)
	}
	return udict, nil
}

// ReadRecords reads a user dictionary file of the given type.
func ReadRecords(path string, typ UserDictType) ([]Record, error) {
	format := FormatUserCSV
	if typ == UserDictBinary {
		format = FormatUserBinary
	}
	if err := ValidateFileFormat(path, format); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user dictionary %s: %w", path, err)
	}
	defer file.Close()

	if typ == UserDictBinary {
		return ReadBinary(bufio.NewReader(file))
	}
	return ReadCSV(file)
}

// LoadUser reads and builds the user dictionary at path.
func LoadUser(path string, typ UserDictType) (*dict.UserDict, error) {
	records, err := ReadRecords(path, typ)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d user dictionary records from %s (%s)", len(records), path, typ)
	return Build(records)
}
