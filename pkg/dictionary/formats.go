package dictionary

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the on-disk dictionary formats understood here
type FileFormat int

const (
	FormatUnknown    FileFormat = iota
	FormatArchive               // kagome system dictionary (zip archive)
	FormatUserCSV               // kagome user dictionary CSV
	FormatUserBinary            // msgpack user dictionary from cmd/userdict
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var zipMagic = []byte("PK\x03\x04")

var supportedFormats = map[FileFormat]FormatInfo{
	FormatArchive: {
		Format:      FormatArchive,
		Description: "System Dictionary Archive",
		Extensions:  []string{".dict", ".zip"},
		MinSize:     int64(len(zipMagic)),
	},
	FormatUserCSV: {
		Format:      FormatUserCSV,
		Description: "User Dictionary CSV",
		Extensions:  []string{".csv", ".txt"},
		MinSize:     0, // an empty user dictionary is legal
	},
	FormatUserBinary: {
		Format:      FormatUserBinary,
		Description: "User Dictionary Binary",
		Extensions:  []string{".bin"},
		MinSize:     int64(len(binaryMagic) + 2),
	},
}

// String returns the format description.
func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// ValidateFileFormat checks if a file matches the expected format.
// Extensions are advisory: a mismatch is logged, the content check decides.
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory, expected a %s file", filename, expectedFormat)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		log.Debugf("file %s has extension %q, usual for %s: %v",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expectedFormat {
	case FormatArchive:
		return checkMagic(filename, zipMagic)
	case FormatUserBinary:
		return checkMagic(filename, binaryMagic)
	}
	return nil
}

// checkMagic compares the leading bytes of a file
func checkMagic(filename string, magic []byte) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if !bytes.Equal(header, magic) {
		return fmt.Errorf("file %s has an unexpected header %q", filename, header)
	}
	log.Debugf("file %s header ok", filename)
	return nil
}

// DetectFileFormat guesses the format of a dictionary file from its content,
// falling back to the extension for text files.
func DetectFileFormat(filename string) (FileFormat, error) {
	if err := ValidateFileFormat(filename, FormatUserBinary); err == nil {
		return FormatUserBinary, nil
	}
	if err := ValidateFileFormat(filename, FormatArchive); err == nil {
		return FormatArchive, nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range supportedFormats[FormatUserCSV].Extensions {
		if ext == e {
			return FormatUserCSV, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}
