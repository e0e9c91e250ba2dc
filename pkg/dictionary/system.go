package dictionary

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ikawaha/kagome-dict/dict"
)

// ErrNoPath is returned when the local kind is used without an archive path.
var ErrNoPath = errors.New("local dictionary requires a path")

// LoadSystem returns the system dictionary for kind. For Local the archive
// at path is read, every other kind must be compiled in.
func LoadSystem(kind Kind, path string) (*dict.Dict, error) {
	start := time.Now()
	if kind == Local {
		if path == "" {
			return nil, ErrNoPath
		}
		if err := ValidateFileFormat(path, FormatArchive); err != nil {
			return nil, err
		}
		d, err := dict.LoadDictFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load dictionary archive %s: %w", path, err)
		}
		log.Debugf("Loaded local dictionary %s in %v", path, time.Since(start))
		return d, nil
	}

	load, ok := lookup(kind)
	if !ok {
		return nil, fmt.Errorf("dictionary kind %q is not compiled into this build", kind)
	}
	d := load()
	if d == nil {
		return nil, fmt.Errorf("dictionary kind %q returned no data", kind)
	}
	log.Debugf("Loaded %s dictionary in %v", kind, time.Since(start))
	return d, nil
}
