package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// skippedExtensions are files that are clearly not binary script data.
// Script files in a game's SCRIPT folder are typically extensionless.
var skippedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".tsv":  true,
}

// Entry is a discovered script file ready for processing.
type Entry struct {
	// Path is the absolute file path.
	Path string
	// Name is the base name used for report naming.
	Name string
	// Size is the file size in bytes.
	Size int64
}

// Walk discovers candidate script files under root. Root may also be a single
// file. Format detection happens later, per buffer; discovery only filters
// out what is obviously not script data.
func Walk(root string) ([]Entry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}

	if !info.IsDir() {
		return []Entry{{Path: root, Name: filepath.Base(root), Size: info.Size()}}, nil
	}

	var entries []Entry
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if info.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if skippedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		entries = append(entries, Entry{Path: path, Name: name, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered script files")
	return entries, nil
}

// Read loads one script file fully into memory; the pipeline is a pure
// function of the buffer.
func Read(entry Entry) ([]byte, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read script file: %w", err)
	}
	return data, nil
}
