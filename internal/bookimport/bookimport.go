// Package bookimport reads book records from JSON or JSON Lines files for bulk
// loading into the catalogue.
package bookimport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Typographic characters that scraped descriptions often carry, mapped to
// plain equivalents.
var charReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201C", "\"", "\u201D", "\"",
	"\u2013", "-", "\u2014", "--", "\u2026", "...", "\u00a0", " ",
	"\u0091", "'", "\u0092", "'", "\u0093", "\"", "\u0094", "\"",
	"\u0096", "-", "\u0097", "--",
)

// Record is one book as found in an import file. Authors is accepted as an
// alias of Author.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Authors     string `json:"authors"`
	Category    string `json:"usr_category"`
	Description string `json:"description"`
}

// AuthorName returns Author, or Authors when Author is empty.
func (r Record) AuthorName() string {
	if r.Author != "" {
		return r.Author
	}
	return r.Authors
}

// FileMeta holds metadata about a discovered import file.
type FileMeta struct {
	Path string
	Name string
	Size int64
}

// IsImportFile reports whether name has a supported extension.
func IsImportFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonl", ".ndjson":
		return true
	}
	return false
}

/*
Discover finds import files at root. A file path is returned as is; a
directory is walked recursively for .json, .jsonl and .ndjson files.
*/
func Discover(ctx context.Context, root string) ([]FileMeta, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []FileMeta{{Path: root, Name: info.Name(), Size: info.Size()}}, nil
	}

	var files []FileMeta
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsImportFile(d.Name()) {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil {
			// Skip files we can't stat, but continue
			log.WithError(statErr).WithField("path", path).Warn("Skipping unreadable import file")
			return nil
		}
		files = append(files, FileMeta{Path: path, Name: d.Name(), Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile reads and decodes every record in path.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes data as a JSON array of records or as one record per line.
// src names the input in log messages and errors.
func Parse(data []byte, src string) ([]Record, error) {
	head := data
	if len(head) > maxBinaryCheckBytes {
		head = head[:maxBinaryCheckBytes]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, fmt.Errorf("%s looks like a binary file", src)
	}

	text := Clean(data, src)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var records []Record
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", src, err)
		}
		return records, nil
	}

	var records []Record
	sc := bufio.NewScanner(strings.NewReader(trimmed))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode %s line %d: %w", src, line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return records, nil
}

// Clean strips a UTF-8 BOM, replaces invalid UTF-8 and folds typographic
// punctuation to ASCII.
func Clean(data []byte, src string) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		log.WithField("source", src).Warn("Invalid UTF-8, replacing invalid characters")
		data = bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	}
	return charReplacer.Replace(string(data))
}
