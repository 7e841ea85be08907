package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AppendToSeedFile adds qs to the JSON array at path, skipping questions
// whose stem is already present. A missing file is created. It returns how
// many questions were written.
func AppendToSeedFile(path string, qs []GeneratedMCQ) (int, error) {
	var existing []GeneratedMCQ

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return 0, fmt.Errorf("read seed file: %w", err)
	default:
		existing, err = ParseSeedFile(data)
		if err != nil {
			return 0, fmt.Errorf("seed file %s: %w", path, err)
		}
	}

	seen := make(map[string]bool, len(existing)+len(qs))
	for _, q := range existing {
		seen[stemKey(q.Stem)] = true
	}

	added := 0
	for _, q := range qs {
		key := stemKey(q.Stem)
		if seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, q)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(existing); err != nil {
		return 0, fmt.Errorf("encode seed file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".mcq-*.json")
	if err != nil {
		return 0, fmt.Errorf("write seed file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write seed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("write seed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("write seed file: %w", err)
	}
	return added, nil
}

func stemKey(stem string) string {
	return strings.Join(strings.Fields(strings.ToLower(stem)), " ")
}
