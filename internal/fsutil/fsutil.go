// Package fsutil provides the file-writing and directory-comparison
// primitives the generator and validator are built on. All write operations
// fail fast on I/O errors; nothing is retried or partially committed.
package fsutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteJSON marshals v with two-space indentation and writes it to path with
// a trailing newline. Key order follows encoding/json's deterministic map
// ordering, so identical values always produce identical bytes.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return WriteFile(path, append(data, '\n'))
}

// EnsureEmptyDir removes path if it exists and recreates it empty.
func EnsureEmptyDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clearing %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// CopyFile copies a single file from src to dst, preserving permissions.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	return os.WriteFile(dst, data, srcInfo.Mode())
}

// CopyDir recursively copies src to dst. Symlinks and other special files
// are skipped.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// DiffKind classifies a single difference between two directory trees.
type DiffKind string

const (
	// DiffMissing means the path exists in the first tree but not the second.
	DiffMissing DiffKind = "missing"
	// DiffExtra means the path exists in the second tree but not the first.
	DiffExtra DiffKind = "extra"
	// DiffContent means the path exists in both trees with different bytes.
	DiffContent DiffKind = "content"
)

// Difference records one path where two directory trees disagree. Path is
// slash-separated and relative to the tree roots.
type Difference struct {
	Path string
	Kind DiffKind
}

func (d Difference) String() string {
	return string(d.Kind) + ": " + d.Path
}

// IgnoreFunc decides whether a relative path is excluded from comparison.
type IgnoreFunc func(rel string) bool

// CompareDirs recursively compares the regular files under want and got and
// returns every difference found. The ignore predicate excludes paths from
// the comparison entirely; it receives slash-separated paths relative to the
// roots. Directory structure is compared implicitly through file paths.
// Returns an error only for I/O failures, never for tree differences.
func CompareDirs(want, got string, ignore IgnoreFunc) ([]Difference, error) {
	wantFiles, err := listFiles(want)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", want, err)
	}
	gotFiles, err := listFiles(got)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", got, err)
	}

	var diffs []Difference

	for _, rel := range wantFiles {
		if ignore != nil && ignore(rel) {
			continue
		}
		gotPath := filepath.Join(got, filepath.FromSlash(rel))
		if _, err := os.Stat(gotPath); err != nil {
			diffs = append(diffs, Difference{Path: rel, Kind: DiffMissing})
			continue
		}

		wantData, err := os.ReadFile(filepath.Join(want, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		gotData, err := os.ReadFile(gotPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		if !bytes.Equal(wantData, gotData) {
			diffs = append(diffs, Difference{Path: rel, Kind: DiffContent})
		}
	}

	wantSet := make(map[string]bool, len(wantFiles))
	for _, rel := range wantFiles {
		wantSet[rel] = true
	}
	for _, rel := range gotFiles {
		if ignore != nil && ignore(rel) {
			continue
		}
		if !wantSet[rel] {
			diffs = append(diffs, Difference{Path: rel, Kind: DiffExtra})
		}
	}

	return diffs, nil
}

// listFiles returns the slash-separated relative paths of all regular files
// under root, sorted by the walk order (lexical within each directory).
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
