package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"argus-hq/argus/pkg/policy/schema"
)

// LoaderConfig contains configuration for the policy loader.
type LoaderConfig struct {
	// MaxFileSize caps individual policy file size in bytes.
	// Default: 1 MiB.
	MaxFileSize int64

	// Extensions lists the file extensions loaded from directories.
	// Default: .yaml, .yml.
	Extensions []string

	// SkipHidden skips dotfiles and dot-directories during directory
	// loads. Default: true.
	SkipHidden bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize: 1 << 20,
		Extensions:  []string{".yaml", ".yml"},
		SkipHidden:  true,
	}
}

// Loader reads policy documents from the file system.
type Loader struct {
	config *LoaderConfig
}

// NewLoader creates a policy loader. A nil config uses defaults.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{config: config}
}

// LoadFile loads a single policy document. It validates file size and UTF-8
// encoding before handing the bytes to the schema parser.
func (l *Loader) LoadFile(path string) (*schema.PolicyDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		case os.IsPermission(err):
			return nil, &LoadError{FilePath: path, Message: "permission denied", Cause: err}
		default:
			return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
		}
	}

	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	doc, err := schema.Decode(data, path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "parse failed", Cause: err}
	}
	if doc.Name == "" {
		// Unnamed documents take their file name so loads stay addressable.
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &LoadError{FilePath: path, Message: "validation failed", Cause: err}
	}
	doc.Source = path
	return doc, nil
}

// LoadDirectory loads every policy file under dir recursively, in sorted path
// order. Files that fail to load are collected into an *ErrorList returned
// alongside the documents that did load; the error is nil only when every
// file loaded.
func (l *Loader) LoadDirectory(dir string) ([]*schema.PolicyDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: dir, Message: "directory not found", Cause: err}
		}
		return nil, &LoadError{FilePath: dir, Message: "failed to access directory", Cause: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{FilePath: dir, Message: "not a directory"}
	}

	files, err := l.collectFiles(dir)
	if err != nil {
		return nil, err
	}

	var docs []*schema.PolicyDocument
	errList := &ErrorList{}
	for _, path := range files {
		doc, err := l.LoadFile(path)
		if err != nil {
			errList.Add(err)
			continue
		}
		docs = append(docs, doc)
	}

	if !errList.Empty() {
		return docs, errList
	}
	return docs, nil
}

// collectFiles walks dir and returns matching policy file paths, sorted.
func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if l.config.SkipHidden && path != dir && strings.HasPrefix(filepath.Base(path), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range l.config.Extensions {
			if ext == strings.ToLower(want) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "directory walk failed", Cause: err}
	}

	sort.Strings(files)
	return files, nil
}
