package ruleset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/rules"
)

// Source loads a complete ruleset.
type Source interface {
	Load(ctx context.Context) (*Ruleset, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Ruleset, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) (*Ruleset, error) {
	return f(ctx)
}

// StaticSource always returns the same ruleset.
func StaticSource(s *Ruleset) Source {
	return SourceFunc(func(context.Context) (*Ruleset, error) {
		return s, nil
	})
}

// FileSourceConfig contains configuration for a FileSource.
type FileSourceConfig struct {
	// Path is a rule file or a directory searched recursively
	Path string

	// Extensions is the list of file extensions loaded from a directory
	Extensions []string

	// SkipHidden skips dot files and dot directories
	SkipHidden bool

	// MaxFileSize is the maximum accepted file size in bytes
	MaxFileSize int64
}

// DefaultMaxFileSize bounds the size of a single rule file.
const DefaultMaxFileSize = 10 * 1024 * 1024

// FileSourceConfigFrom builds a FileSourceConfig from the rules section.
func FileSourceConfigFrom(cfg config.RulesConfig) *FileSourceConfig {
	return &FileSourceConfig{
		Path:        cfg.Path,
		Extensions:  cfg.Extensions,
		SkipHidden:  true,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// FileSource loads rule documents from the file system. A single file
// yields its own ruleset; a directory yields the merge of every matching
// file in lexical order, named after the directory.
type FileSource struct {
	config   *FileSourceConfig
	registry *rules.Registry
}

// NewFileSource creates a file source. A nil registry means
// rules.DefaultRegistry.
func NewFileSource(cfg *FileSourceConfig, registry *rules.Registry) *FileSource {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = config.DefaultRulesExtensions()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if registry == nil {
		registry = rules.DefaultRegistry
	}
	return &FileSource{config: cfg, registry: registry}
}

// Path returns the configured path.
func (s *FileSource) Path() string {
	return s.config.Path
}

// Extensions returns the extensions loaded from a directory.
func (s *FileSource) Extensions() []string {
	return s.config.Extensions
}

// Load loads the configured path. Any failing file fails the whole load
// so a partially broken directory never replaces a working ruleset.
func (s *FileSource) Load(ctx context.Context) (*Ruleset, error) {
	info, err := os.Stat(s.config.Path)
	if err != nil {
		return nil, statError(s.config.Path, err)
	}
	if !info.IsDir() {
		return s.LoadFile(s.config.Path)
	}
	return s.loadDirectory(ctx, s.config.Path)
}

// Files returns the rule files Load would read, in load order.
func (s *FileSource) Files() ([]string, error) {
	info, err := os.Stat(s.config.Path)
	if err != nil {
		return nil, statError(s.config.Path, err)
	}
	if !info.IsDir() {
		return []string{s.config.Path}, nil
	}
	return s.collectFiles(s.config.Path)
}

// LoadFile loads a single rule document. The ruleset is named after the
// document, or after the file when the document has no name.
func (s *FileSource) LoadFile(path string) (*Ruleset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > s.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), s.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	set, err := Decode(data, FormatFromPath(path), s.registry)
	if err != nil {
		return nil, withFilePath(err, path)
	}

	if set.name == "" {
		set.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, r := range set.rules {
		r.Source = path
	}
	return set, nil
}

func (s *FileSource) loadDirectory(ctx context.Context, dir string) (*Ruleset, error) {
	files, err := s.collectFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &LoadError{FilePath: dir, Message: "no rule files found in directory"}
	}

	merged := &Ruleset{name: filepath.Base(filepath.Clean(dir)), index: make(map[string]int)}
	errs := &ErrorList{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := s.LoadFile(path)
		if err != nil {
			errs.Add(err)
			continue
		}
		errs.Add(merged.Merge(set))
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return merged, nil
}

// collectFiles returns the matching files below dir in lexical order.
func (s *FileSource) collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !hasExtension(path, s.config.Extensions) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	return files, nil
}

// hasExtension reports whether path ends with one of exts, ignoring case.
func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range exts {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

func statError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{FilePath: path, Message: "file not found", Cause: err}
	case errors.Is(err, fs.ErrPermission):
		return &LoadError{FilePath: path, Message: "permission denied", Cause: err}
	default:
		return &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
}

// withFilePath records the document path on decode errors.
func withFilePath(err error, path string) error {
	var list *ErrorList
	if errors.As(err, &list) {
		for _, e := range list.Errors {
			withFilePath(e, path)
		}
		return err
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.FilePath = path
	}
	var rerr *RuleError
	if errors.As(err, &rerr) {
		rerr.FilePath = path
	}
	var derr *DuplicateRuleError
	if errors.As(err, &derr) {
		for i, src := range derr.Sources {
			if src == "" {
				derr.Sources[i] = path
			}
		}
	}
	return err
}
