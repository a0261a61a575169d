package lookup

import (
	"context"
	"fmt"
)

// Directory resolves a badge tag to a display name. A tag that matches no
// member, or more than one, is reported as ok == false rather than as an
// error; errors mean the directory itself could not be consulted.
type Directory interface {
	Lookup(ctx context.Context, tag string) (name string, ok bool, err error)
}

// Config selects and configures the directories to consult.
type Config struct {
	// TagFile is an optional local tag<TAB>name file consulted first.
	TagFile     string            `yaml:"tag_file"`
	WildApricot WildApricotConfig `yaml:"wildapricot"`
}

// New builds a Directory from cfg. The HTTP client for the membership API
// is created here and owned by the returned directory.
func New(ctx context.Context, cfg Config) (Directory, error) {
	var dirs []Directory

	if cfg.TagFile != "" {
		f := NewFile(cfg.TagFile)
		if err := f.Load(); err != nil {
			return nil, fmt.Errorf("load tag file: %w", err)
		}
		dirs = append(dirs, f)
	}

	if cfg.WildApricot.APIKey != "" {
		wa := cfg.WildApricot.withDefaults()
		dirs = append(dirs, NewWildApricot(wa.HTTPClient(ctx), wa))
	}

	switch len(dirs) {
	case 0:
		return nil, fmt.Errorf("no name directory configured (tag_file or wildapricot.api_key)")
	case 1:
		return dirs[0], nil
	default:
		return Chain(dirs), nil
	}
}

// Chain consults each directory in order and returns the first name found.
type Chain []Directory

// Lookup implements Directory.
func (c Chain) Lookup(ctx context.Context, tag string) (string, bool, error) {
	var firstErr error
	for _, d := range c {
		name, ok, err := d.Lookup(ctx, tag)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return name, true, nil
		}
	}
	return "", false, firstErr
}

// Static is an in-memory directory, handy for tests and demos.
type Static map[string]string

// Lookup implements Directory.
func (s Static) Lookup(_ context.Context, tag string) (string, bool, error) {
	name, ok := s[tag]
	return name, ok && name != "", nil
}
