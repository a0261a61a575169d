package lookup

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// File is a directory backed by a local tab-separated file of
// "tag<TAB>name" lines. Blank lines and lines starting with # are skipped.
type File struct {
	mu    sync.RWMutex
	path  string
	names map[string]string
}

// NewFile creates a file directory. Call Load before use.
func NewFile(path string) *File {
	return &File{path: path, names: map[string]string{}}
}

// Load (re)reads the tag file, replacing the current entries.
func (f *File) Load() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open tag file: %w", err)
	}
	defer file.Close()

	names := map[string]string{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			return fmt.Errorf("%s:%d: expected tag<TAB>name", f.path, lineNo)
		}
		names[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tag file: %w", err)
	}

	f.mu.Lock()
	f.names = names
	f.mu.Unlock()
	return nil
}

// Len returns the number of loaded entries.
func (f *File) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.names)
}

// Lookup implements Directory.
func (f *File) Lookup(_ context.Context, tag string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	name, ok := f.names[tag]
	return name, ok && name != "", nil
}
