// Package plugin hot-reloads a native shared library and resolves its entry
// function whenever the library file changes on disk.
package plugin

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richinsley/hotshader/watch"
)

// EntrySymbol is the exported function every animation plugin provides.
const EntrySymbol = "mainAnimation"

var (
	ErrSymbolNotFound = errors.New("plugin entry symbol not found")
	ErrUnsupported    = errors.New("native plugins are not supported on this platform")
)

// Loader owns one dynamically loaded library and its resolved entry function
// of type F. F must be a func type the dynamic call bridge can express.
//
// The OS loader caches libraries by path, so every load goes through a
// uniquely named shadow copy of the file.
type Loader[F any] struct {
	file   *watch.File
	symbol string

	handle uintptr
	shadow string
	entry  F
	loaded bool
}

func NewLoader[F any](path string) *Loader[F] {
	return &Loader[F]{
		file:   watch.New(path),
		symbol: EntrySymbol,
	}
}

// SetSymbol overrides the entry symbol name.
func (l *Loader[F]) SetSymbol(name string) {
	l.symbol = name
}

// File returns the watched file record.
func (l *Loader[F]) File() *watch.File {
	return l.file
}

// Current returns the last successfully loaded entry and whether there is one.
func (l *Loader[F]) Current() (F, bool) {
	return l.entry, l.loaded
}

// Load returns the entry function, reloading the library first if its file
// changed. A missing or unchanged file returns the cached entry.
//
// When the new library cannot be opened, the zero F and an error are
// returned for this call. The previously loaded library stays open and
// cached, and the next call retries. A library without the entry symbol
// yields ErrSymbolNotFound.
func (l *Loader[F]) Load() (F, error) {
	start := time.Now()
	mt, stale := l.file.Stale()
	if !stale {
		return l.entry, nil
	}

	var zero F
	shadow, err := l.copyShadow()
	if err != nil {
		return zero, err
	}

	handle, err := openLibrary(shadow)
	if err != nil {
		os.Remove(shadow)
		return zero, fmt.Errorf("failed to open plugin %s: %w", l.file.Path, err)
	}

	sym, err := lookupSymbol(handle, l.symbol)
	if err != nil || sym == 0 {
		closeLibrary(handle)
		os.Remove(shadow)
		return zero, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, l.symbol, l.file.Path)
	}

	var entry F
	if err := bindFunc(&entry, sym); err != nil {
		closeLibrary(handle)
		os.Remove(shadow)
		return zero, fmt.Errorf("failed to bind %s in %s: %w", l.symbol, l.file.Path, err)
	}

	l.release()
	l.handle = handle
	l.shadow = shadow
	l.entry = entry
	l.loaded = true
	l.file.Commit(mt)

	log.Printf("INFO: loaded file %s. It took %d ms", l.file.Path, time.Since(start).Milliseconds())
	return entry, nil
}

// Close unloads the current library. The cached entry must not be called
// afterwards.
func (l *Loader[F]) Close() error {
	err := l.release()
	var zero F
	l.entry = zero
	l.loaded = false
	l.file.Reset()
	return err
}

func (l *Loader[F]) release() error {
	var err error
	if l.handle != 0 {
		err = closeLibrary(l.handle)
		l.handle = 0
	}
	if l.shadow != "" {
		os.Remove(l.shadow)
		l.shadow = ""
	}
	return err
}

func (l *Loader[F]) copyShadow() (string, error) {
	src, err := os.Open(l.file.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open plugin %s: %w", l.file.Path, err)
	}
	defer src.Close()

	base := filepath.Base(l.file.Path)
	ext := filepath.Ext(base)
	dst, err := os.CreateTemp(os.TempDir(), strings.TrimSuffix(base, ext)+".*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create plugin copy: %w", err)
	}
	shadow := dst.Name()
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(shadow)
		return "", fmt.Errorf("failed to copy plugin %s: %w", l.file.Path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(shadow)
		return "", fmt.Errorf("failed to copy plugin %s: %w", l.file.Path, err)
	}
	return shadow, nil
}
