// Package watch tracks the last observed modification time of a single file.
package watch

import (
	"os"
	"time"
)

// Hinter reports whether a path may have changed since the last call.
// A Hinter lets a File skip its stat call on frames where nothing happened.
type Hinter interface {
	Take(path string) bool
}

// File is the record kept for one hot-reloaded resource.
// The zero ModTime means the file was never loaded, so the first
// Stale call on an existing file always reports a change.
type File struct {
	Path    string
	ModTime time.Time
	Hint    Hinter

	// pending is set once the hint reported activity and cleared when the
	// change is committed or turns out to be no change at all.
	pending bool
}

func New(path string) *File {
	return &File{Path: path}
}

// Stale stats the file and returns its current modification time and whether
// it differs from the committed one. A missing file is never stale.
//
// The hint is only consulted for a file that was loaded before and has no
// uncommitted change, so Reset and failed attempts are retried without
// waiting for new filesystem activity.
func (f *File) Stale() (time.Time, bool) {
	if f.Hint != nil && !f.pending && !f.ModTime.IsZero() {
		if !f.Hint.Take(f.Path) {
			return f.ModTime, false
		}
		f.pending = true
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return f.ModTime, false
	}
	mt := info.ModTime()
	if !f.ModTime.IsZero() && mt.Equal(f.ModTime) {
		f.pending = false
		return mt, false
	}
	return mt, true
}

// Commit records mt as the last observed modification time.
func (f *File) Commit(mt time.Time) {
	f.ModTime = mt
	f.pending = false
}

// Reset forgets the committed time so the next Stale call reloads.
func (f *File) Reset() {
	f.ModTime = time.Time{}
}
