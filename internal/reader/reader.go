// Package reader provides the core of a status-line text reader: chapter
// detection, a character-offset reading cursor and single-line excerpts.
package reader

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the number of characters shown per page.
const DefaultPageSize = 60

// ErrInvalidPageSize is returned when a page size is not positive.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Reader holds the state of one reading session: the active document, the
// cursor into it and whether the excerpt is visible.
// It is not safe for concurrent use.
type Reader struct {
	doc      *Document
	position int
	pageSize int
	pattern  string
	visible  bool
}

// NewReader creates a Reader with no document loaded. A non-positive page
// size falls back to DefaultPageSize and an empty pattern to DefaultHeadingPattern.
func NewReader(pageSize int, pattern string) *Reader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pattern == "" {
		pattern = DefaultHeadingPattern
	}
	return &Reader{pageSize: pageSize, pattern: pattern}
}

// Load replaces the active document with text and resets the cursor.
// An ErrBadPattern error means the document was loaded as a single chapter.
func (r *Reader) Load(text string) error {
	return r.load(text, "")
}

// LoadFile extracts text from filename and loads it. If the file cannot be
// read the current document is left untouched.
func (r *Reader) LoadFile(filename string) error {
	text, err := ExtractText(filename)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	return r.load(text, filename)
}

func (r *Reader) load(text, path string) error {
	doc, err := NewDocument(text, r.pattern)
	doc.Path = path
	r.doc = doc
	r.position = 0
	return err
}

// Document returns the active document, or nil if none is loaded.
func (r *Reader) Document() *Document { return r.doc }

// Loaded reports whether a document is active.
func (r *Reader) Loaded() bool { return r.doc != nil }

// Position returns the normalized cursor offset.
func (r *Reader) Position() int {
	r.normalize()
	return r.position
}

// PageSize returns the current window length.
func (r *Reader) PageSize() int { return r.pageSize }

// SetPageSize changes the window length. The cursor offset is unchanged.
func (r *Reader) SetPageSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	r.pageSize = n
	r.normalize()
	return nil
}

// HeadingPattern returns the pattern used to detect chapters.
func (r *Reader) HeadingPattern() string { return r.pattern }

// SetHeadingPattern re-parses the active document with pattern and moves the
// cursor back to the start. Setting the current pattern again does nothing.
func (r *Reader) SetHeadingPattern(pattern string) error {
	if pattern == "" {
		pattern = DefaultHeadingPattern
	}
	if pattern == r.pattern {
		return nil
	}
	r.pattern = pattern
	if r.doc == nil {
		return nil
	}
	doc, err := r.doc.reparse(pattern)
	r.doc = doc
	r.position = 0
	return err
}

// Visible reports whether the excerpt is shown and navigation is enabled.
func (r *Reader) Visible() bool { return r.visible }

// Show makes the reader visible.
func (r *Reader) Show() { r.visible = true }

// Hide makes the reader invisible. Navigation is ignored while hidden.
func (r *Reader) Hide() { r.visible = false }

// Advance moves the cursor forward one page. Near the end it saturates so
// the final window stays on screen.
func (r *Reader) Advance() {
	if !r.visible || r.doc == nil {
		return
	}
	r.position += r.pageSize
	r.normalize()
}

// Retreat moves the cursor back one page, stopping at the start.
func (r *Reader) Retreat() {
	if !r.visible || r.doc == nil {
		return
	}
	r.position -= r.pageSize
	r.normalize()
}

// JumpToChapter moves the cursor to the first non-blank character of the
// chapter at index and makes the reader visible. Out of range indexes are ignored.
func (r *Reader) JumpToChapter(index int) {
	if r.doc == nil || index < 0 || index >= len(r.doc.Chapters) {
		return
	}
	r.position = skipSpace(r.doc.runes, r.doc.Chapters[index].StartPos)
	r.visible = true
	r.normalize()
}

// CurrentChapter returns the index of the chapter containing the cursor,
// or -1 if no document is loaded.
func (r *Reader) CurrentChapter() int {
	if r.doc == nil {
		return -1
	}
	return r.doc.ChapterAt(r.Position())
}

// Render produces the excerpt for the current cursor.
func (r *Reader) Render() Excerpt {
	return Render(r.doc, r.Position(), r.pageSize)
}

// ChapterItems lists the chapters of the active document for selection.
func (r *Reader) ChapterItems() []ChapterItem {
	if r.doc == nil {
		return nil
	}
	return chapterItems(r.doc, r.pageSize)
}

func (r *Reader) normalize() {
	if r.doc == nil {
		r.position = 0
		return
	}
	r.position = clamp(r.position, r.doc.Len(), r.pageSize)
}

// clamp keeps pos inside [0, length). Past the end it snaps to the last
// full window.
func clamp(pos, length, pageSize int) int {
	if pos >= length {
		pos = length - pageSize
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}
