package reader

import "strings"

const byteOrderMark = "\uFEFF"

// Document is loaded text together with its chapters. It is never modified
// after construction; reloading or changing the heading pattern builds a new one.
type Document struct {
	Path     string
	Chapters []Chapter

	raw   string
	runes []rune
}

// NewDocument strips a leading byte order mark and parses chapters with the
// given heading pattern. The returned document is always usable; a non-nil
// error only reports that the pattern was rejected (see ErrBadPattern).
func NewDocument(text, pattern string) (*Document, error) {
	text = strings.TrimPrefix(text, byteOrderMark)
	d := &Document{raw: text, runes: []rune(text)}
	var err error
	d.Chapters, err = parseChapters(text, d.runes, pattern)
	return d, err
}

// Len returns the document length in runes.
func (d *Document) Len() int { return len(d.runes) }

// Text returns the document text without the byte order mark.
func (d *Document) Text() string { return d.raw }

// Slice returns the runes in [start, end), clamped to the document.
func (d *Document) Slice(start, end int) string {
	start = max(0, min(start, len(d.runes)))
	end = max(start, min(end, len(d.runes)))
	return string(d.runes[start:end])
}

// ChapterAt returns the index of the first chapter whose span contains pos.
// Offsets outside every span (text before the first heading, heading lines)
// resolve to the last chapter.
func (d *Document) ChapterAt(pos int) int {
	for i, ch := range d.Chapters {
		if pos >= ch.StartPos && pos < ch.EndPos {
			return i
		}
	}
	return len(d.Chapters) - 1
}

func (d *Document) reparse(pattern string) (*Document, error) {
	nd := &Document{Path: d.Path, raw: d.raw, runes: d.runes}
	var err error
	nd.Chapters, err = parseChapters(nd.raw, nd.runes, pattern)
	return nd, err
}
