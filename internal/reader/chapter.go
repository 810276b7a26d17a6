package reader

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultHeadingPattern matches headings such as "第十二章 归来" or "第3回".
const DefaultHeadingPattern = `^\s*第[0-9一二三四五六七八九十百千]+[章回节].*$`

// WholeDocument names the synthetic chapter used when no heading is found.
const WholeDocument = "(whole document)"

// ErrBadPattern is returned when a heading pattern does not compile.
// The chapters returned alongside it are still usable.
var ErrBadPattern = errors.New("invalid heading pattern")

// Chapter is a span of content attributed to one heading.
// Offsets count runes. StartPos is the first non-blank character after the
// heading line, EndPos is where the next heading begins (or the text length).
type Chapter struct {
	Name     string
	StartPos int
	EndPos   int
}

// CompileHeadingPattern compiles pattern in multi-line mode so that ^ and $
// anchor at line boundaries.
func CompileHeadingPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
	}
	return re, nil
}

// ParseChapters splits text into chapters using the heading pattern.
// It always returns at least one chapter; a pattern that fails to compile
// yields the whole-document chapter together with an ErrBadPattern error.
func ParseChapters(text, pattern string) ([]Chapter, error) {
	return parseChapters(text, []rune(text), pattern)
}

func parseChapters(text string, runes []rune, pattern string) ([]Chapter, error) {
	re, err := CompileHeadingPattern(pattern)
	if err != nil {
		return wholeDocument(len(runes)), err
	}

	var chapters []Chapter
	// Match offsets are in bytes; convert incrementally since matches ascend.
	byteOff, runeOff := 0, 0
	toRunes := func(b int) int {
		runeOff += utf8.RuneCountInString(text[byteOff:b])
		byteOff = b
		return runeOff
	}

	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		headingStart := toRunes(loc[0])
		headingEnd := toRunes(loc[1])

		if n := len(chapters); n > 0 {
			prev := &chapters[n-1]
			prev.EndPos = headingStart
			// An empty chapter whose blank-line skip ran into this heading.
			if prev.StartPos > headingStart {
				prev.StartPos = headingStart
			}
		}
		chapters = append(chapters, Chapter{
			Name:     strings.TrimSpace(text[loc[0]:loc[1]]),
			StartPos: skipSpace(runes, headingEnd),
			EndPos:   len(runes),
		})
	}

	if len(chapters) == 0 {
		return wholeDocument(len(runes)), nil
	}
	chapters[len(chapters)-1].EndPos = len(runes)
	return chapters, nil
}

func wholeDocument(length int) []Chapter {
	return []Chapter{{Name: WholeDocument, StartPos: 0, EndPos: length}}
}

// skipSpace returns the first offset at or after pos that is not whitespace,
// or len(runes) if there is none.
func skipSpace(runes []rune, pos int) int {
	for pos < len(runes) && unicode.IsSpace(runes[pos]) {
		pos++
	}
	return pos
}
