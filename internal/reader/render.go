package reader

import (
	"fmt"
	"strings"
)

// Placeholder is shown when no document is loaded.
const Placeholder = "请先选择小说 (select a text file to start reading)"

// Excerpt is the rendered view of one window.
type Excerpt struct {
	Text        string
	ChapterName string
	Progress    float64 // percent of the document before the cursor
	Page        int     // 1-based, derived from the cursor
	Pages       int
	Loaded      bool
}

// Render returns the excerpt for the window starting at pos. pos is expected
// to be normalized already. A nil doc renders the placeholder.
func Render(doc *Document, pos, pageSize int) Excerpt {
	if doc == nil {
		return Excerpt{Text: Placeholder}
	}
	length := doc.Len()
	e := Excerpt{
		Text:   collapseSpace(doc.Slice(pos, pos+pageSize)),
		Page:   pos/pageSize + 1,
		Pages:  max(1, (length+pageSize-1)/pageSize),
		Loaded: true,
	}
	if length > 0 {
		e.Progress = float64(pos) / float64(length) * 100
	}
	if i := doc.ChapterAt(pos); i >= 0 {
		e.ChapterName = doc.Chapters[i].Name
	}
	return e
}

// StatusLine formats the excerpt the way the status bar shows it.
func (e Excerpt) StatusLine() string {
	if !e.Loaded {
		return e.Text
	}
	return fmt.Sprintf("%s  [%d/%d]", e.Text, e.Page, e.Pages)
}

// Detail formats the chapter name and progress for a tooltip.
func (e Excerpt) Detail() string {
	if !e.Loaded {
		return ""
	}
	return fmt.Sprintf("%s | 进度: %.2f%%", e.ChapterName, e.Progress)
}

// collapseSpace turns every whitespace run, line breaks included, into a
// single space and trims both ends.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ChapterItem describes a chapter in a selection list.
type ChapterItem struct {
	Index   int
	Name    string
	Page    int // 1-based page on which the chapter starts
	Percent int
}

func chapterItems(doc *Document, pageSize int) []ChapterItem {
	items := make([]ChapterItem, len(doc.Chapters))
	length := doc.Len()
	for i, ch := range doc.Chapters {
		items[i] = ChapterItem{
			Index: i,
			Name:  ch.Name,
			Page:  ch.StartPos/pageSize + 1,
		}
		if length > 0 {
			items[i].Percent = ch.StartPos * 100 / length
		}
	}
	return items
}
