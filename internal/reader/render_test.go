package reader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlaceholder(t *testing.T) {
	r := NewReader(10, DefaultHeadingPattern)
	e := r.Render()
	assert.Equal(t, Placeholder, e.Text)
	assert.False(t, e.Loaded)
	assert.Empty(t, e.ChapterName)
	assert.Equal(t, Placeholder, e.StatusLine())
	assert.Empty(t, e.Detail())
}

func TestRenderWhitespace(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"line breaks", "ab\ncd\r\nef", "ab cd ef"},
		{"leading blank lines", "\n\n\nabc", "abc"},
		{"trailing blanks", "abc  \n\n", "abc"},
		{"tabs and ideographic space", "a\t\tb　　c", "a b c"},
		{"all blank", " \n \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newVisibleReader(t, tt.text, 100)
			got := r.Render().Text
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.HasPrefix(got, " "))
			assert.False(t, strings.HasSuffix(got, " "))
			assert.NotContains(t, got, "\n")
			assert.NotContains(t, got, "\r")
		})
	}
}

func TestRenderWindowAndProgress(t *testing.T) {
	r := newVisibleReader(t, "abcdefghij", 4)
	r.Advance()

	e := r.Render()
	assert.Equal(t, "efgh", e.Text)
	assert.InDelta(t, 40.0, e.Progress, 1e-9)
	assert.Equal(t, 2, e.Page)
	assert.Equal(t, 3, e.Pages)
	assert.Equal(t, "efgh  [2/3]", e.StatusLine())
	assert.Equal(t, WholeDocument+" | 进度: 40.00%", e.Detail())
}

func TestRenderMultibyteWindow(t *testing.T) {
	r := newVisibleReader(t, "一二三四五六七八", 3)
	r.Advance()
	assert.Equal(t, "四五六", r.Render().Text)
}

func TestRenderChapterName(t *testing.T) {
	text := "前言部分\n第一章 甲\n内容一内容一\n第二章 乙\n内容二内容二"
	r := newVisibleReader(t, text, 2)
	doc := r.Document()
	require.Len(t, doc.Chapters, 2)

	// Text before the first heading falls back to the last chapter.
	assert.Equal(t, "第二章 乙", r.Render().ChapterName)

	r.JumpToChapter(0)
	assert.Equal(t, "第一章 甲", r.Render().ChapterName)

	r.JumpToChapter(1)
	assert.Equal(t, "第二章 乙", r.Render().ChapterName)
}

func TestChapterItems(t *testing.T) {
	text := "第一章 甲\n" + strings.Repeat("字", 44) + "\n第二章 乙\n" + strings.Repeat("字", 44)
	r := NewReader(10, DefaultHeadingPattern)
	require.NoError(t, r.Load(text))

	items := r.ChapterItems()
	require.Len(t, items, 2)
	assert.Equal(t, ChapterItem{Index: 0, Name: "第一章 甲", Page: 1, Percent: 5}, items[0])
	assert.Equal(t, 1, items[1].Index)
	assert.Equal(t, "第二章 乙", items[1].Name)
	assert.Equal(t, 6, items[1].Page)
	assert.Equal(t, 56, items[1].Percent)
}
