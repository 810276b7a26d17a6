//go:build !gui

package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/moyu/internal/config"
	"github.com/metcalfc/moyu/internal/reader"
	"github.com/metcalfc/moyu/internal/state"
)

const novel = "第一章 开端\n\n天色将晚山路难行\n第二章 入城\n\n城门已闭只得借宿"

func newTestModel(t *testing.T, text string, pageSize int) model {
	t.Helper()
	r := reader.NewReader(pageSize, reader.DefaultHeadingPattern)
	if err := r.Load(text); err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.Show()
	return newModel(r, nil)
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestNavigationKeys(t *testing.T) {
	m := newTestModel(t, "abcdefghijkl", 4)

	m = press(t, m, "right")
	if m.Position() != 4 {
		t.Errorf("after right: position = %d, want 4", m.Position())
	}
	m = press(t, m, "n", "n", "n")
	if m.Position() != 8 {
		t.Errorf("after n x3: position = %d, want 8", m.Position())
	}
	m = press(t, m, "left", "p")
	if m.Position() != 0 {
		t.Errorf("after left, p: position = %d, want 0", m.Position())
	}
}

func TestHideShow(t *testing.T) {
	m := newTestModel(t, "abcdefghijkl", 4)

	m = press(t, m, "h")
	if m.Visible() {
		t.Fatal("h should hide the reader")
	}
	if got := m.View(); got != hiddenStyle.Render(hiddenLine) {
		t.Errorf("hidden view = %q", got)
	}

	m = press(t, m, "right")
	if m.Position() != 0 {
		t.Errorf("navigation while hidden moved to %d", m.Position())
	}

	m = press(t, m, "s")
	if !m.Visible() {
		t.Fatal("s should show the reader")
	}

	m = press(t, m, " ")
	if m.Visible() {
		t.Error("space should toggle to hidden")
	}
	m = press(t, m, " ")
	if !m.Visible() {
		t.Error("space should toggle to visible")
	}
}

func TestViewShowsExcerpt(t *testing.T) {
	m := newTestModel(t, "abc\n\ndefgh", 6)

	got := m.View()
	if !strings.Contains(got, "abc def") {
		t.Errorf("view %q should contain collapsed excerpt", got)
	}
	if !strings.Contains(got, "[1/2]") {
		t.Errorf("view %q should contain page counter", got)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("view %q should be a single line", got)
	}

	m = press(t, m, "i")
	if !strings.Contains(m.View(), "进度: 0.00%") {
		t.Errorf("detail view %q should contain progress", m.View())
	}
}

func TestViewPlaceholder(t *testing.T) {
	r := reader.NewReader(10, "")
	r.Show()
	m := newModel(r, nil)
	if got := m.View(); !strings.Contains(got, "请先选择小说") {
		t.Errorf("view %q should contain placeholder", got)
	}

	// No document, no chapter picker.
	m = press(t, m, "c")
	if m.view != viewReading {
		t.Errorf("chapter picker opened without a document")
	}
}

func TestViewTruncatesToWidth(t *testing.T) {
	m := newTestModel(t, strings.Repeat("长", 200), 100)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	m = next.(model)

	if w := lipgloss.Width(m.View()); w > 30 {
		t.Errorf("view width = %d, want <= 30", w)
	}
}

func TestChapterPicker(t *testing.T) {
	m := newTestModel(t, novel, 4)
	m.Hide()

	m = press(t, m, "c")
	if m.view != viewChapters {
		t.Fatalf("c should open the chapter picker")
	}
	if n := len(m.chapters.Items()); n != 2 {
		t.Fatalf("picker has %d items, want 2", n)
	}

	m.chapters.Select(1)
	m = press(t, m, "enter")
	if m.view != viewReading {
		t.Fatalf("enter should close the picker")
	}
	if !m.Visible() {
		t.Error("jumping to a chapter should show the reader")
	}
	if got := m.Render().Text; !strings.HasPrefix(got, "城门") {
		t.Errorf("after jump excerpt = %q, want chapter two text", got)
	}
}

func TestChapterPickerCancel(t *testing.T) {
	m := newTestModel(t, novel, 4)
	m = press(t, m, "right")
	pos := m.Position()

	m = press(t, m, "c", "esc")
	if m.view != viewReading {
		t.Fatalf("esc should close the picker")
	}
	if m.Position() != pos {
		t.Errorf("cancel moved position from %d to %d", pos, m.Position())
	}
}

func TestFilePickerOpenCancel(t *testing.T) {
	m := newTestModel(t, novel, 4)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	m = next.(model)
	if m.view != viewFiles {
		t.Fatalf("o should open the file picker")
	}
	if cmd == nil {
		t.Error("file picker should start reading the directory")
	}

	m = press(t, m, "q")
	if m.view != viewReading {
		t.Errorf("q should cancel the file picker")
	}
}

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	store, err := state.NewStateStore()
	if err != nil {
		t.Fatalf("NewStateStore: %v", err)
	}
	path := filepath.Join(tmpDir, "novel.txt")
	os.WriteFile(path, []byte(novel), 0644)

	m := newModel(reader.NewReader(4, ""), store)
	m.open(path)

	if !m.Loaded() || !m.Visible() {
		t.Fatal("open should load and show the document")
	}
	if got := store.LastFile(); got != path {
		t.Errorf("last file = %q, want %q", got, path)
	}

	prev := m.Document()
	m.open(filepath.Join(tmpDir, "missing.txt"))
	if m.Document() != prev {
		t.Error("failed open should keep the current document")
	}
	if got := store.LastFile(); got != path {
		t.Errorf("failed open changed last file to %q", got)
	}
}

func TestConfigMsg(t *testing.T) {
	m := newTestModel(t, "# One\nalpha\n# Two\nbeta", 4)
	m = press(t, m, "right")

	next, cmd := m.Update(configMsg(config.Config{PageSize: 2, HeadingPattern: reader.DefaultHeadingPattern}))
	m = next.(model)
	if cmd != nil {
		t.Error("no config channel, expected nil cmd")
	}
	if m.PageSize() != 2 || m.Position() != 4 {
		t.Errorf("page size change: size=%d pos=%d, want 2 and 4", m.PageSize(), m.Position())
	}

	next, _ = m.Update(configMsg(config.Config{PageSize: 2, HeadingPattern: `^#\s+.+$`}))
	m = next.(model)
	if n := len(m.Document().Chapters); n != 2 {
		t.Errorf("pattern change: %d chapters, want 2", n)
	}
	if m.Position() != 0 {
		t.Errorf("pattern change should reset position, got %d", m.Position())
	}

	next, _ = m.Update(configMsg(config.Config{PageSize: -1, HeadingPattern: `^#\s+.+$`}))
	m = next.(model)
	if m.PageSize() != 2 {
		t.Errorf("invalid page size applied: %d", m.PageSize())
	}
}

func TestWaitForConfig(t *testing.T) {
	if waitForConfig(nil) != nil {
		t.Error("nil channel should give nil cmd")
	}

	ch := make(chan config.Config, 1)
	ch <- config.Config{PageSize: 7}
	msg := waitForConfig(ch)()
	if got, ok := msg.(configMsg); !ok || got.PageSize != 7 {
		t.Errorf("got %#v", msg)
	}

	close(ch)
	if msg := waitForConfig(ch)(); msg != nil {
		t.Errorf("closed channel should give nil msg, got %#v", msg)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, novel, 4)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(model)
	if !m.quitting || cmd == nil {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("quitting view should be empty")
	}
}

func TestConfigMsgKeepsCommandLineOverrides(t *testing.T) {
	r := reader.NewReader(4, `^Chapter \d+$`)
	if err := r.Load("Chapter 1\nabcdefgh\nChapter 2\nijklmnop"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.Show()
	m := newModel(r, nil)
	m.overrides = config.Overrides{PageSize: 4, HeadingPattern: `^Chapter \d+$`}
	m = press(t, m, "right", "right")

	before := m.Position()
	if before != 8 {
		t.Fatalf("position = %d, want 8", before)
	}

	// A config file that only changes the log level.
	cfg := config.Default()
	cfg.LogLevel = "debug"
	next, _ := m.Update(configMsg(cfg))
	m = next.(model)

	if m.PageSize() != 4 {
		t.Errorf("page size = %d, want the command-line 4", m.PageSize())
	}
	if m.HeadingPattern() != `^Chapter \d+$` {
		t.Errorf("heading pattern = %q, want the command-line pattern", m.HeadingPattern())
	}
	if n := len(m.Document().Chapters); n != 2 {
		t.Errorf("chapters = %d, want 2", n)
	}
	if m.Position() != before {
		t.Errorf("position = %d, want %d", m.Position(), before)
	}
}

func TestUsageListsBoundKeys(t *testing.T) {
	t.Cleanup(func() { flag.CommandLine.SetOutput(nil) })

	var out strings.Builder
	printUsage(&out)
	usage := out.String()

	for _, b := range []key.Binding{keys.Chapters, keys.Open, keys.Detail, keys.Quit} {
		k := b.Help().Key
		if !strings.Contains(usage, "\n  "+k+" ") {
			t.Errorf("usage does not list key %q:\n%s", k, usage)
		}
		if upper := strings.ToUpper(k); upper != k && strings.Contains(usage, "\n  "+upper+" ") {
			t.Errorf("usage lists %q but the binding is %q", upper, k)
		}
	}
}
