//go:build !gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/moyu/internal/config"
	"github.com/metcalfc/moyu/internal/logging"
	"github.com/metcalfc/moyu/internal/reader"
	"github.com/metcalfc/moyu/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// hiddenLine is what the status line shows while the reader is hidden.
const hiddenLine = "-- NORMAL --"

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BBBBBB")).
			Padding(0, 1)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")).
			Padding(0, 1)

	hiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Bold(true)

	pickerTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Show     key.Binding
	Hide     key.Binding
	Toggle   key.Binding
	Detail   key.Binding
	Chapters key.Binding
	Open     key.Binding
	Select   key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Toggle, k.Chapters, k.Open, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Show, k.Hide, k.Detail}}
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("right", "n", "]"), key.WithHelp("→/n", "next")),
	Prev:     key.NewBinding(key.WithKeys("left", "p", "["), key.WithHelp("←/p", "prev")),
	Show:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "show")),
	Hide:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "show/hide")),
	Detail:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "details")),
	Chapters: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chapters")),
	Open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
	Select:   key.NewBinding(key.WithKeys("enter")),
	Cancel:   key.NewBinding(key.WithKeys("esc", "q")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type view int

const (
	viewReading view = iota
	viewChapters
	viewFiles
)

type model struct {
	*reader.Reader
	store     *state.StateStore
	configs   <-chan config.Config
	overrides config.Overrides
	view      view
	chapters  list.Model
	files     filepicker.Model
	help      help.Model
	detail    bool
	quitting  bool
	width     int
	height    int
}

// configMsg carries a reloaded config file into the update loop.
type configMsg config.Config

func waitForConfig(ch <-chan config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg(cfg)
	}
}

func (m model) Init() tea.Cmd {
	return waitForConfig(m.configs)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		switch m.view {
		case viewChapters:
			m.chapters.SetSize(msg.Width, pickerHeight(msg.Height))
		case viewFiles:
			var cmd tea.Cmd
			m.files, cmd = m.files.Update(msg)
			return m, cmd
		}
		return m, nil

	case configMsg:
		m.applyConfig(config.Config(msg))
		if m.view == viewChapters {
			m.chapters.SetItems(chapterListItems(m.ChapterItems()))
		}
		return m, waitForConfig(m.configs)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.view {
	case viewChapters:
		return m.updateChapters(msg)
	case viewFiles:
		return m.updateFiles(msg)
	}
	return m.updateReading(msg)
}

func (m model) updateReading(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(k, keys.Next):
		m.Advance()
	case key.Matches(k, keys.Prev):
		m.Retreat()
	case key.Matches(k, keys.Show):
		m.Show()
	case key.Matches(k, keys.Hide):
		m.Hide()
	case key.Matches(k, keys.Toggle):
		if m.Visible() {
			m.Hide()
		} else {
			m.Show()
		}
	case key.Matches(k, keys.Detail):
		m.detail = !m.detail
	case key.Matches(k, keys.Chapters):
		if !m.Loaded() {
			return m, nil
		}
		m.chapters = newChapterList(m.ChapterItems(), m.width, m.height)
		m.chapters.Select(max(0, m.CurrentChapter()))
		m.view = viewChapters
	case key.Matches(k, keys.Open):
		m.files = newFilePicker(m.startDir())
		m.files, _ = m.files.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.view = viewFiles
		return m, m.files.Init()
	case key.Matches(k, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateChapters(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && m.chapters.FilterState() != list.Filtering {
		switch {
		case key.Matches(k, keys.Select):
			if it, ok := m.chapters.SelectedItem().(chapterItem); ok {
				m.JumpToChapter(it.Index)
			}
			m.view = viewReading
			return m, nil
		case key.Matches(k, keys.Cancel) && m.chapters.FilterState() == list.Unfiltered:
			m.view = viewReading
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.chapters, cmd = m.chapters.Update(msg)
	return m, cmd
}

func (m model) updateFiles(msg tea.Msg) (tea.Model, tea.Cmd) {
	// esc walks up a directory inside the picker, so only q cancels.
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "q" {
		m.view = viewReading
		return m, nil
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	if ok, path := m.files.DidSelectFile(msg); ok {
		m.open(path)
		m.view = viewReading
		return m, nil
	}
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case viewChapters:
		return m.chapters.View()
	case viewFiles:
		return pickerTitleStyle.Render("Open a novel (enter: open, q: cancel)") + "\n" + m.files.View()
	}

	if !m.Visible() {
		return hiddenStyle.Render(hiddenLine)
	}

	e := m.Render()
	line := statusStyle.Render(truncate("📖 "+e.StatusLine(), m.width-2))
	if m.detail {
		if d := e.Detail(); d != "" {
			line += "\n" + detailStyle.Render(truncate(d, m.width-2))
		}
		line += "\n" + m.help.View(keys)
	}
	return line
}

// open loads path, shows the reader and remembers the file for next time.
// Read failures keep the current document.
func (m model) open(path string) {
	if err := m.LoadFile(path); err != nil {
		if !errors.Is(err, reader.ErrBadPattern) {
			logging.Warnf("could not load %s: %v", path, err)
			return
		}
		logging.Warnf("chapter detection for %s: %v", path, err)
	}
	m.Show()

	doc := m.Document()
	logging.Infof("loaded %s: %d chars, %d chapters", path, doc.Len(), len(doc.Chapters))

	if m.store != nil {
		if err := m.store.SetLastFile(path); err != nil {
			logging.Warnf("save last file: %v", err)
		}
	}
}

// applyConfig applies a reloaded config with the command-line overrides on top.
func (m model) applyConfig(cfg config.Config) {
	cfg = m.overrides.Apply(cfg)
	logging.SetLevel(cfg.LogLevel)
	if err := m.SetPageSize(cfg.PageSize); err != nil {
		logging.Warnf("page size: %v", err)
	}
	if err := m.SetHeadingPattern(cfg.HeadingPattern); err != nil {
		logging.Warnf("heading pattern: %v", err)
	}
}

func (m model) startDir() string {
	if doc := m.Document(); doc != nil && doc.Path != "" {
		return filepath.Dir(doc.Path)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

type chapterItem struct {
	reader.ChapterItem
}

func (i chapterItem) Title() string       { return i.Name }
func (i chapterItem) Description() string { return fmt.Sprintf("page %d · %d%%", i.Page, i.Percent) }
func (i chapterItem) FilterValue() string { return i.Name }

func chapterListItems(items []reader.ChapterItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = chapterItem{it}
	}
	return out
}

func newChapterList(items []reader.ChapterItem, width, height int) list.Model {
	l := list.New(chapterListItems(items), list.NewDefaultDelegate(), width, pickerHeight(height))
	l.Title = "跳转到章节"
	l.DisableQuitKeybindings()
	return l
}

func newFilePicker(dir string) filepicker.Model {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = reader.SupportedExtensions()
	return fp
}

func pickerHeight(h int) int {
	return max(h-1, 8)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func newModel(r *reader.Reader, store *state.StateStore) model {
	return model{
		Reader: r,
		store:  store,
		help:   help.New(),
		width:  80,
		height: 24,
	}
}

// printUsage writes the help text, with the flag defaults, to w.
func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Moyu - Status Line Novel Reader\n\n")
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  moyu [options] [file]\n\n")
	fmt.Fprintf(w, "Options:\n")
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  moyu novel.txt            Read a novel\n")
	fmt.Fprintf(w, "  moyu -p 30 novel.epub     Read 30 characters at a time\n")
	fmt.Fprintf(w, "  cat novel.txt | moyu      Read from stdin\n")
	fmt.Fprintf(w, "  moyu                      Reopen the last file\n")
	fmt.Fprintf(w, "\nControls:\n")
	fmt.Fprintf(w, "  →/n ←/p  Next/previous page\n")
	fmt.Fprintf(w, "  SPACE    Show/hide (s/h to force)\n")
	fmt.Fprintf(w, "  c        Jump to chapter\n")
	fmt.Fprintf(w, "  o        Open file\n")
	fmt.Fprintf(w, "  i        Chapter and progress details\n")
	fmt.Fprintf(w, "  q        Quit\n")
	fmt.Fprintf(w, "\nSupported formats: plain text, %v\n", reader.SupportedFormats())
}

func main() {
	pageSize := flag.Int("p", 0, "Characters per page (default: from config, 60)")
	pattern := flag.String("pattern", "", "Chapter heading regular expression (default: from config)")
	configPath := flag.String("config", config.Path(), "Config file")
	logPath := flag.String("log", filepath.Join(state.Dir(), "moyu.log"), "Log file")
	fresh := flag.Bool("fresh", false, "Do not reopen the last file")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("moyu %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	closeLog, err := logging.Init(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	} else {
		defer closeLog()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Warnf("load config: %v", err)
	}
	overrides := config.Overrides{PageSize: *pageSize, HeadingPattern: *pattern}
	cfg = overrides.Apply(cfg)
	logging.SetLevel(cfg.LogLevel)

	store, err := state.NewStateStore()
	if err != nil {
		logging.Warnf("state store: %v", err)
		store = nil
	}

	m := newModel(reader.NewReader(cfg.PageSize, cfg.HeadingPattern), store)
	m.overrides = overrides
	var opts []tea.ProgramOption

	if flag.NArg() > 0 {
		filename := flag.Arg(0)
		if _, err := os.Stat(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read file '%s': %v\n", filename, err)
			os.Exit(1)
		}
		m.open(filename)
	} else if stat, _ := os.Stdin.Stat(); (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		text, err := reader.DecodeText(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		if err := m.Load(text); err != nil {
			logging.Warnf("chapter detection for stdin: %v", err)
		}
		m.Show()
		opts = append(opts, tea.WithInputTTY())
	} else if !*fresh && store != nil {
		if last := store.LastFile(); last != "" {
			m.open(last)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if ch, err := config.Watch(ctx, *configPath); err != nil {
		logging.Warnf("watch config: %v", err)
	} else {
		m.configs = ch
	}

	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
