//go:build gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

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

// hiddenLine is what the status label shows while the reader is hidden.
const hiddenLine = "Ready"

type model struct {
	*reader.Reader
	store     *state.StateStore
	overrides config.Overrides

	window      fyne.Window
	statusLabel *widget.Label
	detailLabel *widget.Label
}

func newModel(r *reader.Reader, store *state.StateStore) *model {
	return &model{Reader: r, store: store}
}

// updateDisplay pushes the current excerpt to the labels. Must run on the
// fyne goroutine.
func (m *model) updateDisplay() {
	if !m.Visible() {
		m.statusLabel.SetText(hiddenLine)
		m.detailLabel.SetText("")
		return
	}
	e := m.Render()
	m.statusLabel.SetText(e.StatusLine())
	m.detailLabel.SetText(e.Detail())
}

func (m *model) open(path string) {
	if err := m.LoadFile(path); err != nil {
		if !errors.Is(err, reader.ErrBadPattern) {
			logging.Warnf("could not load %s: %v", path, err)
			return
		}
		logging.Warnf("chapter detection for %s: %v", path, err)
	}
	m.Show()
	m.window.SetTitle("moyu - " + filepath.Base(path))

	if m.store != nil {
		if err := m.store.SetLastFile(path); err != nil {
			logging.Warnf("save last file: %v", err)
		}
	}
}

// applyConfig applies a reloaded config with the command-line overrides on top.
func (m *model) applyConfig(cfg config.Config) {
	cfg = m.overrides.Apply(cfg)
	logging.SetLevel(cfg.LogLevel)
	if err := m.SetPageSize(cfg.PageSize); err != nil {
		logging.Warnf("page size: %v", err)
	}
	if err := m.SetHeadingPattern(cfg.HeadingPattern); err != nil {
		logging.Warnf("heading pattern: %v", err)
	}
}

func (m *model) showFileDialog() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			logging.Warnf("file dialog: %v", err)
			return
		}
		if rc == nil {
			// cancelled
			return
		}
		path := rc.URI().Path()
		rc.Close()
		m.open(path)
		m.updateDisplay()
	}, m.window)
	fd.SetFilter(storage.NewExtensionFileFilter(reader.SupportedExtensions()))
	if doc := m.Document(); doc != nil && doc.Path != "" {
		if dir, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(doc.Path))); err == nil {
			fd.SetLocation(dir)
		}
	}
	fd.Show()
}

func (m *model) showChapterDialog() {
	items := m.ChapterItems()
	if len(items) == 0 {
		return
	}

	var d dialog.Dialog
	list := widget.NewList(
		func() int { return len(items) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil, widget.NewLabel("page"), widget.NewLabel("Title"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			c := obj.(*fyne.Container)
			c.Objects[0].(*widget.Label).SetText(items[id].Name)
			c.Objects[1].(*widget.Label).SetText(fmt.Sprintf("p.%d  %d%%", items[id].Page, items[id].Percent))
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		m.JumpToChapter(items[id].Index)
		m.updateDisplay()
		d.Hide()
	}
	if cur := m.CurrentChapter(); cur >= 0 {
		list.ScrollTo(cur)
	}

	d = dialog.NewCustom("跳转到章节", "Cancel", list, m.window)
	d.Resize(fyne.NewSize(420, 480))
	d.Show()
}

func main() {
	pageSize := flag.Int("p", 0, "Characters per page (default: from config, 60)")
	pattern := flag.String("pattern", "", "Chapter heading regular expression (default: from config)")
	configPath := flag.String("config", config.Path(), "Config file")
	logPath := flag.String("log", filepath.Join(state.Dir(), "moyu.log"), "Log file")
	fresh := flag.Bool("fresh", false, "Do not reopen the last file")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Moyu - Status Line Novel Reader (GUI)\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  moyu [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
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

	a := app.New()
	w := a.NewWindow("moyu")
	m.window = w

	m.statusLabel = widget.NewLabel(hiddenLine)
	m.statusLabel.Truncation = fyne.TextTruncateEllipsis
	m.detailLabel = widget.NewLabel("")
	m.detailLabel.Importance = widget.LowImportance
	m.detailLabel.Truncation = fyne.TextTruncateEllipsis

	switch {
	case flag.NArg() > 0:
		m.open(flag.Arg(0))
	case !*fresh && store != nil:
		if last := store.LastFile(); last != "" {
			m.open(last)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if ch, err := config.Watch(ctx, *configPath); err != nil {
		logging.Warnf("watch config: %v", err)
	} else {
		go func() {
			for cfg := range ch {
				cfg := cfg
				fyne.Do(func() {
					m.applyConfig(cfg)
					m.updateDisplay()
				})
			}
		}()
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyRight, fyne.KeyN:
			m.Advance()
		case fyne.KeyLeft, fyne.KeyP:
			m.Retreat()
		case fyne.KeySpace:
			if m.Visible() {
				m.Hide()
			} else {
				m.Show()
			}
		case fyne.KeyS:
			m.Show()
		case fyne.KeyH, fyne.KeyEscape:
			m.Hide()
		case fyne.KeyC:
			m.showChapterDialog()
		case fyne.KeyO:
			m.showFileDialog()
		case fyne.KeyQ:
			a.Quit()
			return
		}
		m.updateDisplay()
	})

	w.SetContent(container.NewVBox(m.statusLabel, m.detailLabel))
	w.Resize(fyne.NewSize(720, 80))
	m.updateDisplay()
	w.ShowAndRun()
}
