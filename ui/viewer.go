// Package ui implements the interactive terminal viewer: scrolling, mouse
// text selection, link activation, and clipboard integration on top of the
// rendered document.
package ui

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/mattn/go-runewidth"

	"github.com/sheen-md/sheen/highlight"
	"github.com/sheen-md/sheen/markdown"
	"github.com/sheen-md/sheen/render"
)

const (
	statusBarHeight      = 1
	doubleClickThreshold = 500 * time.Millisecond
	autoscrollMargin     = 3
	statusMessageTimeout = 2 * time.Second
)

type parsedMsg struct {
	res markdown.ParseResult
}

// FileChangedMsg reports that the watched file's contents changed on disk.
// Sent from the watcher goroutine via Program.Send.
type FileChangedMsg struct {
	Source string
}

// AppendMsg adds text to the end of the document, as when following a file
// that is still being written.
type AppendMsg struct {
	Text string
}

type statusMessageTimeoutMsg struct{}

type editorFinishedMsg struct{ err error }

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// Model is the viewer's bubbletea model.
type Model struct {
	cfg Config
	doc *markdown.Document

	styles   render.Styles
	rendered *render.Rendered

	sel         markdown.Selection
	selecting   bool
	pressedLink *render.Link
	hoveredLink *render.Link

	clickCount    int
	lastClickTime time.Time
	lastClickPos  render.Position
	lastMousePos  render.Position

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	statusMessage      string
	statusMessageTimer *time.Timer

	err error
}

// NewModel creates a viewer for the given source text.
func NewModel(cfg Config, source string) Model {
	var doc *markdown.Document
	if cfg.TextOnly {
		doc = markdown.NewTextOnly(source)
	} else {
		doc = markdown.New(source, highlight.NewRegistry(), cfg.FallbackLanguage)
	}
	return Model{
		cfg:    cfg,
		doc:    doc,
		styles: render.AutoStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return parseCmd(m.doc.StartParse())
}

// parseCmd wraps a parse task as a command. A nil task means no parse is
// needed right now.
func parseCmd(fn markdown.ParseFunc) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		return parsedMsg{res: fn(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-statusBarHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - statusBarHeight
		}
		m.rebuild()

	case parsedMsg:
		cmds = append(cmds, parseCmd(m.doc.FinishParse(msg.res)))
		m.rebuild()

	case FileChangedMsg:
		m.clearSelection()
		cmds = append(cmds, parseCmd(m.doc.Reset(msg.Source)))
		cmds = append(cmds, m.showStatusMessage("Reloaded"))

	case AppendMsg:
		cmds = append(cmds, parseCmd(m.doc.Append(msg.Text)))

	case tea.KeyMsg:
		model, cmd := m.handleKey(msg)
		return model, cmd

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg)...)

	case statusMessageTimeoutMsg:
		m.statusMessage = ""

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
			cmds = append(cmds, m.showStatusMessage("Editor failed"))
		}

	case errMsg:
		m.err = msg.err
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "home", "g":
		m.viewport.GotoTop()

	case "end", "G":
		m.viewport.GotoBottom()

	case "c":
		if cmd := m.copySelection(); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case "b":
		if cmd := m.copyCodeBlock(); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case "e":
		if m.cfg.Path != "" {
			c, err := editor.Cmd("Sheen", m.cfg.Path)
			if err != nil {
				m.err = err
				break
			}
			cmds = append(cmds, tea.ExecProcess(c, func(err error) tea.Msg {
				return editorFinishedMsg{err: err}
			}))
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleMouse(msg tea.MouseMsg) []tea.Cmd {
	var cmds []tea.Cmd
	pos := m.contentPosition(msg)
	m.lastMousePos = pos

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.mouseDown(pos)

	case msg.Action == tea.MouseActionMotion:
		cmds = append(cmds, m.mouseMove(msg, pos)...)

	case msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft:
		cmds = append(cmds, m.mouseUp(pos)...)
	}

	return cmds
}

// contentPosition translates a viewport-relative mouse event into document
// cell coordinates.
func (m *Model) contentPosition(msg tea.MouseMsg) render.Position {
	return render.Position{X: msg.X, Y: msg.Y + m.viewport.YOffset}
}

func (m *Model) mouseDown(pos render.Position) {
	if m.rendered == nil {
		return
	}
	text := m.rendered.Text()

	now := time.Now()
	if now.Sub(m.lastClickTime) < doubleClickThreshold && pos == m.lastClickPos {
		m.clickCount++
	} else {
		m.clickCount = 1
	}
	m.lastClickTime = now
	m.lastClickPos = pos

	// Pressing a link arms it instead of starting a selection, whatever the
	// click count; the link opens on release if the pointer stays put.
	if link := text.LinkForPosition(pos); link != nil {
		m.pressedLink = link
		return
	}

	sourceIndex, onText := text.SourceIndexForPosition(pos)
	if !onText && pos.Y >= m.rendered.Height() {
		// Click below the document clears the selection.
		m.clearSelection()
		m.repaint()
		return
	}

	switch m.clickCount {
	case 1:
		m.sel = markdown.Selection{Start: sourceIndex, End: sourceIndex, Pending: true}
	case 2:
		r := text.SurroundingWordRange(sourceIndex)
		m.sel = markdown.Selection{Start: r.Start, End: r.End, Pending: true}
	default:
		r := text.SurroundingLineRange(sourceIndex)
		m.sel = markdown.Selection{Start: r.Start, End: r.End, Pending: true}
	}
	m.selecting = true
	m.repaint()
}

func (m *Model) mouseMove(msg tea.MouseMsg, pos render.Position) []tea.Cmd {
	if m.rendered == nil {
		return nil
	}
	text := m.rendered.Text()

	if msg.Button == tea.MouseButtonLeft && m.selecting {
		sourceIndex, _ := text.SourceIndexForPosition(pos)
		m.sel.SetHead(sourceIndex)
		m.autoscroll(msg.Y)
		m.repaint()
		return nil
	}

	if msg.Button == tea.MouseButtonLeft && m.pressedLink != nil {
		// Dragging off an armed link cancels the pending activation.
		if link := text.LinkForPosition(pos); link == nil || *link != *m.pressedLink {
			m.pressedLink = nil
		}
		return nil
	}

	// Plain motion updates link hover.
	hovered := text.LinkForPosition(pos)
	if !sameLink(hovered, m.hoveredLink) {
		m.hoveredLink = hovered
		m.repaint()
	}
	return nil
}

func (m *Model) mouseUp(pos render.Position) []tea.Cmd {
	var cmds []tea.Cmd

	if m.pressedLink != nil {
		if m.rendered != nil {
			if link := m.rendered.Text().LinkForPosition(pos); link != nil && *link == *m.pressedLink {
				cmds = append(cmds, openURLCmd(link.Destination))
			}
		}
		m.pressedLink = nil
	}

	if m.selecting {
		m.selecting = false
		m.sel.Pending = false
		m.mirrorPrimarySelection()
		m.repaint()
	}

	return cmds
}

// autoscroll nudges the viewport while a drag approaches its edges.
func (m *Model) autoscroll(viewY int) {
	switch {
	case viewY < autoscrollMargin:
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	case viewY >= m.viewport.Height-autoscrollMargin:
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	}
}

func sameLink(a, b *render.Link) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *Model) clearSelection() {
	m.sel = markdown.Selection{}
	m.selecting = false
	m.pressedLink = nil
}

// rebuild lays the parsed document out for the current width and repaints.
func (m *Model) rebuild() {
	if !m.ready {
		return
	}
	width := m.viewport.Width
	if m.cfg.MaxWidth > 0 && int(m.cfg.MaxWidth) < width {
		width = int(m.cfg.MaxWidth)
	}
	m.rendered = render.Build(m.doc.Parsed(), m.styles, width)
	m.repaint()
}

func (m *Model) repaint() {
	if m.rendered == nil {
		return
	}
	offset := m.viewport.YOffset
	m.viewport.SetContent(m.rendered.View(m.sel, m.hoveredLink))
	m.viewport.SetYOffset(offset)
}

func (m *Model) selectedText() string {
	if m.rendered == nil || m.sel.IsEmpty() {
		return ""
	}
	return m.rendered.Text().TextForRange(markdown.Range{Start: m.sel.Start, End: m.sel.End})
}

// copySelection copies the selected text to the clipboard. With no selection
// it does nothing.
func (m *Model) copySelection() tea.Cmd {
	text := m.selectedText()
	if text == "" {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		log.Debug("clipboard write failed", "err", err)
		return nil
	}
	return m.showStatusMessage("Copied")
}

// copyCodeBlock copies the fenced code block under the pointer, fences
// stripped.
func (m *Model) copyCodeBlock() tea.Cmd {
	if m.rendered == nil {
		return nil
	}
	r, ok := m.rendered.Text().CodeBlockForPosition(m.lastMousePos)
	if !ok {
		return nil
	}
	source := m.doc.Parsed().Source
	if r.End > len(source) {
		r.End = len(source)
	}
	code := markdown.WithoutFences(source[r.Start:r.End])
	if err := clipboard.WriteAll(code); err != nil {
		log.Debug("clipboard write failed", "err", err)
		return nil
	}
	return m.showStatusMessage("Copied code block")
}

// mirrorPrimarySelection mirrors the finished selection into the primary
// clipboard on X11-style systems.
func (m *Model) mirrorPrimarySelection() {
	if runtime.GOOS != "linux" {
		return
	}
	text := m.selectedText()
	if text == "" {
		return
	}
	clipboard.Primary = true
	err := clipboard.WriteAll(text)
	clipboard.Primary = false
	if err != nil {
		log.Debug("primary selection write failed", "err", err)
	}
}

func (m *Model) showStatusMessage(message string) tea.Cmd {
	m.statusMessage = message
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	timer := m.statusMessageTimer
	return func() tea.Msg {
		<-timer.C
		return statusMessageTimeoutMsg{}
	}
}

func openURLCmd(url string) tea.Cmd {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	return func() tea.Msg {
		if err := c.Start(); err != nil {
			return errMsg{fmt.Errorf("opening %s: %w", url, err)}
		}
		return nil
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.statusBarView(&b)
	return b.String()
}

func (m Model) statusBarView(b *strings.Builder) {
	showMessage := m.statusMessage != ""

	logo := logoStyle.Render(" Sheen ")

	percent := math.Max(0, math.Min(1, m.viewport.ScrollPercent()))
	scrollPercent := scrollPosStyle.Render(fmt.Sprintf(" %3.f%% ", percent*100))

	helpNote := helpNoteStyle.Render(" c copy • b copy code • q quit ")

	var note string
	if showMessage {
		note = m.statusMessage
	} else {
		note = m.cfg.Path
		if note == "" {
			note = "(stdin)"
		}
		if m.doc.Parsing() {
			note += " …"
		}
	}
	noteWidth := max(0, m.width-
		lipgloss.Width(logo)-
		lipgloss.Width(scrollPercent)-
		lipgloss.Width(helpNote))
	note = runewidth.Truncate(" "+note+" ", noteWidth, "…")
	note += strings.Repeat(" ", max(0, noteWidth-runewidth.StringWidth(note)))
	if showMessage {
		note = statusBarMessageStyle.Render(note)
	} else {
		note = statusBarStyle.Render(note)
	}

	fmt.Fprintf(b, "%s%s%s%s", logo, note, scrollPercent, helpNote)
}
