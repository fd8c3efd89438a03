package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheen-md/sheen/markdown"
	"github.com/sheen-md/sheen/render"
)

const scenario = "Hello *world*, how are [you](https://example.com)?"

func newTestModel(t *testing.T, source string) Model {
	t.Helper()
	m := NewModel(Config{}, source)

	cmd := m.Init()
	require.NotNil(t, cmd)
	parsed := cmd()

	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = model.(Model)
	model, _ = m.Update(parsed)
	m = model.(Model)

	require.NotNil(t, m.rendered)
	return m
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
}

func drag(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func TestClickStartsPendingSelection(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(0, 0))
	assert.True(t, m.selecting)
	assert.True(t, m.sel.Pending)
	assert.Equal(t, 0, m.sel.Start)
	assert.Equal(t, 0, m.sel.End)
}

func TestDragExtendsSelection(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(0, 0))
	m.handleMouse(drag(4, 0))
	assert.Equal(t, 0, m.sel.Start)
	assert.Equal(t, 4, m.sel.End)

	m.handleMouse(release(4, 0))
	assert.False(t, m.selecting)
	assert.False(t, m.sel.Pending)
	assert.Equal(t, "Hell", m.selectedText())
}

func TestDragBackwardReversesSelection(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(4, 0))
	m.handleMouse(drag(0, 0))
	assert.Equal(t, 0, m.sel.Start)
	assert.Equal(t, 4, m.sel.End)
	assert.True(t, m.sel.Reversed)
}

func TestDoubleClickSelectsWord(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(1, 0))
	m.handleMouse(release(1, 0))
	m.handleMouse(press(1, 0))
	assert.Equal(t, 2, m.clickCount)
	assert.Equal(t, 0, m.sel.Start)
	assert.Equal(t, "Hello", m.selectedText())
}

func TestTripleClickSelectsClickedRow(t *testing.T) {
	m := newTestModel(t, scenario)

	for i := 0; i < 2; i++ {
		m.handleMouse(press(8, 0))
		m.handleMouse(release(8, 0))
	}
	m.handleMouse(press(8, 0))
	assert.Equal(t, 3, m.clickCount)
	assert.Equal(t, 0, m.sel.Start)
	assert.Equal(t, len(scenario), m.sel.End)
}

func TestTripleClickOnWrappedRowSelectsOnlyThatRow(t *testing.T) {
	// Two visual rows from one paragraph; triple-click must select the
	// clicked row, not the whole paragraph.
	m := NewModel(Config{MaxWidth: 11}, "alpha beta gamma")
	cmd := m.Init()
	require.NotNil(t, cmd)
	parsed := cmd()
	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = model.(Model)
	model, _ = m.Update(parsed)
	m = model.(Model)

	for i := 0; i < 2; i++ {
		m.handleMouse(press(1, 1))
		m.handleMouse(release(1, 1))
	}
	m.handleMouse(press(1, 1))

	assert.Equal(t, 11, m.sel.Start)
	assert.Equal(t, 16, m.sel.End)
}

func TestClickBelowDocumentClearsSelection(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(0, 0))
	m.handleMouse(drag(4, 0))
	m.handleMouse(release(4, 0))
	require.False(t, m.sel.IsEmpty())

	m.handleMouse(press(0, 10))
	assert.True(t, m.sel.IsEmpty())
	assert.False(t, m.selecting)
}

func TestClickOnLinkArmsWithoutSelecting(t *testing.T) {
	m := newTestModel(t, scenario)

	// Column 21 is inside the rendered link text "you".
	m.handleMouse(press(21, 0))
	require.NotNil(t, m.pressedLink)
	assert.Equal(t, "https://example.com", m.pressedLink.Destination)
	assert.False(t, m.selecting)

	cmds := m.mouseUp(render.Position{X: 21, Y: 0})
	assert.Nil(t, m.pressedLink)
	assert.Len(t, cmds, 1)
}

func TestDoubleClickOnLinkArmsWithoutSelecting(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(21, 0))
	m.handleMouse(release(21, 0))
	m.handleMouse(press(21, 0))
	assert.Equal(t, 2, m.clickCount)
	require.NotNil(t, m.pressedLink)
	assert.Equal(t, "https://example.com", m.pressedLink.Destination)
	assert.True(t, m.sel.IsEmpty())
	assert.False(t, m.selecting)
}

func TestDragOffLinkCancelsActivation(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(press(21, 0))
	require.NotNil(t, m.pressedLink)

	m.handleMouse(drag(0, 0))
	assert.Nil(t, m.pressedLink)

	cmds := m.mouseUp(render.Position{X: 0, Y: 0})
	assert.Empty(t, cmds)
}

func TestHoverTracksLinks(t *testing.T) {
	m := newTestModel(t, scenario)

	m.handleMouse(tea.MouseMsg{X: 21, Y: 0, Action: tea.MouseActionMotion})
	require.NotNil(t, m.hoveredLink)

	m.handleMouse(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionMotion})
	assert.Nil(t, m.hoveredLink)
}

func TestCopyWithoutSelectionIsNoOp(t *testing.T) {
	m := newTestModel(t, scenario)
	assert.Nil(t, m.copySelection())
}

func TestFileChangeResetsDocument(t *testing.T) {
	m := newTestModel(t, scenario)

	model, cmd := m.Update(FileChangedMsg{Source: "# changed"})
	m = model.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "# changed", m.doc.Source())
}

func TestAppendMsgSchedulesParse(t *testing.T) {
	m := newTestModel(t, "hello")

	model, cmd := m.Update(AppendMsg{Text: " world"})
	m = model.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "hello world", m.doc.Source())
}

func TestSelectionSurvivesReparseOfSameText(t *testing.T) {
	m := newTestModel(t, "hello")

	m.handleMouse(press(0, 0))
	m.handleMouse(drag(4, 0))
	m.handleMouse(release(4, 0))
	require.Equal(t, markdown.Selection{Start: 0, End: 4}, m.sel)

	// Appending re-parses; offsets into the unchanged prefix stay valid.
	model, cmd := m.Update(AppendMsg{Text: " world"})
	m = model.(Model)
	require.NotNil(t, cmd)
	model, _ = m.Update(cmd())
	m = model.(Model)

	assert.Equal(t, "hell", m.selectedText())
}
