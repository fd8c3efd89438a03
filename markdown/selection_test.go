package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionSetHeadForward(t *testing.T) {
	sel := Selection{Start: 5, End: 5}
	sel.SetHead(9)
	assert.Equal(t, Selection{Start: 5, End: 9}, sel)
}

func TestSelectionSetHeadBackward(t *testing.T) {
	sel := Selection{Start: 5, End: 5}
	sel.SetHead(2)
	assert.Equal(t, Selection{Start: 2, End: 5, Reversed: true}, sel)
}

func TestSelectionHeadCrossesTail(t *testing.T) {
	sel := Selection{Start: 5, End: 5}
	sel.SetHead(9)
	sel.SetHead(2)
	assert.Equal(t, Selection{Start: 2, End: 5, Reversed: true}, sel)

	sel.SetHead(8)
	assert.Equal(t, Selection{Start: 5, End: 8}, sel)
}

func TestSelectionTail(t *testing.T) {
	sel := Selection{Start: 2, End: 5}
	assert.Equal(t, 2, sel.Tail())

	sel.Reversed = true
	assert.Equal(t, 5, sel.Tail())
}

func TestSelectionIsEmpty(t *testing.T) {
	assert.True(t, (&Selection{Start: 3, End: 3}).IsEmpty())
	assert.False(t, (&Selection{Start: 3, End: 4}).IsEmpty())
}
