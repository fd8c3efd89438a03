package render

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/lipgloss"
)

// StylePrimitive is a partial text style. Nil fields inherit from the style
// below on the overlay stack.
type StylePrimitive struct {
	Color      *string
	Bold       *bool
	Italic     *bool
	Underline  *bool
	CrossedOut *bool
	Faint      *bool
}

// cascadeStyle overlays child on parent; set fields in child win.
func cascadeStyle(parent, child StylePrimitive) StylePrimitive {
	s := parent
	if child.Color != nil {
		s.Color = child.Color
	}
	if child.Bold != nil {
		s.Bold = child.Bold
	}
	if child.Italic != nil {
		s.Italic = child.Italic
	}
	if child.Underline != nil {
		s.Underline = child.Underline
	}
	if child.CrossedOut != nil {
		s.CrossedOut = child.CrossedOut
	}
	if child.Faint != nil {
		s.Faint = child.Faint
	}
	return s
}

func (p StylePrimitive) lipgloss() lipgloss.Style {
	s := lipgloss.NewStyle()
	if p.Color != nil {
		s = s.Foreground(lipgloss.Color(*p.Color))
	}
	if p.Bold != nil {
		s = s.Bold(*p.Bold)
	}
	if p.Italic != nil {
		s = s.Italic(*p.Italic)
	}
	if p.Underline != nil {
		s = s.Underline(*p.Underline)
	}
	if p.CrossedOut != nil {
		s = s.Strikethrough(*p.CrossedOut)
	}
	if p.Faint != nil {
		s = s.Faint(*p.Faint)
	}
	return s
}

// Styles configures the visual treatment of every rendered construct.
type Styles struct {
	Document      StylePrimitive
	H1            StylePrimitive
	H2            StylePrimitive
	H3            StylePrimitive
	H4            StylePrimitive
	H5            StylePrimitive
	H6            StylePrimitive
	InlineCode    StylePrimitive
	CodeBlock     StylePrimitive
	Blockquote    StylePrimitive
	Link          StylePrimitive
	Emphasis      StylePrimitive
	Strong        StylePrimitive
	Strikethrough StylePrimitive
	TableHead     StylePrimitive
	Rule          StylePrimitive

	Bullet          string
	QuotePrefix     string
	RuleGlyph       string
	ListIndent      int
	CodeBlockIndent int

	Selection lipgloss.Style

	// Syntax maps chroma token types to styles for highlighted code blocks.
	// Lookup falls back from the exact type to its sub-category and category.
	Syntax map[chroma.TokenType]StylePrimitive
}

func (s Styles) heading(level int) StylePrimitive {
	switch level {
	case 1:
		return s.H1
	case 2:
		return s.H2
	case 3:
		return s.H3
	case 4:
		return s.H4
	case 5:
		return s.H5
	default:
		return s.H6
	}
}

func (s Styles) syntax(t chroma.TokenType) (StylePrimitive, bool) {
	if p, ok := s.Syntax[t]; ok {
		return p, true
	}
	if p, ok := s.Syntax[t.SubCategory()]; ok {
		return p, true
	}
	if p, ok := s.Syntax[t.Category()]; ok {
		return p, true
	}
	return StylePrimitive{}, false
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

// DefaultStyles returns the standard color styles for dark terminals.
func DefaultStyles() Styles {
	return Styles{
		Document:      StylePrimitive{},
		H1:            StylePrimitive{Color: strptr("228"), Bold: boolptr(true)},
		H2:            StylePrimitive{Color: strptr("39"), Bold: boolptr(true)},
		H3:            StylePrimitive{Color: strptr("39"), Bold: boolptr(true)},
		H4:            StylePrimitive{Color: strptr("39")},
		H5:            StylePrimitive{Color: strptr("39")},
		H6:            StylePrimitive{Color: strptr("39")},
		InlineCode:    StylePrimitive{Color: strptr("203")},
		CodeBlock:     StylePrimitive{Color: strptr("251")},
		Blockquote:    StylePrimitive{Italic: boolptr(true), Faint: boolptr(true)},
		Link:          StylePrimitive{Color: strptr("30"), Underline: boolptr(true)},
		Emphasis:      StylePrimitive{Italic: boolptr(true)},
		Strong:        StylePrimitive{Bold: boolptr(true)},
		Strikethrough: StylePrimitive{CrossedOut: boolptr(true)},
		TableHead:     StylePrimitive{Bold: boolptr(true)},
		Rule:          StylePrimitive{Faint: boolptr(true)},

		Bullet:          "•",
		QuotePrefix:     "│ ",
		RuleGlyph:       "─",
		ListIndent:      2,
		CodeBlockIndent: 2,

		Selection: lipgloss.NewStyle().Background(lipgloss.Color("24")).Foreground(lipgloss.Color("231")),

		Syntax: map[chroma.TokenType]StylePrimitive{
			chroma.Keyword:       {Color: strptr("204")},
			chroma.Name:          {Color: strptr("251")},
			chroma.NameFunction:  {Color: strptr("42")},
			chroma.NameClass:     {Color: strptr("42")},
			chroma.NameBuiltin:   {Color: strptr("153")},
			chroma.Literal:       {Color: strptr("173")},
			chroma.LiteralString: {Color: strptr("150")},
			chroma.LiteralNumber: {Color: strptr("173")},
			chroma.Comment:       {Color: strptr("243"), Italic: boolptr(true)},
			chroma.Operator:      {Color: strptr("213")},
			chroma.Punctuation:   {Color: strptr("251")},
			chroma.Error:         {Color: strptr("203")},
		},
	}
}

// LightStyles returns the standard color styles for light terminals.
func LightStyles() Styles {
	s := DefaultStyles()
	s.H1 = StylePrimitive{Color: strptr("27"), Bold: boolptr(true)}
	s.H2 = StylePrimitive{Color: strptr("27"), Bold: boolptr(true)}
	s.H3 = StylePrimitive{Color: strptr("27"), Bold: boolptr(true)}
	s.H4 = StylePrimitive{Color: strptr("27")}
	s.H5 = StylePrimitive{Color: strptr("27")}
	s.H6 = StylePrimitive{Color: strptr("27")}
	s.InlineCode = StylePrimitive{Color: strptr("124")}
	s.CodeBlock = StylePrimitive{Color: strptr("235")}
	s.Link = StylePrimitive{Color: strptr("25"), Underline: boolptr(true)}
	s.Rule = StylePrimitive{Faint: boolptr(true)}
	s.Selection = lipgloss.NewStyle().Background(lipgloss.Color("153")).Foreground(lipgloss.Color("235"))
	s.Syntax = map[chroma.TokenType]StylePrimitive{
		chroma.Keyword:       {Color: strptr("126")},
		chroma.Name:          {Color: strptr("235")},
		chroma.NameFunction:  {Color: strptr("29")},
		chroma.NameClass:     {Color: strptr("29")},
		chroma.NameBuiltin:   {Color: strptr("24")},
		chroma.Literal:       {Color: strptr("94")},
		chroma.LiteralString: {Color: strptr("64")},
		chroma.LiteralNumber: {Color: strptr("94")},
		chroma.Comment:       {Color: strptr("245"), Italic: boolptr(true)},
		chroma.Operator:      {Color: strptr("90")},
		chroma.Punctuation:   {Color: strptr("235")},
		chroma.Error:         {Color: strptr("124")},
	}
	return s
}

// AutoStyles picks the dark or light style set from the terminal background.
func AutoStyles() Styles {
	if lipgloss.HasDarkBackground() {
		return DefaultStyles()
	}
	return LightStyles()
}

// NoTTYStyles returns styles with no color or emphasis, for plain output.
func NoTTYStyles() Styles {
	return Styles{
		Bullet:          "•",
		QuotePrefix:     "│ ",
		RuleGlyph:       "─",
		ListIndent:      2,
		CodeBlockIndent: 2,
		Selection:       lipgloss.NewStyle(),
	}
}
