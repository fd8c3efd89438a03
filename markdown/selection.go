package markdown

// Selection is a half-open region of source offsets. Start <= End always.
// Reversed records which endpoint is the head being dragged; Pending is true
// while the drag is in progress.
type Selection struct {
	Start    int
	End      int
	Reversed bool
	Pending  bool
}

// SetHead moves the dragged endpoint, swapping roles when the head crosses
// the fixed tail so Start <= End is preserved.
func (s *Selection) SetHead(head int) {
	if head < s.Tail() {
		if !s.Reversed {
			s.End = s.Start
			s.Reversed = true
		}
		s.Start = head
	} else {
		if s.Reversed {
			s.Start = s.End
			s.Reversed = false
		}
		s.End = head
	}
}

// Tail returns the fixed endpoint of the selection.
func (s *Selection) Tail() int {
	if s.Reversed {
		return s.End
	}
	return s.Start
}

// IsEmpty reports whether the selection contains no text.
func (s *Selection) IsEmpty() bool {
	return s.End <= s.Start
}
