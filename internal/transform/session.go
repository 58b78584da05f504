package transform

import "github.com/san-kum/linlab/internal/dataset"

// Session keeps the untransformed dataset so any transform can be reverted
// or replaced. Transforms are always applied to the original, never stacked.
type Session struct {
	original dataset.Dataset
	current  dataset.Dataset
	x, y     Label
}

func NewSession(d dataset.Dataset) *Session {
	return &Session{original: d.Clone(), current: d.Clone()}
}

// Apply replaces the current view with original transformed by x and y. On
// error the current view is kept.
func (s *Session) Apply(x, y Label) error {
	next, err := Apply(s.original, x, y)
	if err != nil {
		return err
	}
	s.current, s.x, s.y = next, x, y
	return nil
}

// Revert restores the untransformed dataset.
func (s *Session) Revert() {
	s.current = s.original.Clone()
	s.x, s.y = LabelIdentity, LabelIdentity
}

func (s *Session) Current() dataset.Dataset  { return s.current.Clone() }
func (s *Session) Original() dataset.Dataset { return s.original.Clone() }
func (s *Session) Labels() (x, y Label)      { return s.x, s.y }
func (s *Session) Transformed() bool         { return !s.x.IsIdentity() || !s.y.IsIdentity() }
