package domain

// SelectionMode is the active tagging target for image clicks.
type SelectionMode string

const (
	ModeQuestion SelectionMode = "question"
	ModeAnswer   SelectionMode = "answer"
)

// Selection tracks which images are tagged as question vs answer evidence
// for one record under one active tagging mode. One instance backs the
// "new question" form; a second backs the record being edited.
//
// Toggle only inspects the list for the current mode. An image toggled
// under both modes ends up in both lists; Conflicts exposes that so the
// UI can warn without changing the toggle semantics.
type Selection struct {
	mode           SelectionMode
	questionImages []ImageRef
	answerImages   []ImageRef
}

// NewSelection returns an empty selection in question mode.
func NewSelection() *Selection {
	return &Selection{mode: ModeQuestion}
}

// SelectionFrom seeds a selection with an existing record's image lists,
// for the edit flow. The slices are copied.
func SelectionFrom(question, answer []ImageRef) *Selection {
	s := NewSelection()
	s.questionImages = append(s.questionImages, question...)
	s.answerImages = append(s.answerImages, answer...)
	return s
}

// SetMode sets the mode subsequent Toggle calls apply to.
func (s *Selection) SetMode(mode SelectionMode) {
	s.mode = mode
}

// Mode returns the active tagging mode.
func (s *Selection) Mode() SelectionMode {
	return s.mode
}

// Toggle flips membership of ref in the current mode's list. Absent refs
// are appended (insertion order preserved); present refs are removed.
// The other mode's list is never touched.
func (s *Selection) Toggle(ref ImageRef) {
	if s.mode == ModeAnswer {
		s.answerImages = toggle(s.answerImages, ref)
		return
	}
	s.questionImages = toggle(s.questionImages, ref)
}

func toggle(list []ImageRef, ref ImageRef) []ImageRef {
	for i, r := range list {
		if r == ref {
			return append(list[:i], list[i+1:]...)
		}
	}
	return append(list, ref)
}

// Clear empties both lists. The mode is unchanged.
func (s *Selection) Clear() {
	s.questionImages = nil
	s.answerImages = nil
}

// Snapshot returns copies of the two lists for submission. Never nil.
func (s *Selection) Snapshot() (question, answer []ImageRef) {
	question = make([]ImageRef, len(s.questionImages))
	copy(question, s.questionImages)
	answer = make([]ImageRef, len(s.answerImages))
	copy(answer, s.answerImages)
	return question, answer
}

// IsQuestion reports whether ref is currently tagged as question evidence.
func (s *Selection) IsQuestion(ref ImageRef) bool {
	return contains(s.questionImages, ref)
}

// IsAnswer reports whether ref is currently tagged as answer evidence.
func (s *Selection) IsAnswer(ref ImageRef) bool {
	return contains(s.answerImages, ref)
}

// Count returns the sizes of the two lists.
func (s *Selection) Count() (question, answer int) {
	return len(s.questionImages), len(s.answerImages)
}

// Conflicts returns refs present in both lists, in question-list order.
func (s *Selection) Conflicts() []ImageRef {
	var out []ImageRef
	for _, r := range s.questionImages {
		if contains(s.answerImages, r) {
			out = append(out, r)
		}
	}
	return out
}

func contains(list []ImageRef, ref ImageRef) bool {
	for _, r := range list {
		if r == ref {
			return true
		}
	}
	return false
}
