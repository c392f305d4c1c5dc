package domain

import (
	"reflect"
	"testing"
)

func TestSelection_Toggle(t *testing.T) {
	t.Run("adds_in_question_mode", func(t *testing.T) {
		s := NewSelection()
		s.Toggle("p1/img1.png")

		if !s.IsQuestion("p1/img1.png") {
			t.Error("IsQuestion() = false after toggle, want true")
		}
		if s.IsAnswer("p1/img1.png") {
			t.Error("IsAnswer() = true, answer list must not be touched")
		}
	})

	t.Run("second_toggle_removes", func(t *testing.T) {
		s := NewSelection()
		s.Toggle("p1/img1.png")
		s.Toggle("p1/img1.png")

		if s.IsQuestion("p1/img1.png") {
			t.Error("IsQuestion() = true after double toggle, want false")
		}
	})

	t.Run("mode_isolation", func(t *testing.T) {
		s := NewSelection()
		s.Toggle("p1/img1.png")

		s.SetMode(ModeAnswer)
		s.Toggle("p1/img1.png")

		// The image is now in both lists; toggling in answer mode must
		// not have removed it from the question list.
		if !s.IsQuestion("p1/img1.png") {
			t.Error("question tag lost after answer-mode toggle")
		}
		if !s.IsAnswer("p1/img1.png") {
			t.Error("IsAnswer() = false after answer-mode toggle, want true")
		}
		if got := s.Conflicts(); len(got) != 1 || got[0] != "p1/img1.png" {
			t.Errorf("Conflicts() = %v, want [p1/img1.png]", got)
		}
	})

	t.Run("insertion_order_preserved", func(t *testing.T) {
		s := NewSelection()
		s.Toggle("c")
		s.Toggle("a")
		s.Toggle("b")
		s.Toggle("a") // remove

		q, _ := s.Snapshot()
		want := []ImageRef{"c", "b"}
		if !reflect.DeepEqual(q, want) {
			t.Errorf("question list = %v, want %v", q, want)
		}
	})
}

func TestSelection_Clear(t *testing.T) {
	s := NewSelection()
	s.Toggle("x")
	s.SetMode(ModeAnswer)
	s.Toggle("y")

	s.Clear()

	qCount, aCount := s.Count()
	if qCount != 0 || aCount != 0 {
		t.Errorf("Count() after Clear = (%d, %d), want (0, 0)", qCount, aCount)
	}
	if s.Mode() != ModeAnswer {
		t.Errorf("Mode() after Clear = %v, want %v", s.Mode(), ModeAnswer)
	}
}

func TestSelection_Snapshot(t *testing.T) {
	t.Run("never_nil", func(t *testing.T) {
		s := NewSelection()
		q, a := s.Snapshot()
		if q == nil || a == nil {
			t.Errorf("Snapshot() = (%v, %v), want empty non-nil slices", q, a)
		}
	})

	t.Run("returns_copies", func(t *testing.T) {
		s := NewSelection()
		s.Toggle("x")

		q, _ := s.Snapshot()
		q[0] = "mutated"

		if !s.IsQuestion("x") {
			t.Error("mutating the snapshot changed the selection")
		}
	})
}

func TestSelectionFrom(t *testing.T) {
	question := []ImageRef{"q1", "q2"}
	answer := []ImageRef{"a1"}

	s := SelectionFrom(question, answer)

	qCount, aCount := s.Count()
	if qCount != 2 || aCount != 1 {
		t.Errorf("Count() = (%d, %d), want (2, 1)", qCount, aCount)
	}
	if s.Mode() != ModeQuestion {
		t.Errorf("Mode() = %v, want %v", s.Mode(), ModeQuestion)
	}

	// The source slices must have been copied.
	question[0] = "mutated"
	if !s.IsQuestion("q1") {
		t.Error("mutating the source slice changed the selection")
	}
}

func TestProcessingStatus_Terminal(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusError, true},
	}
	for _, tc := range cases {
		s := ProcessingStatus{Status: tc.status}
		if got := s.Terminal(); got != tc.want {
			t.Errorf("Terminal() for %q = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestProcessingStatus_StageDetail(t *testing.T) {
	t.Run("pdf_pages", func(t *testing.T) {
		s := ProcessingStatus{Stage: StagePDFConvert, CurrentPage: 3, TotalPages: 12}
		if got := s.StageDetail(); got != "(3/12)" {
			t.Errorf("StageDetail() = %q, want %q", got, "(3/12)")
		}
	})
	t.Run("ocr_folder", func(t *testing.T) {
		s := ProcessingStatus{Stage: StageOCR, CurrentFolder: "page_004"}
		if got := s.StageDetail(); got != "(page_004)" {
			t.Errorf("StageDetail() = %q, want %q", got, "(page_004)")
		}
	})
	t.Run("no_detail", func(t *testing.T) {
		s := ProcessingStatus{Stage: StagePDFConvert}
		if got := s.StageDetail(); got != "" {
			t.Errorf("StageDetail() = %q, want empty", got)
		}
	})
}

func TestBookPath(t *testing.T) {
	if got := BookPath("algebra1"); got != "books_cropped/algebra1" {
		t.Errorf("BookPath() = %q, want %q", got, "books_cropped/algebra1")
	}
	if got := BookDisplayName("books_cropped/algebra1"); got != "algebra1" {
		t.Errorf("BookDisplayName() = %q, want %q", got, "algebra1")
	}
	if got := BookDisplayName("cropped"); got != "cropped" {
		t.Errorf("BookDisplayName() = %q, want %q", got, "cropped")
	}
}
