package search

import (
	"testing"

	"qbank/internal/domain"
	"qbank/internal/log"
)

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Index: 0, Text: "Solve the quadratic equation", Chapter: "algebra", Subject: "math", Difficulty: domain.DifficultyHard},
		{Index: 1, Text: "Name the capital of France", Chapter: "europe", Subject: "geography", Difficulty: domain.DifficultyEasy},
		{Index: 2, Text: "Factor the polynomial", Chapter: "algebra", Subject: "math", Difficulty: domain.DifficultyEasy},
	}
}

func TestService_Filter(t *testing.T) {
	svc := NewService(log.NullLogger())
	questions := sampleQuestions()

	t.Run("empty_query_no_filters_returns_nil", func(t *testing.T) {
		if got := svc.Filter("", questions, Filters{}); got != nil {
			t.Errorf("Filter() = %v, want nil", got)
		}
	})

	t.Run("empty_query_with_filters_keeps_order", func(t *testing.T) {
		got := svc.Filter("", questions, Filters{Chapter: "algebra"})
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
		if got[0].Question.Index != 0 || got[1].Question.Index != 2 {
			t.Errorf("results out of original order: %d, %d", got[0].Question.Index, got[1].Question.Index)
		}
	})

	t.Run("query_matches_question_text", func(t *testing.T) {
		got := svc.Filter("polynomial", questions, Filters{})
		if len(got) == 0 {
			t.Fatal("no results for a term present in a question")
		}
		if got[0].Question.Index != 2 {
			t.Errorf("best result index = %d, want 2", got[0].Question.Index)
		}
		if len(got[0].MatchedIndexes) == 0 {
			t.Error("result carries no matched indexes for highlighting")
		}
	})

	t.Run("query_matches_metadata", func(t *testing.T) {
		got := svc.Filter("geography", questions, Filters{})
		if len(got) != 1 || got[0].Question.Index != 1 {
			t.Errorf("Filter(geography) = %v, want the geography question", got)
		}
	})

	t.Run("case_insensitive", func(t *testing.T) {
		got := svc.Filter("FRANCE", questions, Filters{})
		if len(got) != 1 || got[0].Question.Index != 1 {
			t.Errorf("Filter(FRANCE) = %v, want the France question", got)
		}
	})

	t.Run("filters_and_query_combine", func(t *testing.T) {
		got := svc.Filter("the", questions, Filters{Difficulty: domain.DifficultyEasy, Chapter: "algebra"})
		if len(got) != 1 || got[0].Question.Index != 2 {
			t.Errorf("combined filter = %v, want only the easy algebra question", got)
		}
	})

	t.Run("no_match_returns_nil", func(t *testing.T) {
		if got := svc.Filter("zzzzzz", questions, Filters{}); got != nil {
			t.Errorf("Filter() = %v, want nil", got)
		}
	})

	t.Run("filters_excluding_everything_return_nil", func(t *testing.T) {
		if got := svc.Filter("algebra", questions, Filters{Subject: "history"}); got != nil {
			t.Errorf("Filter() = %v, want nil", got)
		}
	})
}
