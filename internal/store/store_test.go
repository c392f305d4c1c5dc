package store

import (
	"reflect"
	"testing"
	"time"

	"qbank/internal/domain"
)

func newTestStore(t *testing.T) *BankStore {
	t.Helper()
	s, err := NewBankStore(t.TempDir(), "http://bank.local:8000")
	if err != nil {
		t.Fatalf("NewBankStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBankStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	t.Run("books", func(t *testing.T) {
		if _, ok := s.GetBooks(); ok {
			t.Error("GetBooks() = ok on an empty store")
		}
		want := []string{"cropped", "books_cropped/algebra1"}
		if err := s.SaveBooks(want); err != nil {
			t.Fatalf("SaveBooks() error = %v", err)
		}
		got, ok := s.GetBooks()
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("GetBooks() = %v, %v; want %v, true", got, ok, want)
		}
	})

	t.Run("folder_images", func(t *testing.T) {
		want := []domain.ImageRef{"page_001/a.png", "page_001/b.png"}
		if err := s.SaveFolderImages("cropped", "page_001", want); err != nil {
			t.Fatalf("SaveFolderImages() error = %v", err)
		}
		got, ok := s.GetFolderImages("cropped", "page_001")
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("GetFolderImages() = %v, %v; want %v, true", got, ok, want)
		}
		if _, ok := s.GetFolderImages("cropped", "page_999"); ok {
			t.Error("GetFolderImages() = ok for a folder never saved")
		}
	})

	t.Run("questions", func(t *testing.T) {
		want := []domain.Question{{Index: 0, Text: "What is x?", Difficulty: domain.DifficultyEasy}}
		if err := s.SaveQuestions("cropped", want); err != nil {
			t.Fatalf("SaveQuestions() error = %v", err)
		}
		got, ok := s.GetQuestions("cropped")
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("GetQuestions() = %v, %v; want %v, true", got, ok, want)
		}
	})
}

func TestBankStore_InvalidateBook(t *testing.T) {
	s := newTestStore(t)

	s.SaveBooks([]string{"cropped", "books_cropped/algebra1"})
	s.SaveFolders("cropped", []string{"page_001"})
	s.SaveFolderImages("cropped", "page_001", []domain.ImageRef{"page_001/a.png"})
	s.SaveQuestions("cropped", []domain.Question{{Text: "q"}})
	s.SaveFolders("books_cropped/algebra1", []string{"page_777"})

	s.InvalidateBook("cropped")

	if _, ok := s.GetFolders("cropped"); ok {
		t.Error("folders survived InvalidateBook")
	}
	if _, ok := s.GetFolderImages("cropped", "page_001"); ok {
		t.Error("folder images survived InvalidateBook")
	}
	if _, ok := s.GetQuestions("cropped"); ok {
		t.Error("questions survived InvalidateBook")
	}
	if _, ok := s.GetBooks(); !ok {
		t.Error("book list did not survive InvalidateBook")
	}
	if _, ok := s.GetFolders("books_cropped/algebra1"); !ok {
		t.Error("another book's folders were wiped")
	}
}

func TestBankStore_Drafts(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SaveDraft(Draft{Question: domain.Question{Text: "first"}})
	if err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("SaveDraft() did not assign an ID")
	}

	time.Sleep(5 * time.Millisecond)
	second, err := s.SaveDraft(Draft{Question: domain.Question{Text: "second"}})
	if err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	t.Run("most_recent_first", func(t *testing.T) {
		drafts, err := s.Drafts()
		if err != nil {
			t.Fatalf("Drafts() error = %v", err)
		}
		if len(drafts) != 2 {
			t.Fatalf("got %d drafts, want 2", len(drafts))
		}
		if drafts[0].ID != second.ID {
			t.Errorf("drafts[0].ID = %q, want the newest draft %q", drafts[0].ID, second.ID)
		}
	})

	t.Run("survive_invalidate_all", func(t *testing.T) {
		s.InvalidateAll()
		drafts, err := s.Drafts()
		if err != nil {
			t.Fatalf("Drafts() error = %v", err)
		}
		if len(drafts) != 2 {
			t.Errorf("got %d drafts after InvalidateAll, want 2", len(drafts))
		}
	})

	t.Run("delete", func(t *testing.T) {
		s.DeleteDraft(first.ID)
		drafts, _ := s.Drafts()
		if len(drafts) != 1 {
			t.Fatalf("got %d drafts after delete, want 1", len(drafts))
		}
		if drafts[0].ID != second.ID {
			t.Errorf("remaining draft = %q, want %q", drafts[0].ID, second.ID)
		}
	})
}

func TestBankStore_MemoryOnly(t *testing.T) {
	s, err := NewBankStore("", "")
	if err != nil {
		t.Fatalf("NewBankStore() error = %v", err)
	}
	defer s.Close()

	if err := s.SaveFolders("cropped", []string{"page_001"}); err != nil {
		t.Fatalf("SaveFolders() error = %v", err)
	}
	got, ok := s.GetFolders("cropped")
	if !ok || len(got) != 1 {
		t.Errorf("GetFolders() = %v, %v; want one folder", got, ok)
	}

	if _, err := s.SaveDraft(Draft{Question: domain.Question{Text: "q"}}); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	drafts, err := s.Drafts()
	if err != nil || len(drafts) != 1 {
		t.Errorf("Drafts() = %v, %v; want one draft", drafts, err)
	}
}
