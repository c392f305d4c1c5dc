package bankapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qbank/internal/domain"
	"qbank/internal/log"
)

func TestClient_AuthHeaderScoping(t *testing.T) {
	var gotAuth string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/books":
			w.Write([]byte(`["cropped"]`))
		default:
			w.Write([]byte(`{"status": "running", "progress": 1, "message": ""}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-abc", log.NullLogger())

	t.Run("api_paths_carry_bearer", func(t *testing.T) {
		if _, err := client.Books(context.Background()); err != nil {
			t.Fatalf("Books() error = %v", err)
		}
		if gotAuth != "Bearer tok-abc" {
			t.Errorf("Authorization on %s = %q, want %q", gotPath, gotAuth, "Bearer tok-abc")
		}
	})

	t.Run("status_paths_do_not", func(t *testing.T) {
		if _, err := client.ProcessingStatus(context.Background(), "job-1"); err != nil {
			t.Fatalf("ProcessingStatus() error = %v", err)
		}
		if gotAuth != "" {
			t.Errorf("Authorization on %s = %q, want empty", gotPath, gotAuth)
		}
	})
}

func TestClient_ErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/books":
			w.WriteHeader(http.StatusUnauthorized)
		case "/api/folders":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success": false, "error": "book name is invalid"}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", log.NullLogger())
	ctx := context.Background()

	t.Run("401_is_auth_required", func(t *testing.T) {
		_, err := client.Books(ctx)
		if !errors.Is(err, domain.ErrAuthRequired) {
			t.Errorf("error = %v, want ErrAuthRequired", err)
		}
	})

	t.Run("404_is_not_found", func(t *testing.T) {
		_, err := client.Folders(ctx, "cropped")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("400_surfaces_server_message", func(t *testing.T) {
		_, err := client.Questions(ctx, "cropped")
		if err == nil || !strings.Contains(err.Error(), "book name is invalid") {
			t.Errorf("error = %v, want the server's message", err)
		}
	})

	t.Run("unreachable_is_server_offline", func(t *testing.T) {
		dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		dead.Close()
		offline := NewClient(dead.URL, "tok", log.NullLogger())
		_, err := offline.Books(ctx)
		if !errors.Is(err, domain.ErrServerOffline) {
			t.Errorf("error = %v, want ErrServerOffline", err)
		}
	})
}

func TestClient_CreateQuestion(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/questions" {
			t.Errorf("got %s %s, want POST /api/questions", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "question": {"index": 7, "question": "What is x?"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", log.NullLogger())

	created, err := client.CreateQuestion(context.Background(), domain.Question{
		Text:           "What is x?",
		Answer:         "42",
		Difficulty:     domain.DifficultyEasy,
		QuestionImages: []domain.ImageRef{"page_001/img1.png"},
		Book:           "cropped",
	})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if created.Index != 7 {
		t.Errorf("created.Index = %d, want 7", created.Index)
	}

	t.Run("wire_fields", func(t *testing.T) {
		if gotBody["question"] != "What is x?" {
			t.Errorf("body question = %v", gotBody["question"])
		}
		if gotBody["book"] != "cropped" {
			t.Errorf("body book = %v", gotBody["book"])
		}
		if _, ok := gotBody["index"]; ok {
			t.Error("create body carries an index, the server assigns it")
		}
		images, ok := gotBody["image_question"].([]any)
		if !ok || len(images) != 1 {
			t.Errorf("body image_question = %v, want one ref", gotBody["image_question"])
		}
	})

	t.Run("nil_image_lists_sent_as_empty_arrays", func(t *testing.T) {
		if _, err := client.CreateQuestion(context.Background(), domain.Question{Text: "y?"}); err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
		if _, ok := gotBody["image_answer"].([]any); !ok {
			t.Errorf("body image_answer = %v (%T), want an empty array", gotBody["image_answer"], gotBody["image_answer"])
		}
	})
}

func TestClient_DeleteQuestion(t *testing.T) {
	var gotMethod, gotPath, gotBook string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBook = r.URL.Query().Get("book")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", log.NullLogger())
	if err := client.DeleteQuestion(context.Background(), "books_cropped/algebra1", 4); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}

	if gotMethod != http.MethodDelete || gotPath != "/api/questions/4" {
		t.Errorf("got %s %s, want DELETE /api/questions/4", gotMethod, gotPath)
	}
	if gotBook != "books_cropped/algebra1" {
		t.Errorf("book query = %q, want %q", gotBook, "books_cropped/algebra1")
	}
}

func TestClient_RawJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "content": "[{\"index\": 0}]"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", log.NullLogger())
	content, err := client.RawJSON(context.Background(), "cropped")
	if err != nil {
		t.Fatalf("RawJSON() error = %v", err)
	}
	if content != `[{"index": 0}]` {
		t.Errorf("content = %q", content)
	}
}
