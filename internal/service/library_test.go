package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"qbank/internal/domain"
	"qbank/internal/log"
)

// blockingRepo serves folder images from a map and can hold a specific
// folder's fetch until released.
type blockingRepo struct {
	mu      sync.Mutex
	images  map[string][]domain.ImageRef
	holds   map[string]chan struct{}
	failing bool
}

func newBlockingRepo() *blockingRepo {
	return &blockingRepo{
		images: make(map[string][]domain.ImageRef),
		holds:  make(map[string]chan struct{}),
	}
}

func (r *blockingRepo) hold(folder string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.holds[folder] = ch
	return ch
}

func (r *blockingRepo) Books(ctx context.Context) ([]string, error) {
	return []string{"cropped"}, nil
}

func (r *blockingRepo) Folders(ctx context.Context, book string) ([]string, error) {
	return []string{"page_001", "page_002"}, nil
}

func (r *blockingRepo) FolderImages(ctx context.Context, book, folder string) ([]domain.ImageRef, error) {
	r.mu.Lock()
	gate := r.holds[folder]
	failing := r.failing
	images := r.images[folder]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if failing {
		return nil, errors.New("server exploded")
	}
	return images, nil
}

func (r *blockingRepo) Questions(ctx context.Context, book string) ([]domain.Question, error) {
	return nil, nil
}

func TestLibraryService_LoadImages(t *testing.T) {
	t.Run("basic_load", func(t *testing.T) {
		repo := newBlockingRepo()
		repo.images["page_001"] = []domain.ImageRef{"page_001/a.png", "page_001/b.png"}

		svc := NewLibraryService(repo, nil, log.NullLogger())

		images, err := svc.LoadImages(context.Background(), "page_001")
		if err != nil {
			t.Fatalf("LoadImages() error = %v", err)
		}
		if len(images) != 2 {
			t.Errorf("got %d images, want 2", len(images))
		}
		if svc.ActiveFolder() != "page_001" {
			t.Errorf("ActiveFolder() = %q, want %q", svc.ActiveFolder(), "page_001")
		}
	})

	t.Run("empty_folder_clears", func(t *testing.T) {
		repo := newBlockingRepo()
		repo.images["page_001"] = []domain.ImageRef{"page_001/a.png"}

		svc := NewLibraryService(repo, nil, log.NullLogger())
		if _, err := svc.LoadImages(context.Background(), "page_001"); err != nil {
			t.Fatalf("LoadImages() error = %v", err)
		}

		images, err := svc.LoadImages(context.Background(), "")
		if err != nil {
			t.Fatalf("LoadImages(\"\") error = %v", err)
		}
		if images != nil {
			t.Errorf("LoadImages(\"\") = %v, want nil", images)
		}
		if got := svc.CurrentImages(); len(got) != 0 {
			t.Errorf("CurrentImages() = %v, want empty", got)
		}
	})

	t.Run("slow_response_cannot_overwrite_newer", func(t *testing.T) {
		repo := newBlockingRepo()
		repo.images["page_001"] = []domain.ImageRef{"page_001/slow.png"}
		repo.images["page_002"] = []domain.ImageRef{"page_002/fast.png"}
		gate := repo.hold("page_001")

		svc := NewLibraryService(repo, nil, log.NullLogger())

		slowErr := make(chan error, 1)
		go func() {
			_, err := svc.LoadImages(context.Background(), "page_001")
			slowErr <- err
		}()

		// Give the slow load time to capture its generation.
		time.Sleep(20 * time.Millisecond)

		fast, err := svc.LoadImages(context.Background(), "page_002")
		if err != nil {
			t.Fatalf("fast LoadImages() error = %v", err)
		}
		if !reflect.DeepEqual(fast, []domain.ImageRef{"page_002/fast.png"}) {
			t.Fatalf("fast load = %v", fast)
		}

		close(gate)

		select {
		case err := <-slowErr:
			if !errors.Is(err, domain.ErrSuperseded) {
				t.Errorf("slow load error = %v, want ErrSuperseded", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("slow load never returned")
		}

		if got := svc.CurrentImages(); !reflect.DeepEqual(got, []domain.ImageRef{"page_002/fast.png"}) {
			t.Errorf("CurrentImages() = %v, stale load overwrote the newer one", got)
		}
	})

	t.Run("failure_leaves_previous_cache", func(t *testing.T) {
		repo := newBlockingRepo()
		repo.images["page_001"] = []domain.ImageRef{"page_001/a.png"}

		svc := NewLibraryService(repo, nil, log.NullLogger())
		if _, err := svc.LoadImages(context.Background(), "page_001"); err != nil {
			t.Fatalf("LoadImages() error = %v", err)
		}

		repo.mu.Lock()
		repo.failing = true
		repo.mu.Unlock()

		if _, err := svc.LoadImages(context.Background(), "page_002"); err == nil {
			t.Fatal("LoadImages() succeeded, want error")
		}
		if got := svc.CurrentImages(); !reflect.DeepEqual(got, []domain.ImageRef{"page_001/a.png"}) {
			t.Errorf("CurrentImages() = %v, failed load clobbered the cache", got)
		}
	})
}

func TestLibraryService_SetBook(t *testing.T) {
	repo := newBlockingRepo()
	repo.images["page_001"] = []domain.ImageRef{"page_001/a.png"}

	svc := NewLibraryService(repo, nil, log.NullLogger())

	if svc.ActiveBook() != domain.DefaultBook {
		t.Fatalf("ActiveBook() = %q, want %q", svc.ActiveBook(), domain.DefaultBook)
	}

	if _, err := svc.LoadImages(context.Background(), "page_001"); err != nil {
		t.Fatalf("LoadImages() error = %v", err)
	}

	t.Run("switch_invalidates_folder_state", func(t *testing.T) {
		if !svc.SetBook("books_cropped/algebra1") {
			t.Fatal("SetBook() = false for a different book")
		}
		if svc.ActiveFolder() != "" {
			t.Errorf("ActiveFolder() = %q after book switch, want empty", svc.ActiveFolder())
		}
		if got := svc.CurrentImages(); len(got) != 0 {
			t.Errorf("CurrentImages() = %v after book switch, want empty", got)
		}
	})

	t.Run("same_book_is_noop", func(t *testing.T) {
		if svc.SetBook("books_cropped/algebra1") {
			t.Error("SetBook() = true for the already active book")
		}
	})
}
