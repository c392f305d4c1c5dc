package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"qbank/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketBooks     = []byte("books")
	bucketFolders   = []byte("folders")
	bucketImages    = []byte("images")
	bucketQuestions = []byte("questions")
	bucketDrafts    = []byte("drafts")
)

// BankStore implements domain.Store using BoltDB. Browse results are
// cached per book so the console stays usable across restarts and while
// the server is slow; drafts survive a crash of the add-question form.
type BankStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewBankStore opens (or creates) the cache database under baseCacheDir,
// namespaced by server URL. An empty baseCacheDir gives a memory-only
// store with no persistence.
func NewBankStore(baseCacheDir, serverURL string) (*BankStore, error) {
	if baseCacheDir == "" {
		return &BankStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "qbank.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBooks, bucketFolders, bucketImages, bucketQuestions, bucketDrafts} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BankStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *BankStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *BankStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *BankStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *BankStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

func (s *BankStore) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func bookKey(book string) string {
	return "book:" + book
}

func folderKey(book, folder string) string {
	return fmt.Sprintf("book:%s:folder:%s", book, folder)
}

// === Books ===

func (s *BankStore) GetBooks() ([]string, bool) {
	var books []string
	ok := s.get(bucketBooks, "list", &books)
	return books, ok
}

func (s *BankStore) SaveBooks(books []string) error {
	return s.set(bucketBooks, "list", books)
}

// === Folders ===

func (s *BankStore) GetFolders(book string) ([]string, bool) {
	var folders []string
	ok := s.get(bucketFolders, bookKey(book), &folders)
	return folders, ok
}

func (s *BankStore) SaveFolders(book string, folders []string) error {
	return s.set(bucketFolders, bookKey(book), folders)
}

// === Folder images (hierarchical key: book:{book}:folder:{folder}) ===

func (s *BankStore) GetFolderImages(book, folder string) ([]domain.ImageRef, bool) {
	var images []domain.ImageRef
	ok := s.get(bucketImages, folderKey(book, folder), &images)
	return images, ok
}

func (s *BankStore) SaveFolderImages(book, folder string, images []domain.ImageRef) error {
	return s.set(bucketImages, folderKey(book, folder), images)
}

// === Questions ===

func (s *BankStore) GetQuestions(book string) ([]domain.Question, bool) {
	var questions []domain.Question
	ok := s.get(bucketQuestions, bookKey(book), &questions)
	return questions, ok
}

func (s *BankStore) SaveQuestions(book string, questions []domain.Question) error {
	return s.set(bucketQuestions, bookKey(book), questions)
}

// === Cascade Invalidation ===

// InvalidateBook wipes everything cached for one book: folders, all
// folder image lists, and questions. The book list itself survives.
func (s *BankStore) InvalidateBook(book string) {
	s.delete(bucketFolders, bookKey(book))
	s.deletePrefix(bucketImages, bookKey(book)+":")
	s.delete(bucketQuestions, bookKey(book))
}

func (s *BankStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Drafts are user work, not cache; they survive invalidation.
	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBooks, bucketFolders, bucketImages, bucketQuestions} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
