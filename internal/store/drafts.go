package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"qbank/internal/domain"
)

// Draft is an unsent question form autosaved locally. Drafts have no
// server-side counterpart until submitted, so they carry their own IDs.
type Draft struct {
	ID       string          `json:"id"`
	Question domain.Question `json:"question"`
	SavedAt  time.Time       `json:"saved_at"`
}

// SaveDraft persists a draft. A draft with no ID is assigned one.
func (s *BankStore) SaveDraft(d Draft) (Draft, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.SavedAt = time.Now().UTC()
	if err := s.set(bucketDrafts, d.ID, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// DeleteDraft removes a draft, typically after a successful submission.
func (s *BankStore) DeleteDraft(id string) {
	s.delete(bucketDrafts, id)
}

// Drafts returns all saved drafts, most recently saved first.
func (s *BankStore) Drafts() ([]Draft, error) {
	var drafts []Draft

	if s.db == nil {
		s.mu.RLock()
		prefix := string(bucketDrafts) + ":"
		for k, data := range s.cache {
			if len(k) > len(prefix) && k[:len(prefix)] == prefix {
				var d Draft
				if err := json.Unmarshal(data, &d); err == nil {
					drafts = append(drafts, d)
				}
			}
		}
		s.mu.RUnlock()
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketDrafts)
			if b == nil {
				return nil
			}
			return b.ForEach(func(_, v []byte) error {
				var d Draft
				if err := json.Unmarshal(v, &d); err == nil {
					drafts = append(drafts, d)
				}
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].SavedAt.After(drafts[j].SavedAt)
	})
	return drafts, nil
}
