// Package answers holds the applicant's in-memory record: personal fields,
// question answers and the lock flag.
package answers

import (
	"strconv"
	"strings"
	"sync"

	"visa-locker/internal/models"
)

const (
	// IndexKey stores the last viewed question index.
	IndexKey = "last_question_index"
	// CompleteKey is set to "1" once the record is finalized.
	CompleteKey = "form_complete"
)

// Store is the single source of truth for an applicant session. Once locked,
// every mutator is a no-op except SetIndex.
type Store struct {
	mu          sync.RWMutex
	personal    PersonalInfo
	questions   QuestionAnswers
	coTravelers []models.CoTraveler
	locked      bool
}

func NewStore(personal PersonalInfo, questions QuestionAnswers) *Store {
	if personal == nil {
		personal = PersonalInfo{}
	}
	if questions == nil {
		questions = QuestionAnswers{}
	}
	return &Store{personal: personal.clone(), questions: questions.clone()}
}

// FromRecord populates a store from a verified applicant record.
func FromRecord(rec *models.ApplicantRecord) *Store {
	personal := PersonalInfo{}
	questions := QuestionAnswers{}
	var travelers []models.CoTraveler
	if rec != nil {
		for k, v := range rec.Personal {
			personal[k] = models.Stringify(v)
		}
		for k, v := range rec.Questions {
			questions[k] = v
		}
		travelers = append(travelers, rec.CoTravelers...)
	}

	s := NewStore(personal, questions)
	s.coTravelers = travelers
	s.locked = rec.IsLocked()
	return s
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	Personal  PersonalInfo
	Questions QuestionAnswers
	Locked    bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Personal: s.personal.clone(), Questions: s.questions.clone(), Locked: s.locked}
}

func (s *Store) Personal() PersonalInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.personal.clone()
}

func (s *Store) Questions() QuestionAnswers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions.clone()
}

func (s *Store) PersonalValue(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.personal[key]
}

func (s *Store) Answer(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions.String(key)
}

// Value looks a key up in the question answers, then in personal info.
func (s *Store) Value(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v := strings.TrimSpace(s.questions.String(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.personal[key])
}

// Files returns the normalized upload list for field.
func (s *Store) Files(field string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NormalizeFiles(s.questions[field])
}

func (s *Store) CoTravelers() []models.CoTraveler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CoTraveler(nil), s.coTravelers...)
}

func (s *Store) IsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

// Lock freezes the record and marks it complete.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = true
	s.questions[CompleteKey] = "1"
}

// Index returns the stored navigation index, or -1 when absent or invalid.
func (s *Store) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw := strings.TrimSpace(s.questions.String(IndexKey))
	if raw == "" {
		return -1
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return i
}

// SetIndex records the navigation index. Allowed while locked.
func (s *Store) SetIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[IndexKey] = strconv.Itoa(i)
}

// SetPersonal writes one personal field. Returns false when locked.
func (s *Store) SetPersonal(field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return false
	}
	s.personal[field] = value
	return true
}

// SetAnswers writes a batch of question values. Returns false when locked;
// an index-only batch is still applied.
func (s *Store) SetAnswers(updates map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		if idx, ok := updates[IndexKey]; ok && len(updates) == 1 {
			s.questions[IndexKey] = models.Stringify(idx)
		}
		return false
	}
	for k, v := range updates {
		s.questions[k] = v
	}
	return true
}

// ReplaceFiles adopts files as the complete list for field.
func (s *Store) ReplaceFiles(field string, files []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return false
	}
	s.questions[field] = cleanNames(files)
	return true
}

// RemoveFile filters name out of the list for field.
func (s *Store) RemoveFile(field, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return false
	}
	current := NormalizeFiles(s.questions[field])
	kept := make([]string, 0, len(current))
	for _, f := range current {
		if f != name {
			kept = append(kept, f)
		}
	}
	s.questions[field] = kept
	return true
}
