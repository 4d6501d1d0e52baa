package devapi

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/movement-pass/passctl/internal/domain"
)

// ErrNoSuchRecord reports a miss against any dev store.
var ErrNoSuchRecord = errors.New("no such record")

// Applicant is the dev server's account record. The date of birth doubles
// as the login verifier and is kept only as a bcrypt hash.
type Applicant struct {
	ID              string
	Name            string
	MobilePhone     string
	District        int
	Thana           int
	Gender          domain.Gender
	IDType          domain.IDType
	IDNumber        string
	Photo           string
	DateOfBirth     time.Time
	DateOfBirthHash string
	ApprovedCount   int
	CreatedAt       time.Time
}

// ApplicantStore persists accounts.
type ApplicantStore interface {
	Create(ctx context.Context, a *Applicant) error
	GetByID(ctx context.Context, id string) (*Applicant, error)
	GetByMobilePhone(ctx context.Context, mobilePhone string) (*Applicant, error)
}

// PassStore persists movement passes.
type PassStore interface {
	Create(ctx context.Context, p *domain.Pass) error
	GetByID(ctx context.Context, id string) (*domain.Pass, error)
	// ListByApplicant returns one page ordered by end time, newest first,
	// starting after the given cursor. The returned key is nil once the
	// collection is exhausted.
	ListByApplicant(ctx context.Context, applicantID string, key *domain.PageKey, limit int) (*domain.PassPage, error)
}

// MemoryApplicantStore is the in-memory ApplicantStore; the dev server
// holds disposable fixture data only.
type MemoryApplicantStore struct {
	mu       sync.RWMutex
	byID     map[string]*Applicant
	byMobile map[string]*Applicant
}

// NewMemoryApplicantStore builds an empty store.
func NewMemoryApplicantStore() *MemoryApplicantStore {
	return &MemoryApplicantStore{
		byID:     map[string]*Applicant{},
		byMobile: map[string]*Applicant{},
	}
}

// Create stores an applicant; the mobile phone must be unused.
func (s *MemoryApplicantStore) Create(_ context.Context, a *Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byMobile[a.MobilePhone]; taken {
		return errors.New("mobile phone already registered")
	}
	clone := *a
	s.byID[a.ID] = &clone
	s.byMobile[a.MobilePhone] = &clone
	return nil
}

// GetByID looks up by id.
func (s *MemoryApplicantStore) GetByID(_ context.Context, id string) (*Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNoSuchRecord
	}
	clone := *a
	return &clone, nil
}

// GetByMobilePhone looks up by mobile phone.
func (s *MemoryApplicantStore) GetByMobilePhone(_ context.Context, mobilePhone string) (*Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byMobile[mobilePhone]
	if !ok {
		return nil, ErrNoSuchRecord
	}
	clone := *a
	return &clone, nil
}

// MemoryPassStore is the in-memory PassStore.
type MemoryPassStore struct {
	mu     sync.RWMutex
	passes map[string]*domain.Pass
}

// NewMemoryPassStore builds an empty store.
func NewMemoryPassStore() *MemoryPassStore {
	return &MemoryPassStore{passes: map[string]*domain.Pass{}}
}

// Create stores a pass.
func (s *MemoryPassStore) Create(_ context.Context, p *domain.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.passes[p.ID] = &clone
	return nil
}

// GetByID looks up by id.
func (s *MemoryPassStore) GetByID(_ context.Context, id string) (*domain.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.passes[id]
	if !ok {
		return nil, ErrNoSuchRecord
	}
	clone := *p
	return &clone, nil
}

// ListByApplicant pages through an applicant's passes, newest end time
// first, id as the tiebreak.
func (s *MemoryPassStore) ListByApplicant(_ context.Context, applicantID string, key *domain.PageKey, limit int) (*domain.PassPage, error) {
	if limit <= 0 {
		limit = 25
	}

	s.mu.RLock()
	ordered := make([]domain.Pass, 0, len(s.passes))
	for _, p := range s.passes {
		if p.Applicant.ID == applicantID {
			ordered = append(ordered, *p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].EndAt.Equal(ordered[j].EndAt) {
			return ordered[i].EndAt.After(ordered[j].EndAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	start := 0
	if key.Valid() {
		for i, p := range ordered {
			if p.ID == key.ID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(ordered) {
		end = len(ordered)
	}

	page := &domain.PassPage{Passes: ordered[start:end]}
	if page.Passes == nil {
		page.Passes = []domain.Pass{}
	}
	if end < len(ordered) {
		last := ordered[end-1]
		page.NextKey = &domain.PageKey{ID: last.ID, EndAt: last.EndAt.UTC().Format(time.RFC3339)}
	}
	return page, nil
}

// PhotoBucket is the in-memory stand-in for the photo object store.
type PhotoBucket struct {
	mu      sync.RWMutex
	objects map[string]photoObject
}

type photoObject struct {
	contentType string
	body        []byte
}

// NewPhotoBucket builds an empty bucket.
func NewPhotoBucket() *PhotoBucket {
	return &PhotoBucket{objects: map[string]photoObject{}}
}

// Put stores an uploaded object.
func (b *PhotoBucket) Put(filename, contentType string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[filename] = photoObject{contentType: contentType, body: append([]byte(nil), body...)}
}

// Get returns a stored object.
func (b *PhotoBucket) Get(filename string) (contentType string, body []byte, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[filename]
	if !ok {
		return "", nil, false
	}
	return obj.contentType, obj.body, true
}
