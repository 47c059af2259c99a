package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

// MemoryStore keeps everything in process memory behind a single RWMutex.
// WithTx holds the write lock for the whole callback and keeps an undo log,
// so a failed callback leaves no trace.
type MemoryStore struct {
	mu   *sync.RWMutex
	data *memoryData
	now  func() time.Time

	// undo is non-nil on the view handed to a WithTx callback.
	undo *[]func()
}

type memoryData struct {
	cases      map[int64]models.Case
	lastCaseID int64

	history       map[int64][]models.HistoryEntry
	lastHistoryID int64

	statuses   map[int64]models.Status
	industries map[int64]models.Industry

	organisations map[int64]models.Organisation
	lastOrgID     int64

	users      map[int64]models.User
	lastUserID int64
}

// NewMemoryStore returns a store seeded with the status and industry catalogues.
func NewMemoryStore() *MemoryStore {
	data := &memoryData{
		cases:         make(map[int64]models.Case),
		history:       make(map[int64][]models.HistoryEntry),
		statuses:      make(map[int64]models.Status),
		industries:    make(map[int64]models.Industry),
		organisations: make(map[int64]models.Organisation),
		users:         make(map[int64]models.User),
	}
	for _, st := range models.DefaultStatuses() {
		data.statuses[st.ID] = st
	}
	for _, ind := range models.DefaultIndustries() {
		data.industries[ind.ID] = ind
	}
	return &MemoryStore{mu: &sync.RWMutex{}, data: data, now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

// WithTx implements Store. Nested calls join the outer transaction.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.undo != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var undo []func()
	tx := &MemoryStore{mu: s.mu, data: s.data, now: s.now, undo: &undo}
	if err := fn(tx); err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return err
	}
	return nil
}

func (s *MemoryStore) read(fn func(d *memoryData) error) error {
	if s.undo == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

func (s *MemoryStore) write(fn func(d *memoryData, record func(func())) error) error {
	if s.undo == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.data, func(func()) {})
	}
	return fn(s.data, func(u func()) { *s.undo = append(*s.undo, u) })
}

// CreateCase implements CaseStore.
func (s *MemoryStore) CreateCase(ctx context.Context, c *models.Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(func(d *memoryData, record func(func())) error {
		submitted, ok := d.statuses[models.StatusSubmitted]
		if !ok {
			return fmt.Errorf("create case: submitted status missing from catalogue")
		}
		now := s.now().UTC()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.StatusID == 0 {
			c.StatusID = submitted.ID
		}
		if c.DueDate.IsZero() {
			c.DueDate = submitted.DueFrom(c.CreatedAt)
		}
		c.UpdatedAt = c.CreatedAt

		prevLast := d.lastCaseID
		d.lastCaseID++
		c.ID = d.lastCaseID
		d.cases[c.ID] = cloneCase(*c)
		id := c.ID
		record(func() {
			delete(d.cases, id)
			d.lastCaseID = prevLast
		})
		return nil
	})
}

// GetCase implements CaseStore.
func (s *MemoryStore) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *models.Case
	err := s.read(func(d *memoryData) error {
		c, ok := d.cases[id]
		if !ok {
			return sql.ErrNoRows
		}
		cp := cloneCase(c)
		out = &cp
		return nil
	})
	return out, err
}

// ListCases implements CaseStore. Results are ordered by id.
func (s *MemoryStore) ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var matched []models.Case
	err := s.read(func(d *memoryData) error {
		for _, c := range d.cases {
			if caseMatches(c, filter, d.statuses) {
				matched = append(matched, cloneCase(c))
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	offset, limit := pageBounds(filter.Page, filter.PageSize)
	if limit == 0 {
		return matched, total, nil
	}
	if offset >= total {
		return []models.Case{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// UpdateCase implements CaseStore.
func (s *MemoryStore) UpdateCase(ctx context.Context, c *models.Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(func(d *memoryData, record func(func())) error {
		prev, ok := d.cases[c.ID]
		if !ok {
			return sql.ErrNoRows
		}
		c.UpdatedAt = s.now().UTC()
		d.cases[c.ID] = cloneCase(*c)
		record(func() { d.cases[prev.ID] = prev })
		return nil
	})
}

// AppendHistory implements CaseStore.
func (s *MemoryStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(func(d *memoryData, record func(func())) error {
		if _, ok := d.cases[entry.CaseID]; !ok {
			return sql.ErrNoRows
		}
		if entry.UpdatedAt.IsZero() {
			entry.UpdatedAt = s.now().UTC()
		}
		prevLast := d.lastHistoryID
		d.lastHistoryID++
		entry.ID = d.lastHistoryID
		caseID := entry.CaseID
		d.history[caseID] = append(d.history[caseID], *entry)
		record(func() {
			entries := d.history[caseID]
			d.history[caseID] = entries[:len(entries)-1]
			d.lastHistoryID = prevLast
		})
		return nil
	})
}

// ListHistory implements CaseStore.
func (s *MemoryStore) ListHistory(ctx context.Context, caseID int64) ([]models.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.HistoryEntry
	err := s.read(func(d *memoryData) error {
		entries := d.history[caseID]
		out = make([]models.HistoryEntry, len(entries))
		copy(out, entries)
		return nil
	})
	return out, err
}

// ListStatuses implements ReferenceStore.
func (s *MemoryStore) ListStatuses(ctx context.Context) ([]models.Status, error) {
	var out []models.Status
	err := s.read(func(d *memoryData) error {
		for _, st := range d.statuses {
			out = append(out, st)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// GetStatus implements ReferenceStore.
func (s *MemoryStore) GetStatus(ctx context.Context, id int64) (*models.Status, error) {
	var out *models.Status
	err := s.read(func(d *memoryData) error {
		st, ok := d.statuses[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &st
		return nil
	})
	return out, err
}

// SetStatusActive toggles a catalogue entry. Used by operators and tests to
// retire a status without deleting it.
func (s *MemoryStore) SetStatusActive(id int64, active bool) error {
	return s.write(func(d *memoryData, record func(func())) error {
		st, ok := d.statuses[id]
		if !ok {
			return sql.ErrNoRows
		}
		prev := st
		st.IsActive = active
		d.statuses[id] = st
		record(func() { d.statuses[id] = prev })
		return nil
	})
}

// ListIndustries implements ReferenceStore.
func (s *MemoryStore) ListIndustries(ctx context.Context) ([]models.Industry, error) {
	var out []models.Industry
	err := s.read(func(d *memoryData) error {
		for _, ind := range d.industries {
			out = append(out, ind)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// GetIndustry implements ReferenceStore.
func (s *MemoryStore) GetIndustry(ctx context.Context, id int64) (*models.Industry, error) {
	var out *models.Industry
	err := s.read(func(d *memoryData) error {
		ind, ok := d.industries[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &ind
		return nil
	})
	return out, err
}

// CreateOrganisation implements ReferenceStore.
func (s *MemoryStore) CreateOrganisation(ctx context.Context, org *models.Organisation) error {
	return s.write(func(d *memoryData, record func(func())) error {
		ind, ok := d.industries[org.IndustryID]
		if !ok {
			return sql.ErrNoRows
		}
		now := s.now().UTC()
		prevLast := d.lastOrgID
		d.lastOrgID++
		org.ID = d.lastOrgID
		org.IndustryName = ind.Name
		org.CreatedAt, org.UpdatedAt = now, now
		d.organisations[org.ID] = *org
		id := org.ID
		record(func() {
			delete(d.organisations, id)
			d.lastOrgID = prevLast
		})
		return nil
	})
}

// UpdateOrganisation implements ReferenceStore.
func (s *MemoryStore) UpdateOrganisation(ctx context.Context, org *models.Organisation) error {
	return s.write(func(d *memoryData, record func(func())) error {
		prev, ok := d.organisations[org.ID]
		if !ok {
			return sql.ErrNoRows
		}
		ind, ok := d.industries[org.IndustryID]
		if !ok {
			return sql.ErrNoRows
		}
		org.IndustryName = ind.Name
		org.CreatedAt = prev.CreatedAt
		org.UpdatedAt = s.now().UTC()
		d.organisations[org.ID] = *org
		record(func() { d.organisations[prev.ID] = prev })
		return nil
	})
}

// GetOrganisation implements ReferenceStore.
func (s *MemoryStore) GetOrganisation(ctx context.Context, id int64) (*models.Organisation, error) {
	var out *models.Organisation
	err := s.read(func(d *memoryData) error {
		org, ok := d.organisations[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &org
		return nil
	})
	return out, err
}

// ListOrganisations implements ReferenceStore.
func (s *MemoryStore) ListOrganisations(ctx context.Context) ([]models.Organisation, error) {
	var out []models.Organisation
	err := s.read(func(d *memoryData) error {
		for _, org := range d.organisations {
			out = append(out, org)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// CreateUser implements ReferenceStore. Emails are unique case-insensitively.
func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.write(func(d *memoryData, record func(func())) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return ErrDuplicate
			}
		}
		now := s.now().UTC()
		prevLast := d.lastUserID
		d.lastUserID++
		user.ID = d.lastUserID
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = *user
		id := user.ID
		record(func() {
			delete(d.users, id)
			d.lastUserID = prevLast
		})
		return nil
	})
}

// UpdateUser implements ReferenceStore.
func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.write(func(d *memoryData, record func(func())) error {
		prev, ok := d.users[user.ID]
		if !ok {
			return sql.ErrNoRows
		}
		user.CreatedAt = prev.CreatedAt
		user.UpdatedAt = s.now().UTC()
		d.users[user.ID] = *user
		record(func() { d.users[prev.ID] = prev })
		return nil
	})
}

// GetUser implements ReferenceStore.
func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := s.read(func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &u
		return nil
	})
	return out, err
}

// FindUserByEmail implements ReferenceStore.
func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := s.read(func(d *memoryData) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				found := u
				out = &found
				return nil
			}
		}
		return sql.ErrNoRows
	})
	return out, err
}

// ListUsers implements ReferenceStore. Results are ordered by id.
func (s *MemoryStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var matched []models.User
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	err := s.read(func(d *memoryData) error {
		for _, u := range d.users {
			if filter.OrganisationID != nil && u.OrganisationID != *filter.OrganisationID {
				continue
			}
			if filter.Role != nil && u.Role != *filter.Role {
				continue
			}
			if filter.Active != nil && u.IsActive != *filter.Active {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FullName()), search) {
				continue
			}
			matched = append(matched, u)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	offset, limit := pageBounds(filter.Page, filter.PageSize)
	if limit == 0 {
		return matched, total, nil
	}
	if offset >= total {
		return []models.User{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// UpdateLastLogin implements ReferenceStore.
func (s *MemoryStore) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	return s.write(func(d *memoryData, record func(func())) error {
		u, ok := d.users[id]
		if !ok {
			return sql.ErrNoRows
		}
		prev := u
		u.LastLoginAt = &ts
		d.users[id] = u
		record(func() { d.users[id] = prev })
		return nil
	})
}

func caseMatches(c models.Case, f models.CaseFilter, statuses map[int64]models.Status) bool {
	if f.OrganisationID != nil && c.OrganisationID != *f.OrganisationID {
		return false
	}
	if f.Kind != "" && c.Kind != f.Kind {
		return false
	}
	if f.StatusID != nil && c.StatusID != *f.StatusID {
		return false
	}
	if f.AssignedTo != nil && c.AssignedTo != *f.AssignedTo {
		return false
	}
	if f.OpenOnly && statuses[c.StatusID].IsTerminal {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if id, err := strconv.ParseInt(q, 10, 64); err == nil && id == c.ID {
			return true
		}
		haystack := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email + " " + c.Phone)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

func cloneCase(c models.Case) models.Case {
	if c.ClosedAt != nil {
		closed := *c.ClosedAt
		c.ClosedAt = &closed
	}
	return c
}
