package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

// ExportJobRepository tracks export jobs in memory. Jobs live only as long as
// their files, which the cleanup loop removes after the download TTL.
type ExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

func NewExportJobRepository() *ExportJobRepository {
	return &ExportJobRepository{jobs: make(map[string]models.ExportJob)}
}

// Create assigns an id and stores job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

// Get returns a copy of the job or sql.ErrNoRows.
func (r *ExportJobRepository) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

// Update applies fn to the stored job under the lock.
func (r *ExportJobRepository) Update(ctx context.Context, id string, fn func(*models.ExportJob)) (*models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	fn(&job)
	r.jobs[id] = job
	return &job, nil
}

// ListExpired returns finished jobs whose download window closed before cutoff.
func (r *ExportJobRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.ExpiresAt != nil && job.ExpiresAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete forgets a job.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}
