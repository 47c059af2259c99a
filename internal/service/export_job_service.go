package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/export"
	"github.com/rahulvs07/complyark-data-shield/pkg/jobs"
)

const exportJobType = "case_register"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	Get(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, fn func(*models.ExportJob)) (*models.ExportJob, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

type exportFiles interface {
	ParseToken(token string) (jobID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (io.ReadCloser, int64, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
	ContentType(f export.Format) string
}

type exportMetrics interface {
	RecordExport(format string, status models.ExportStatus, duration time.Duration)
}

// ExportJobServiceConfig governs cleanup.
type ExportJobServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File        io.ReadCloser
	Size        int64
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService orchestrates export job lifecycle management.
type ExportJobService struct {
	repo   exportJobStore
	queue  jobDispatcher
	files  exportFiles
	logger *zap.Logger
	cfg    ExportJobServiceConfig
	now    func() time.Time
}

// NewExportJobService constructs the export job service.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, files exportFiles, logger *zap.Logger, cfg ExportJobServiceConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	return &ExportJobService{repo: repo, queue: queue, files: files, logger: logger, cfg: cfg, now: time.Now}
}

// CreateJob validates req, persists a job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.ExportRequest, actor models.Actor) (*dto.ExportJobResponse, error) {
	if !actor.CanManage() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can export cases")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if req.Kind != "" && !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown case kind")
	}

	scope := req.OrganisationID
	if !actor.IsSystemAdmin() {
		orgID := actor.OrganisationID
		scope = &orgID
	}

	job := &models.ExportJob{
		OrganisationID: scope,
		Format:         string(format),
		Kind:           req.Kind,
		StatusID:       req.StatusID,
		Status:         models.ExportStatusQueued,
		CreatedBy:      actor.UserID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType}); err != nil {
		now := s.now().UTC()
		_, _ = s.repo.Update(ctx, job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportStatusFailed
			j.ErrorMessage = "failed to enqueue job"
			j.FinishedAt = &now
		})
		return nil, appErrors.Internal(err, "failed to enqueue export job")
	}
	return exportJobResponse(job), nil
}

// GetJob reports job state to its creator's organisation.
func (s *ExportJobService) GetJob(ctx context.Context, id string, actor models.Actor) (*dto.ExportJobResponse, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Internal(err, "failed to load export job")
	}
	if !actor.IsSystemAdmin() && (job.OrganisationID == nil || *job.OrganisationID != actor.OrganisationID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return exportJobResponse(job), nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.files.ParseToken(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Internal(err, "failed to load export job")
	}
	if job.Token != token || job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, size, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ExportDownload{
		File:        file,
		Size:        size,
		Filename:    filepath.Base(relPath),
		ContentType: s.files.ContentType(export.Format(job.Format)),
		ExpiresAt:   expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportJobService) cleanupExpired(ctx context.Context) {
	expired, err := s.repo.ListExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Warn("export cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.FilePath != "" {
			if err := s.files.Delete(job.FilePath); err != nil {
				s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("export cleanup forget failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.files.Cleanup(2 * s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func exportJobResponse(job *models.ExportJob) *dto.ExportJobResponse {
	resp := &dto.ExportJobResponse{
		ID:        job.ID,
		Status:    job.Status,
		Format:    job.Format,
		RowCount:  job.RowCount,
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt,
	}
	if job.Status == models.ExportStatusFinished && job.Token != "" {
		resp.DownloadURL = job.DownloadURL
		resp.ExpiresAt = job.ExpiresAt
	}
	return resp
}

// ExportWorker bridges queue jobs to the export generator.
type ExportWorker struct {
	repo      exportJobStore
	generator exportGenerator
	metrics   exportMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, generator exportGenerator, metrics exportMetrics, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{repo: repo, generator: generator, metrics: metrics, logger: logger, now: time.Now}
}

// Handle processes a queue job. Errors are retried by the queue; the job is
// put back to QUEUED so clients see it is still pending.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	started := w.now()
	record, err := w.repo.Update(ctx, job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusProcessing
	})
	if err != nil {
		return err
	}

	result, err := w.generator.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if _, updateErr := w.repo.Update(ctx, job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportStatusQueued
			j.ErrorMessage = msg
		}); updateErr != nil {
			w.logger.Warn("failed to mark export job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	now := w.now().UTC()
	if _, err := w.repo.Update(ctx, job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFinished
		j.RowCount = result.RowCount
		j.FilePath = result.RelativePath
		j.Token = result.Token
		j.DownloadURL = result.URL
		j.ErrorMessage = ""
		j.FinishedAt = &now
		j.ExpiresAt = &result.ExpiresAt
	}); err != nil {
		w.logger.Warn("failed to mark export job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	if w.metrics != nil {
		w.metrics.RecordExport(record.Format, models.ExportStatusFinished, w.now().Sub(started))
	}
	return nil
}

// Exhausted marks a job failed once the queue gives up on it.
func (w *ExportWorker) Exhausted(ctx context.Context, job jobs.Job, cause error) {
	now := w.now().UTC()
	record, err := w.repo.Update(ctx, job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFailed
		j.ErrorMessage = cause.Error()
		j.FinishedAt = &now
		expires := now.Add(time.Hour)
		j.ExpiresAt = &expires
	})
	if err != nil {
		w.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if w.metrics != nil {
		w.metrics.RecordExport(record.Format, models.ExportStatusFailed, now.Sub(job.Enqueued))
	}
}
