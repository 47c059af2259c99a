package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	"github.com/rahulvs07/complyark-data-shield/pkg/export"
	"github.com/rahulvs07/complyark-data-shield/pkg/storage"
)

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadCloser, int64, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       export.Format
	RowCount     int
	ExpiresAt    time.Time
}

// ExportService renders case registers and persists them for signed download.
type ExportService struct {
	store     repository.Store
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(store repository.Store, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		store:   store,
		storage: files,
		signer:  signer,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV: export.NewCSVRenderer(),
			export.FormatPDF: export.NewPDFRenderer(),
		},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// ContentType returns the MIME type of f.
func (s *ExportService) ContentType(f export.Format) string {
	if r, ok := s.renderers[f]; ok {
		return r.ContentType()
	}
	return "application/octet-stream"
}

// Generate renders the case register described by job and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	format, err := export.ParseFormat(job.Format)
	if err != nil {
		return nil, err
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("no renderer for %s", format)
	}

	dataset, err := s.caseRegister(ctx, job)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	name := fmt.Sprintf("%s/case-register-%s%s", s.now().UTC().Format("2006-01-02"), job.ID, format.Extension())
	relPath, err := s.storage.Save(name, content)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, fmt.Errorf("sign download: %w", err)
	}

	s.logger.Info("case register exported",
		zap.String("job_id", job.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int("bytes", len(content)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.cfg.APIPrefix + "/public/export/" + token,
		Format:       format,
		RowCount:     len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token)
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(relPath string) (io.ReadCloser, int64, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes stored exports older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

var caseRegisterColumns = []export.Column{
	{Key: "id", Label: "Case", Width: 0.6},
	{Key: "kind", Label: "Kind", Width: 1.2},
	{Key: "request_type", Label: "Request Type"},
	{Key: "requester", Label: "Requester", Width: 1.4},
	{Key: "email", Label: "Email", Width: 1.6},
	{Key: "phone", Label: "Phone"},
	{Key: "status", Label: "Status"},
	{Key: "assigned_to", Label: "Assigned To", Width: 1.2},
	{Key: "created_at", Label: "Created"},
	{Key: "due_date", Label: "Due"},
	{Key: "closed_at", Label: "Closed"},
	{Key: "on_time", Label: "On Time", Width: 0.6},
}

func (s *ExportService) caseRegister(ctx context.Context, job *models.ExportJob) (export.Dataset, error) {
	filter := models.CaseFilter{
		OrganisationID: job.OrganisationID,
		Kind:           job.Kind,
		StatusID:       job.StatusID,
	}
	cases, _, err := s.store.ListCases(ctx, filter)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("list cases: %w", err)
	}
	names, err := loadNames(ctx, s.store, job.OrganisationID)
	if err != nil {
		return export.Dataset{}, err
	}

	title := "Case register"
	if job.OrganisationID != nil {
		if org, err := s.store.GetOrganisation(ctx, *job.OrganisationID); err == nil {
			title = "Case register - " + org.Name
		}
	}

	rows := make([]map[string]string, 0, len(cases))
	for _, c := range cases {
		row := map[string]string{
			"id":           strconv.FormatInt(c.ID, 10),
			"kind":         string(c.Kind),
			"request_type": string(c.RequestType),
			"requester":    c.FullName(),
			"email":        c.Email,
			"phone":        c.Phone,
			"status":       names.statusName(c.StatusID),
			"assigned_to":  names.userName(c.AssignedTo),
			"created_at":   c.CreatedAt.UTC().Format(time.RFC3339),
			"due_date":     c.DueDate.UTC().Format("2006-01-02"),
			"closed_at":    "",
			"on_time":      "",
		}
		if c.ClosedAt != nil {
			row["closed_at"] = c.ClosedAt.UTC().Format(time.RFC3339)
			row["on_time"] = strconv.FormatBool(c.CompletedOnTime)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: title, Columns: caseRegisterColumns, Rows: rows}, nil
}
