package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/service"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

type exportServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	lastRequest dto.ExportRequest
	download    *service.ExportDownload
	downloadErr error
}

func (m *exportServiceMock) CreateJob(_ context.Context, req dto.ExportRequest, _ models.Actor) (*dto.ExportJobResponse, error) {
	m.lastRequest = req
	return m.createResp, m.createErr
}

func (m *exportServiceMock) GetJob(context.Context, string, models.Actor) (*dto.ExportJobResponse, error) {
	return m.createResp, m.createErr
}

func (m *exportServiceMock) ResolveDownload(context.Context, string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func TestExportHandlerCreate(t *testing.T) {
	mock := &exportServiceMock{createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued, Format: "csv"}}
	handler := NewExportHandler(mock)

	c, w := newGinContext(http.MethodPost, "/exports", []byte(`{"format":"csv","kind":"GRIEVANCE"}`))
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.CaseKindGrievance, mock.lastRequest.Kind)
	assert.Equal(t, "job-1", decodeEnvelope(t, w).Data["id"])
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	content := "id,kind\n1,GRIEVANCE\n"
	mock := &exportServiceMock{download: &service.ExportDownload{
		File:        io.NopCloser(strings.NewReader(content)),
		Size:        int64(len(content)),
		Filename:    "cases.csv",
		ContentType: "text/csv",
		ExpiresAt:   time.Now().Add(time.Minute),
	}}
	handler := NewExportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/public/export/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cases.csv")
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})

	c, w := newGinContext(http.MethodGet, "/public/export/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportHandlerDisabled(t *testing.T) {
	handler := NewExportHandler(nil)

	c, w := newGinContext(http.MethodPost, "/exports", []byte(`{"format":"csv"}`))
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.Create(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
