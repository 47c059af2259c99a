package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

type caseQueryMock struct {
	lastQuery dto.CaseQuery
	lastActor models.Actor
	items     []dto.CaseView
	detail    *dto.CaseDetail
	err       error
}

func (m *caseQueryMock) List(_ context.Context, q dto.CaseQuery, actor models.Actor) ([]dto.CaseView, *models.Pagination, error) {
	m.lastQuery = q
	m.lastActor = actor
	return m.items, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.items)}, m.err
}

func (m *caseQueryMock) Get(_ context.Context, id int64, actor models.Actor) (*dto.CaseDetail, error) {
	m.lastActor = actor
	return m.detail, m.err
}

func (m *caseQueryMock) History(context.Context, int64, models.Actor) ([]models.HistoryEntry, error) {
	return nil, m.err
}

type lifecycleMock struct {
	lastID     int64
	lastStatus dto.ChangeStatusRequest
	lastAssign dto.AssignCaseRequest
	result     *models.Case
	err        error
}

func (m *lifecycleMock) ChangeStatus(_ context.Context, id int64, req dto.ChangeStatusRequest, _ models.Actor) (*models.Case, error) {
	m.lastID = id
	m.lastStatus = req
	return m.result, m.err
}

func (m *lifecycleMock) Assign(_ context.Context, id int64, req dto.AssignCaseRequest, _ models.Actor) (*models.Case, error) {
	m.lastID = id
	m.lastAssign = req
	return m.result, m.err
}

func TestCaseHandlerListBindsFilters(t *testing.T) {
	queries := &caseQueryMock{items: []dto.CaseView{{Case: models.Case{ID: 4, FirstName: "Jo"}, StatusName: "Submitted"}}}
	handler := NewCaseHandler(queries, &lifecycleMock{})

	c, w := newGinContext(http.MethodGet, "/cases?kind=GRIEVANCE&open=true&page=2&pageSize=5&q=jo", nil)
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GRIEVANCE", queries.lastQuery.Kind)
	assert.True(t, queries.lastQuery.OpenOnly)
	assert.Equal(t, 2, queries.lastQuery.Page)
	assert.Equal(t, 5, queries.lastQuery.PageSize)
	assert.Equal(t, "jo", queries.lastQuery.Search)
	assert.Equal(t, int64(3), queries.lastActor.OrganisationID)

	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Submitted", envelope.Data[0]["status_name"])
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestCaseHandlerRequiresClaims(t *testing.T) {
	handler := NewCaseHandler(&caseQueryMock{}, &lifecycleMock{})
	c, w := newGinContext(http.MethodGet, "/cases", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCaseHandlerGetRejectsBadID(t *testing.T) {
	handler := NewCaseHandler(&caseQueryMock{}, &lifecycleMock{})
	c, w := newGinContext(http.MethodGet, "/cases/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, w).Error.Code)
}

func TestCaseHandlerGetNotFound(t *testing.T) {
	handler := NewCaseHandler(&caseQueryMock{err: appErrors.Clone(appErrors.ErrNotFound, "case not found")}, &lifecycleMock{})
	c, w := newGinContext(http.MethodGet, "/cases/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, w).Error.Code)
}

func TestCaseHandlerChangeStatus(t *testing.T) {
	lifecycle := &lifecycleMock{result: &models.Case{ID: 4, StatusID: models.StatusInProgress}}
	handler := NewCaseHandler(&caseQueryMock{}, lifecycle)

	c, w := newGinContext(http.MethodPost, "/cases/4/status", []byte(`{"statusId":2,"comment":"picked up"}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.ChangeStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), lifecycle.lastID)
	assert.Equal(t, models.StatusInProgress, lifecycle.lastStatus.StatusID)
	assert.Equal(t, "picked up", lifecycle.lastStatus.Comment)
	assert.Equal(t, float64(models.StatusInProgress), decodeEnvelope(t, w).Data["status_id"])
}

func TestCaseHandlerChangeStatusOnClosedCase(t *testing.T) {
	handler := NewCaseHandler(&caseQueryMock{}, &lifecycleMock{err: appErrors.ErrCaseClosed})

	c, w := newGinContext(http.MethodPost, "/cases/4/status", []byte(`{"statusId":2}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.ChangeStatus(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CASE_CLOSED", decodeEnvelope(t, w).Error.Code)
}

func TestCaseHandlerAssignRejectsMalformedBody(t *testing.T) {
	lifecycle := &lifecycleMock{}
	handler := NewCaseHandler(&caseQueryMock{}, lifecycle)

	c, w := newGinContext(http.MethodPost, "/cases/4/assign", []byte(`{"assigneeId":"x"`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	withClaims(c, 7, 3, models.RoleOrgAdmin)

	handler.Assign(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, lifecycle.lastID)
}
