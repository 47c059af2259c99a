package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/middleware"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

type listEnvelope struct {
	Data       []map[string]interface{} `json:"data"`
	Pagination *models.Pagination       `json:"pagination"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withClaims(c *gin.Context, userID, orgID int64, role models.UserRole) {
	middleware.SetClaims(c, &models.JWTClaims{UserID: userID, OrganisationID: orgID, Role: role, FullName: "Ava Admin"})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}
