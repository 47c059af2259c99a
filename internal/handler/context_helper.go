package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/middleware"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (models.Actor, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}, appErrors.ErrUnauthorized
	}
	return models.ActorFromClaims(claims), nil
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
