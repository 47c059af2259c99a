package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

const (
	demoOrganisationName = "Demo Corp"
	demoAdminEmail       = "admin@democorp.example"
)

// SeedDemoData creates the "Demo Corp" organisation when it is missing and,
// when adminPassword is set, an organisation administrator for it.
func SeedDemoData(ctx context.Context, store repository.Store, adminPassword string, logger *zap.Logger) (*models.Organisation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	orgs, err := store.ListOrganisations(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list organisations")
	}
	var demo *models.Organisation
	for i := range orgs {
		if strings.EqualFold(orgs[i].Name, demoOrganisationName) {
			demo = &orgs[i]
			break
		}
	}

	if demo == nil {
		industries, err := store.ListIndustries(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list industries")
		}
		demo = &models.Organisation{
			Name:         demoOrganisationName,
			IndustryID:   technologyIndustry(industries),
			ContactEmail: "privacy@democorp.example",
			IsActive:     true,
		}
		if err := store.CreateOrganisation(ctx, demo); err != nil {
			return nil, appErrors.Internal(err, "failed to create demo organisation")
		}
		logger.Info("demo organisation created", zap.Int64("organisation_id", demo.ID))
	}

	if adminPassword == "" {
		return demo, nil
	}
	users := NewUserService(store, nil, logger)
	admin := models.Actor{Role: models.RoleSystemAdmin, Name: "seed"}
	_, err = users.Create(ctx, dto.CreateUserRequest{
		OrganisationID: demo.ID,
		Email:          demoAdminEmail,
		Password:       adminPassword,
		FirstName:      "Demo",
		LastName:       "Admin",
		Role:           models.RoleOrgAdmin,
	}, admin)
	if err != nil && !errors.Is(err, appErrors.ErrConflict) {
		return nil, err
	}
	return demo, nil
}

func technologyIndustry(industries []models.Industry) int64 {
	for _, ind := range industries {
		if ind.Name == "Technology" {
			return ind.ID
		}
	}
	if len(industries) > 0 {
		return industries[0].ID
	}
	return 1
}
