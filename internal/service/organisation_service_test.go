package service

import (
	"context"
	"net/url"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/tenant"
)

func TestOrganisationCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewOrganisationService(store, nil, nil, "https://complyark.example/request")

	org, err := svc.Create(ctx, dto.CreateOrganisationRequest{Name: " Acme ", IndustryID: 2, ContactEmail: "dpo@acme.io"}, systemAdmin())
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
	assert.Equal(t, "Healthcare", org.IndustryName)
	assert.True(t, org.IsActive)

	_, err = svc.Create(ctx, dto.CreateOrganisationRequest{Name: "Globex", IndustryID: 99}, systemAdmin())
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, dto.CreateOrganisationRequest{Name: "Globex", IndustryID: 1}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrForbidden)

	industry := int64(4)
	inactive := false
	updated, err := svc.Update(ctx, org.ID, dto.UpdateOrganisationRequest{IndustryID: &industry, IsActive: &inactive}, systemAdmin())
	require.NoError(t, err)
	assert.Equal(t, "Technology", updated.IndustryName)
	assert.False(t, updated.IsActive)

	blank := "  "
	_, err = svc.Update(ctx, org.ID, dto.UpdateOrganisationRequest{Name: &blank}, systemAdmin())
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, 404, dto.UpdateOrganisationRequest{}, systemAdmin())
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestOrganisationVisibility(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	svc := NewOrganisationService(store, nil, nil, "")

	orgs, err := svc.List(ctx, orgAdmin(acme.ID))
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, acme.ID, orgs[0].ID)

	all, err := svc.List(ctx, systemAdmin())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Get(ctx, globex.ID, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestOrganisationIntakeLink(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	svc := NewOrganisationService(store, nil, nil, "https://complyark.example/request")

	link, err := svc.IntakeLink(ctx, acme.ID, orgAdmin(acme.ID))
	require.NoError(t, err)
	assert.Equal(t, tenant.Encode(acme.ID), link.Token)

	parsed, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "complyark.example", parsed.Host)
	assert.Equal(t, "/request/"+link.Token, parsed.Path)
	decoded, err := tenant.Decode(path.Base(parsed.Path))
	require.NoError(t, err)
	assert.Equal(t, acme.ID, decoded)

	_, err = svc.IntakeLink(ctx, globex.ID, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestCatalogService(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCatalogService(store)

	statuses, err := svc.Statuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 6)
	assert.Equal(t, "Submitted", statuses[0].Name)
	assert.True(t, statuses[5].IsTerminal)

	industries, err := svc.Industries(context.Background())
	require.NoError(t, err)
	assert.Len(t, industries, 8)
}
