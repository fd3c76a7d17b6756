package service

import (
	"context"
	"testing"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$50", formatPrice(50))
	assert.Equal(t, "$49.99", formatPrice(49.99))
	assert.Equal(t, "$12.50", formatPrice(12.5))
}

func TestBusinessCatalog_CreateServiceEnforcesMinimum(t *testing.T) {
	r := setupServiceTest(t)
	svc := NewBusinessCatalogService(r.catalog, r.offerings)
	ctx := context.Background()
	business, _ := createBusiness(t, r, "user-1", true)
	haircut := createCatalogService(t, r, "Haircut", 50)

	_, err := svc.CreateService(ctx, business.ID, OfferingInput{ServiceID: haircut.ID, BusinessPrice: floatPtr(40)})
	require.Error(t, err)
	info := apperrors.Normalize(err)
	assert.Equal(t, 400, info.Status)
	assert.Equal(t, apperrors.PricingBelowMinimum, info.Code)
	assert.Equal(t, "must be at least $50", info.Message)

	created, err := svc.CreateService(ctx, business.ID, OfferingInput{ServiceID: haircut.ID, BusinessPrice: floatPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, 60.0, created.BusinessPrice)
	assert.Equal(t, haircut.DefaultDurationMinutes, created.BusinessDurationMinutes)
	assert.Equal(t, model.DeliveryBusinessLocation, created.DeliveryType)
}

func TestBusinessCatalog_CreateServiceUnknown(t *testing.T) {
	r := setupServiceTest(t)
	svc := NewBusinessCatalogService(r.catalog, r.offerings)
	business, _ := createBusiness(t, r, "user-1", true)

	_, err := svc.CreateService(context.Background(), business.ID, OfferingInput{ServiceID: 404, BusinessPrice: floatPtr(60)})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestBusinessCatalog_UpdateServiceVersioned(t *testing.T) {
	r := setupServiceTest(t)
	svc := NewBusinessCatalogService(r.catalog, r.offerings)
	ctx := context.Background()
	business, _ := createBusiness(t, r, "user-1", true)
	haircut := createCatalogService(t, r, "Haircut", 50)

	created, err := svc.CreateService(ctx, business.ID, OfferingInput{ServiceID: haircut.ID, BusinessPrice: floatPtr(60)})
	require.NoError(t, err)

	_, err = svc.UpdateService(ctx, business.ID, created.ID, OfferingInput{BusinessPrice: floatPtr(45)})
	assert.ErrorIs(t, err, ErrPriceBelowMinimum)

	_, err = svc.UpdateService(ctx, business.ID, created.ID, OfferingInput{BusinessDurationMinutes: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	updated, err := svc.UpdateService(ctx, business.ID, created.ID, OfferingInput{
		BusinessPrice: floatPtr(75),
		Version:       intPtr(created.Version),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.BusinessPrice)
	assert.Equal(t, created.Version+1, updated.Version)

	// the same version again lost the race
	_, err = svc.UpdateService(ctx, business.ID, created.ID, OfferingInput{
		BusinessPrice: floatPtr(80),
		Version:       intPtr(created.Version),
	})
	assert.ErrorIs(t, err, ErrVersionStale)

	other, _ := createBusiness(t, r, "user-2", true)
	_, err = svc.UpdateService(ctx, other.ID, created.ID, OfferingInput{BusinessPrice: floatPtr(80)})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestBusinessCatalog_DeleteService(t *testing.T) {
	r := setupServiceTest(t)
	svc := NewBusinessCatalogService(r.catalog, r.offerings)
	ctx := context.Background()
	business, _ := createBusiness(t, r, "user-1", true)
	haircut := createCatalogService(t, r, "Haircut", 50)

	created, err := svc.CreateService(ctx, business.ID, OfferingInput{ServiceID: haircut.ID, BusinessPrice: floatPtr(60)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteService(ctx, business.ID, created.ID))
	assert.ErrorIs(t, svc.DeleteService(ctx, business.ID, created.ID), ErrServiceNotFound)

	list, err := svc.ListServices(ctx, business.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBusinessCatalog_UpdateAddon(t *testing.T) {
	r := setupServiceTest(t)
	svc := NewBusinessCatalogService(r.catalog, r.offerings)
	ctx := context.Background()
	business, _ := createBusiness(t, r, "user-1", true)
	haircut := createCatalogService(t, r, "Haircut", 50)

	addon := &model.Addon{ServiceID: haircut.ID, Name: "Beard trim", DefaultPrice: 15, IsActive: true}
	require.NoError(t, r.catalog.UpsertAddon(ctx, addon))

	_, err := svc.UpdateAddon(ctx, business.ID, addon.ID, AddonInput{CustomPrice: 0, IsAvailable: true})
	assert.ErrorIs(t, err, ErrInvalidAddonPrice)

	_, err = svc.UpdateAddon(ctx, business.ID, 9999, AddonInput{CustomPrice: 10, IsAvailable: true})
	assert.ErrorIs(t, err, ErrAddonNotFound)

	// unavailable addons may carry no price
	off, err := svc.UpdateAddon(ctx, business.ID, addon.ID, AddonInput{IsAvailable: false})
	require.NoError(t, err)
	assert.False(t, off.IsAvailable)

	on, err := svc.UpdateAddon(ctx, business.ID, addon.ID, AddonInput{CustomPrice: 20, IsAvailable: true})
	require.NoError(t, err)
	assert.True(t, on.IsAvailable)
	assert.Equal(t, 20.0, on.CustomPrice)

	addons, err := svc.ListAddons(ctx, business.ID)
	require.NoError(t, err)
	assert.Len(t, addons, 1)
}
