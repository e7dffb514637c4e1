package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/models"
)

func newBundle(name string, price float64, createdAt time.Time, productIDs ...uuid.UUID) models.Bundle {
	b := models.Bundle{
		ID:          uuid.New(),
		Name:        name,
		BundlePrice: price,
		IsActive:    true,
		CreatedAt:   createdAt,
	}
	for i, id := range productIDs {
		b.Products = append(b.Products, models.BundleProduct{ProductID: id, Position: i})
	}
	return b
}

func TestBundleDiscountRequiresFullContainment(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	repo := &fakeBundleRepo{bundles: []models.Bundle{
		newBundle("Trio", 100, time.Now(), a, b, c),
	}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	// Cart holds only two of the three constituents
	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 50, Quantity: 1},
		{ProductID: b, Price: 60, Quantity: 1},
	})
	assert.False(t, result.Applied)
	assert.Zero(t, result.DiscountAmount)
}

func TestBundleDiscountBestSavingsWins(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	pair := newBundle("Pair", 90, time.Now(), a, b) // constituents 110, saves 20
	pair.OriginalPrice = 110
	trio := newBundle("Trio", 120, time.Now(), a, b, c) // constituents 180, saves 60
	trio.OriginalPrice = 180

	repo := &fakeBundleRepo{bundles: []models.Bundle{pair, trio}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 50, Quantity: 1},
		{ProductID: b, Price: 60, Quantity: 1},
		{ProductID: c, Price: 70, Quantity: 1},
	})

	require.True(t, result.Applied)
	assert.Equal(t, "Trio", result.Bundle.Name)
	assert.Equal(t, 60.0, result.DiscountAmount)
	// 60 / 180 = 33.3%, rounded
	assert.Equal(t, 33, result.DiscountPercentage)
}

func TestBundleDiscountPercentageUsesOriginalPrice(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	bundle := newBundle("Sale pair", 50, time.Now(), a, b)
	bundle.OriginalPrice = 70

	repo := &fakeBundleRepo{bundles: []models.Bundle{bundle}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	// Cart values the constituents at 100, so the saving is 50 — but the
	// percentage is relative to the listed original price of 70.
	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 40, Quantity: 1},
		{ProductID: b, Price: 60, Quantity: 1},
	})

	require.True(t, result.Applied)
	assert.Equal(t, 50.0, result.DiscountAmount)
	assert.Equal(t, 71, result.DiscountPercentage)
}

func TestBundleDiscountIgnoresNonPositiveSavings(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := &fakeBundleRepo{bundles: []models.Bundle{
		newBundle("Bad deal", 200, time.Now(), a, b), // constituents 110, would cost more
	}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 50, Quantity: 1},
		{ProductID: b, Price: 60, Quantity: 1},
	})
	assert.False(t, result.Applied)
}

func TestBundleDiscountTieKeepsEarliestCreated(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	older := newBundle("Older", 90, time.Now().Add(-time.Hour), a, b)
	newer := newBundle("Newer", 90, time.Now(), a, b)
	repo := &fakeBundleRepo{bundles: []models.Bundle{older, newer}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 50, Quantity: 1},
		{ProductID: b, Price: 60, Quantity: 1},
	})

	require.True(t, result.Applied)
	assert.Equal(t, "Older", result.Bundle.Name)
}

func TestBundleDiscountRespectsDateWindow(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	expired := newBundle("Expired", 90, time.Now().Add(-48*time.Hour), a, b)
	end := time.Now().Add(-24 * time.Hour)
	expired.EndDate = &end

	repo := &fakeBundleRepo{bundles: []models.Bundle{expired}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 50, Quantity: 1},
		{ProductID: b, Price: 60, Quantity: 1},
	})
	assert.False(t, result.Applied)
}

func TestBundleDiscountCountsQuantity(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := &fakeBundleRepo{bundles: []models.Bundle{
		newBundle("Pair", 90, time.Now(), a, b),
	}}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	// Two units of product a: constituent value 2*50 + 60 = 160
	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: a, Price: 50, Quantity: 2},
		{ProductID: b, Price: 60, Quantity: 1},
	})

	require.True(t, result.Applied)
	assert.Equal(t, 70.0, result.DiscountAmount)
}

func TestBundleDiscountDegradesOnRepositoryError(t *testing.T) {
	repo := &fakeBundleRepo{listErr: errors.New("db down")}
	svc := NewBundleService(repo, newFakeProductRepo(), testLogger())

	result := svc.ComputeDiscount(context.Background(), []models.CartItem{
		{ProductID: uuid.New(), Price: 50, Quantity: 1},
	})
	assert.False(t, result.Applied)
	assert.Zero(t, result.DiscountAmount)
}

func TestCreateBundleValidation(t *testing.T) {
	p1 := &models.Product{ID: uuid.New(), Title: "A", BasePrice: 50}
	p2 := &models.Product{ID: uuid.New(), Title: "B", BasePrice: 60}
	svc := NewBundleService(&fakeBundleRepo{}, newFakeProductRepo(p1, p2), testLogger())

	t.Run("rejects fewer than two distinct products", func(t *testing.T) {
		_, err := svc.CreateBundle(context.Background(), &models.CreateBundleRequest{
			Name:        "Solo",
			ProductIDs:  []uuid.UUID{p1.ID, p1.ID},
			BundlePrice: 40,
		})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects bundle price at or above original", func(t *testing.T) {
		_, err := svc.CreateBundle(context.Background(), &models.CreateBundleRequest{
			Name:        "No deal",
			ProductIDs:  []uuid.UUID{p1.ID, p2.ID},
			BundlePrice: 110,
		})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("derives original price and type", func(t *testing.T) {
		bundle, err := svc.CreateBundle(context.Background(), &models.CreateBundleRequest{
			Name:        "Pair",
			ProductIDs:  []uuid.UUID{p1.ID, p2.ID},
			BundlePrice: 90,
		})
		require.NoError(t, err)
		assert.Equal(t, 110.0, bundle.OriginalPrice)
		assert.Equal(t, "2-products", bundle.BundleType)
		assert.True(t, bundle.IsActive)
	})
}
