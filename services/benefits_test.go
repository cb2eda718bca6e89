package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlockLevelBenefitBelowRequiredLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.createBenefit(t, "meal-plan", 3, `{}`)
	f.give(t, "erin", 150) // level 2

	_, err := f.benefits.UnlockLevelBenefit(ctx, "erin", b.ID)
	var lvlErr *services.LevelRequirementError
	require.True(t, errors.As(err, &lvlErr))
	assert.Equal(t, 2, lvlErr.UserLevel)
	assert.Equal(t, 3, lvlErr.RequiredLevel)
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "3")

	var rows int64
	require.NoError(t, f.db.Model(&models.UserLevelBenefit{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestUnlockLevelBenefitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.createBenefit(t, "recipes", 2, `{}`)
	f.give(t, "finn", 120)

	first, err := f.benefits.UnlockLevelBenefit(ctx, "finn", b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BenefitUnlocked, first.Status)
	assert.Equal(t, "recipes", first.Benefit.Code)

	second, err := f.benefits.UnlockLevelBenefit(ctx, "finn", b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var rows int64
	require.NoError(t, f.db.Model(&models.UserLevelBenefit{}).Where("user_id = ?", "finn").Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestUnlockLevelBenefitUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.benefits.UnlockLevelBenefit(context.Background(), "gus", "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestUseLevelBenefitSpendsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.createBenefit(t, "coaching", 2, `{"points_cost": 50}`)
	f.give(t, "hana", 150)

	_, err := f.benefits.UnlockLevelBenefit(ctx, "hana", b.ID)
	require.NoError(t, err)

	used, err := f.benefits.UseLevelBenefit(ctx, "hana", b.ID, models.JSON(`{"slot":"monday"}`))
	require.NoError(t, err)
	assert.Equal(t, models.BenefitUsed, used.Status)
	require.NotNil(t, used.UsedAt)

	assert.EqualValues(t, 100, f.balance(t, "hana"))
	assert.EqualValues(t, 1, f.ledgerCount(t, "hana", models.RefLevelBenefit))
	assert.Equal(t, f.balance(t, "hana"), f.ledgerSum(t, "hana"))

	_, err = f.benefits.UseLevelBenefit(ctx, "hana", b.ID, nil)
	assert.True(t, errors.Is(err, services.ErrBenefitNotUnlocked))
	assert.EqualValues(t, 100, f.balance(t, "hana"))
	assert.EqualValues(t, 1, f.ledgerCount(t, "hana", models.RefLevelBenefit))
}

func TestUseLevelBenefitNeverUnlocked(t *testing.T) {
	f := newFixture(t)
	b := f.createBenefit(t, "theme", 1, `{}`)

	_, err := f.benefits.UseLevelBenefit(context.Background(), "ivan", b.ID, nil)
	assert.True(t, errors.Is(err, services.ErrBenefitNotUnlocked))
}

func TestUseLevelBenefitCanOverdrawByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.createBenefit(t, "pricey", 2, `{"points_cost": 500}`)
	f.give(t, "jane", 150)

	_, err := f.benefits.UnlockLevelBenefit(ctx, "jane", b.ID)
	require.NoError(t, err)
	_, err = f.benefits.UseLevelBenefit(ctx, "jane", b.ID, nil)
	require.NoError(t, err)

	up, err := f.points.GetUserPoints(ctx, "jane")
	require.NoError(t, err)
	assert.EqualValues(t, -350, up.TotalPoints)
	assert.Equal(t, 1, up.CurrentLevel)
}

func TestUseLevelBenefitGuardedBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.benefits.AllowNegativeBalance = false
	b := f.createBenefit(t, "pricey", 2, `{"points_cost": 500}`)
	f.give(t, "kai", 150)

	_, err := f.benefits.UnlockLevelBenefit(ctx, "kai", b.ID)
	require.NoError(t, err)

	_, err = f.benefits.UseLevelBenefit(ctx, "kai", b.ID, nil)
	assert.True(t, errors.Is(err, services.ErrInsufficientPoints))
	assert.EqualValues(t, 150, f.balance(t, "kai"))

	rows, err := f.benefits.GetUserLevelBenefits(ctx, "kai")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.BenefitUnlocked, rows[0].Status)
}

func TestUseLevelBenefitGuardedBalanceUnderConcurrentSpends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.benefits.AllowNegativeBalance = false
	first := f.createBenefit(t, "snack-pack", 2, `{"points_cost": 80}`)
	second := f.createBenefit(t, "smoothie-pack", 2, `{"points_cost": 80}`)
	f.give(t, "lia", 100)

	for _, b := range []models.LevelBenefit{first, second} {
		_, err := f.benefits.UnlockLevelBenefit(ctx, "lia", b.ID)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, b := range []models.LevelBenefit{first, second} {
		wg.Add(1)
		go func(i int, benefitID string) {
			defer wg.Done()
			_, errs[i] = f.benefits.UseLevelBenefit(ctx, "lia", benefitID, nil)
		}(i, b.ID)
	}
	wg.Wait()

	succeeded, refused := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, services.ErrInsufficientPoints):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, refused)
	assert.EqualValues(t, 20, f.balance(t, "lia"))
	assert.EqualValues(t, 20, f.ledgerSum(t, "lia"))
	assert.EqualValues(t, 1, f.ledgerCount(t, "lia", models.RefLevelBenefit))
}

func TestExpireStaleBenefits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	short := f.createBenefit(t, "short", 1, `{"expires_in_days": 1}`)
	forever := f.createBenefit(t, "forever", 1, `{}`)

	_, err := f.benefits.UnlockLevelBenefit(ctx, "lee", short.ID)
	require.NoError(t, err)
	_, err = f.benefits.UnlockLevelBenefit(ctx, "lee", forever.ID)
	require.NoError(t, err)

	n, err := f.benefits.ExpireStaleBenefits(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.benefits.ExpireStaleBenefits(ctx, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := f.benefits.GetUserLevelBenefits(ctx, "lee")
	require.NoError(t, err)
	status := map[string]models.BenefitStatus{}
	for _, r := range rows {
		status[r.Benefit.Code] = r.Status
	}
	assert.Equal(t, models.BenefitExpired, status["short"])
	assert.Equal(t, models.BenefitUnlocked, status["forever"])

	_, err = f.benefits.UseLevelBenefit(ctx, "lee", short.ID, nil)
	assert.True(t, errors.Is(err, services.ErrBenefitNotUnlocked))
}

func TestListLevelBenefitsHidesInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBenefit(t, "b-high", 5, `{}`)
	f.createBenefit(t, "a-low", 1, `{}`)
	retired := f.createBenefit(t, "retired", 1, `{}`)
	require.NoError(t, f.db.Model(&retired).Update("is_active", false).Error)

	list, err := f.benefits.ListLevelBenefits(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-low", list[0].Code)
	assert.Equal(t, "b-high", list[1].Code)
}
