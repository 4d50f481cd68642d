package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/persistence"
)

func setupService(t *testing.T, opts ...Option) (*Service, *persistence.LocalStore) {
	t.Helper()
	db, err := persistence.NewDatabase(&config.StorageConfig{Path: persistence.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := persistence.NewLocalStore(db.DB)
	return NewService(store, opts...), store
}

func ptr[T any](v T) *T { return &v }

func TestService_LoadDefaults(t *testing.T) {
	svc, _ := setupService(t)

	a, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultAppearance(), a)
}

func TestService_SaveMergesPatch(t *testing.T) {
	ctx := context.Background()
	n := notify.NewNotifier()
	svc, _ := setupService(t, WithNotifier(n))

	var seen []Appearance
	unsubscribe := svc.Subscribe(func(a Appearance) { seen = append(seen, a) })

	a, err := svc.Save(ctx, Patch{Theme: ptr(ThemeDark)})
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, a.Theme)
	assert.Equal(t, 16, a.FontSize)

	a, err = svc.Save(ctx, Patch{FontSize: ptr(18)})
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, a.Theme)
	assert.Equal(t, 18, a.FontSize)

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, loaded)
	assert.Len(t, seen, 2)

	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Размер шрифта изменен", msg.Text)
	assert.Equal(t, notify.DefaultSettingsTTL, msg.ExpiresAt.Sub(msg.CreatedAt))

	unsubscribe()
	_, err = svc.Save(ctx, Patch{Animations: ptr(false)})
	require.NoError(t, err)
	assert.Len(t, seen, 2)

	msg, _ = n.Current()
	assert.Equal(t, "Анимации выключены", msg.Text)
}

func TestService_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Save(ctx, Patch{Theme: ptr(Theme("neon")), PrimaryColor: ptr("blue")})
	errs, ok := form.AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"primaryColor", "theme"}, errs.Fields())

	_, err = svc.Save(ctx, Patch{FontSize: ptr(40)})
	assert.Error(t, err)

	a, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppearance(), a)
}

func TestService_CorruptAppearanceFallsBack(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)

	require.NoError(t, store.Set(ctx, persistence.KeySettings, "{broken"))
	a, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppearance(), a)

	require.NoError(t, store.Set(ctx, persistence.KeySettings, `{"theme":"neon"}`))
	a, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppearance(), a)

	// partial objects keep the defaults of missing fields
	require.NoError(t, store.Set(ctx, persistence.KeySettings, `{"theme":"light"}`))
	a, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, a.Theme)
	assert.True(t, a.RoundedCorners)
}

func TestService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Save(ctx, Patch{Density: ptr(DensityCompact)})
	require.NoError(t, err)

	a, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppearance(), a)

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, DensityComfortable, loaded.Density)
}

func TestService_Thresholds(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := notify.NewNotifier(notify.WithClock(func() time.Time { return clock }))
	svc, store := setupService(t, WithNotifier(n))

	th, err := svc.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultThresholds(), th)

	var got []catalog.Thresholds
	svc.SubscribeThresholds(func(t catalog.Thresholds) { got = append(got, t) })

	require.NoError(t, svc.SaveThresholds(ctx, catalog.Thresholds{Low: 5, Medium: 20}))
	th, err = svc.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Thresholds{Low: 5, Medium: 20}, th)

	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, MessageThresholdsSaved, msg.Text)

	err = svc.SaveThresholds(ctx, catalog.Thresholds{Low: -1, Medium: 20})
	assert.ErrorIs(t, err, ErrLowThreshold)
	err = svc.SaveThresholds(ctx, catalog.Thresholds{Low: 20, Medium: 20})
	assert.ErrorIs(t, err, ErrMediumThreshold)
	_, ok = shared.AsDomainError(err)
	assert.True(t, ok)

	require.NoError(t, store.Set(ctx, persistence.KeyMediumStockThreshold, "lots"))
	th, err = svc.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Thresholds{Low: 5, Medium: catalog.DefaultMediumStockThreshold}, th)

	require.NoError(t, store.Set(ctx, persistence.KeyLowStockThreshold, "80"))
	th, err = svc.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultThresholds(), th)

	th, err = svc.ResetThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultThresholds(), th)
	require.Len(t, got, 2)
	assert.Equal(t, catalog.DefaultThresholds(), got[1])

	_, ok, err = store.Get(ctx, persistence.KeyLowStockThreshold)
	require.NoError(t, err)
	assert.False(t, ok)
}
