package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noot-app/foodlens/internal/config"
	"github.com/noot-app/foodlens/internal/notify"
	"github.com/noot-app/foodlens/internal/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Environment:        "test",
		GeminiBaseURL:      "http://127.0.0.1:1",
		GeminiModels:       []string{"gemini-2.5-flash"},
		RecognitionTimeout: time.Second,
		ImageMaxWidth:      512,
		ImageQuality:       50,
		OFFBaseURL:         "http://127.0.0.1:1",
		BarcodeTimeout:     time.Second,
		DataDir:            dir,
		DBPath:             filepath.Join(dir, "foodlens.db"),
		ParquetPath:        filepath.Join(dir, "catalog.parquet"),
		MetadataPath:       filepath.Join(dir, "metadata.json"),
		LockFile:           filepath.Join(dir, "refresh.lock"),
		Port:               "8080",
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := New(ctx, cfg, config.NewTestLogger(io.Discard, "error"))
	require.NoError(t, err)

	assert.Nil(t, a.Dataset)
	assert.NotNil(t, a.MCPServer())

	assert.True(t, a.State.AddFoodToMeal(ctx, &types.ScanResult{
		FoodName:  "Poha",
		Nutrition: types.NutrientSet{Calories: 250, Protein: 5},
	}, types.Breakfast))
	assert.Len(t, a.State.Snapshot().Ledger.Breakfast, 1)

	require.NoError(t, a.Close())

	// the ledger survives a restart
	b, err := New(ctx, cfg, config.NewTestLogger(io.Discard, "error"))
	require.NoError(t, err)
	defer b.Close()
	day, err := b.Ledger.GetDailyIntake(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, day.Breakfast, 1)
}

func TestNew_CatalogUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	cfg := testConfig(t)
	cfg.CatalogEnabled = true
	cfg.ParquetURL = upstream.URL
	cfg.DisableRemoteCheck = true

	a, err := New(context.Background(), cfg, config.NewTestLogger(io.Discard, "error"))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Dataset)
	assert.Nil(t, a.catalog)
	assert.NoFileExists(t, cfg.ParquetPath)
}

func TestCheckReminders(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), config.NewTestLogger(io.Discard, "error"))
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.Reminders.ShouldInitialize(ctx))
	a.CheckReminders(ctx)
	assert.False(t, a.Reminders.ShouldInitialize(ctx))

	value, err := a.Store.Get(ctx, notify.InitKey)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(time.DateOnly), value)
}

func TestNew_BadDataDir(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.DataDir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.DataDir = filepath.Join(blocker, "data")

	_, err := New(context.Background(), cfg, config.NewTestLogger(io.Discard, "error"))
	assert.ErrorContains(t, err, "data dir")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchState(t *testing.T) {
	logs := &lockedBuffer{}
	a, err := New(context.Background(), testConfig(t), config.NewTestLogger(logs, "debug"))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.WatchState(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		a.State.UpdateWaterIntake(context.Background(), 2)
		return strings.Contains(logs.String(), "state updated")
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, logs.String(), "water=2")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WatchState did not return after cancel")
	}
}
