package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T, path string, maxEntries int) *HistoryRepository {
	t.Helper()

	config := viper.New()
	config.Set("history.path", path)
	if maxEntries > 0 {
		config.Set("history.max_entries", maxEntries)
	}

	repo, err := NewHistoryRepository(config)
	require.NoError(t, err)
	return repo
}

func completedOperation(seq uint64) domain.RobotOperation {
	created := time.Date(2026, 3, 2, 9, 0, int(seq), 0, time.UTC)
	return domain.RobotOperation{
		ID:          domain.NewOperationID(seq),
		Type:        domain.OperationRetrieve,
		Part:        domain.Part{ID: "1", Name: "Gear Assembly", Category: "mechanical", TrayID: "T001"},
		StationID:   "A",
		StationName: "Station A",
		Status:      domain.OperationCompleted,
		CreatedAt:   created,
		UpdatedAt:   created.Add(4 * time.Second),
	}
}

func TestHistoryRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestHistory(t, filepath.Join(t.TempDir(), "history.toml"), 0)

	first := completedOperation(1)
	second := completedOperation(2)
	second.Type = domain.OperationRelease
	second.Status = domain.OperationError
	second.Error = "release phase moving: tray stuck"

	require.NoError(t, repo.Append(context.Background(), first))
	require.NoError(t, repo.Append(context.Background(), second))

	ops, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.RobotOperation{first, second}, ops)
}

func TestHistoryRepositoryKeepsNewestEntries(t *testing.T) {
	t.Parallel()

	repo := newTestHistory(t, filepath.Join(t.TempDir(), "history.toml"), 3)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, repo.Append(context.Background(), completedOperation(i)))
	}

	ops, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, domain.OperationID("op-000003"), ops[0].ID)
	assert.Equal(t, domain.OperationID("op-000005"), ops[2].ID)
}

func TestHistoryRepositoryCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewHistoryRepository(viper.New())
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), completedOperation(1)))

	historyPath := filepath.Join(homeDir, ".config", "ams", "history.toml")
	assert.Equal(t, historyPath, repo.Path())
	info, err := os.Stat(historyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestHistoryRepositoryMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo := newTestHistory(t, filepath.Join(t.TempDir(), "missing", "history.toml"), 0)

	ops, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestHistoryRepositoryMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	historyPath := filepath.Join(t.TempDir(), "history.toml")
	require.NoError(t, os.WriteFile(historyPath, []byte("operations = ["), 0o600))

	repo := newTestHistory(t, historyPath, 0)
	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode history file")
}

func TestHistoryRepositoryCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestHistory(t, filepath.Join(t.TempDir(), "history.toml"), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Append(ctx, completedOperation(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHistoryRepositoryConcurrentAppendsAcrossInstances(t *testing.T) {
	t.Parallel()

	historyPath := filepath.Join(t.TempDir(), "history.toml")
	repoA := newTestHistory(t, historyPath, 1000)
	repoB := newTestHistory(t, historyPath, 1000)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(repo *HistoryRepository, offset int) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			op := completedOperation(uint64(offset + i))
			op.Part.ID = domain.PartID(strconv.Itoa(offset + i))
			errCh <- repo.Append(context.Background(), op)
		}
	}
	go write(repoA, 0)
	go write(repoB, 1000)

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	ops, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ops, perRepoWrites*2)
}

func TestHistoryRepositorySerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	historyPath := filepath.Join(t.TempDir(), "history.toml")
	repo := newTestHistory(t, historyPath, 0)
	require.NoError(t, repo.Append(context.Background(), completedOperation(1)))

	data, err := os.ReadFile(historyPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "op-000001")
}

func TestHistoryRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	historyPath := filepath.Join(t.TempDir(), "history.toml")
	require.NoError(t, os.WriteFile(historyPath, []byte(strings.Join([]string{
		"version = 999",
		"",
		"operations = []",
		"",
	}, "\n")), 0o600))

	repo := newTestHistory(t, historyPath, 0)
	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported history schema version")
}
