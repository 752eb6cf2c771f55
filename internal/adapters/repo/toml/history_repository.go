package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	historyPathKey       = "history.path"
	historyMaxEntriesKey = "history.max_entries"
	historyFileName      = "history.toml"
	defaultHistoryMax    = 500
)

// HistoryRepository keeps finished robot operations in a TOML file. Only the
// newest entries up to the configured maximum are retained.
type HistoryRepository struct {
	path       string
	maxEntries int
	mu         *sync.RWMutex
}

var _ ports.OperationHistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(cfg *viper.Viper) (*HistoryRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(historyPathKey)
	if path == "" {
		var err error
		path, err = defaultPath(historyFileName)
		if err != nil {
			return nil, err
		}
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	maxEntries := cfg.GetInt(historyMaxEntriesKey)
	if maxEntries <= 0 {
		maxEntries = defaultHistoryMax
	}

	return &HistoryRepository{path: path, maxEntries: maxEntries, mu: lockForPath(path)}, nil
}

func (r *HistoryRepository) Path() string {
	return r.path
}

func (r *HistoryRepository) Append(ctx context.Context, op domain.RobotOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	file.Operations = append(file.Operations, toOperationSchema(op))
	if overflow := len(file.Operations) - r.maxEntries; overflow > 0 {
		file.Operations = file.Operations[overflow:]
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.path, file)
}

// List returns the persisted operations oldest first.
func (r *HistoryRepository) List(ctx context.Context) ([]domain.RobotOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	ops := make([]domain.RobotOperation, 0, len(file.Operations))
	for _, entry := range file.Operations {
		ops = append(ops, fromOperationSchema(entry))
	}

	return ops, nil
}

func (r *HistoryRepository) readSchema() (historyFileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := historyFileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return historyFileSchema{}, fmt.Errorf("read history file: %w", err)
	}

	var file historyFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return historyFileSchema{}, fmt.Errorf("decode history file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return historyFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toOperationSchema(op domain.RobotOperation) operationSchema {
	return operationSchema{
		ID:          string(op.ID),
		Type:        string(op.Type),
		Part:        toPartSchema(op.Part),
		StationID:   string(op.StationID),
		StationName: op.StationName,
		Status:      string(op.Status),
		Error:       op.Error,
		CreatedAt:   formatTime(op.CreatedAt),
		UpdatedAt:   formatTime(op.UpdatedAt),
	}
}

func fromOperationSchema(op operationSchema) domain.RobotOperation {
	return domain.RobotOperation{
		ID:          domain.OperationID(op.ID),
		Type:        domain.OperationType(op.Type),
		Part:        fromPartSchema(op.Part),
		StationID:   domain.StationID(op.StationID),
		StationName: op.StationName,
		Status:      domain.OperationStatus(op.Status),
		Error:       op.Error,
		CreatedAt:   parseTime(op.CreatedAt),
		UpdatedAt:   parseTime(op.UpdatedAt),
	}
}
