package ports

import (
	"context"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

type CatalogRepository interface {
	Load(ctx context.Context) (domain.Catalog, error)
}

type OperationHistoryRepository interface {
	Append(ctx context.Context, op domain.RobotOperation) error
	List(ctx context.Context) ([]domain.RobotOperation, error)
}

type Notifier interface {
	Notify(notification domain.Notification)
}
