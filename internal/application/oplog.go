package application

import (
	"errors"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

const RecentOperationsWindow = 10

var errOperationNotFound = errors.New("operation not found")

// OperationLog keeps the full operation history in creation order.
type OperationLog struct {
	ops   []domain.RobotOperation
	index map[domain.OperationID]int
}

func NewOperationLog() *OperationLog {
	return &OperationLog{index: map[domain.OperationID]int{}}
}

func (l *OperationLog) Append(op domain.RobotOperation) {
	l.index[op.ID] = len(l.ops)
	l.ops = append(l.ops, op)
}

// Update applies fn to the stored operation and returns the updated copy.
func (l *OperationLog) Update(id domain.OperationID, fn func(*domain.RobotOperation) error) (domain.RobotOperation, error) {
	i, ok := l.index[id]
	if !ok {
		return domain.RobotOperation{}, errOperationNotFound
	}
	if err := fn(&l.ops[i]); err != nil {
		return l.ops[i], err
	}
	return l.ops[i], nil
}

func (l *OperationLog) Get(id domain.OperationID) (domain.RobotOperation, bool) {
	i, ok := l.index[id]
	if !ok {
		return domain.RobotOperation{}, false
	}
	return l.ops[i], true
}

// Recent returns at most n operations, most recent first.
func (l *OperationLog) Recent(n int) []domain.RobotOperation {
	if n <= 0 || n > len(l.ops) {
		n = len(l.ops)
	}

	recent := make([]domain.RobotOperation, 0, n)
	for i := len(l.ops) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, l.ops[i])
	}
	return recent
}

// All returns the complete history in creation order.
func (l *OperationLog) All() []domain.RobotOperation {
	all := make([]domain.RobotOperation, len(l.ops))
	copy(all, l.ops)
	return all
}

func (l *OperationLog) Len() int {
	return len(l.ops)
}
