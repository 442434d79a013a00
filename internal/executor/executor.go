// Package executor applies disambiguated vendor operations to the vendor store.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/logger"
	"weddingplan/internal/port"
)

var errUnknownAction = errors.New("unknown operation action")

// Result is one successfully applied operation.
type Result struct {
	Index  int
	Action domain.OperationAction
	Vendor domain.VendorRecord
}

// OperationError identifies the operation that stopped a batch.
type OperationError struct {
	Index int
	Label string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s) failed: %v", e.Index, e.Label, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Report summarizes one Execute call. Remaining holds the failed operation first, followed
// by every operation that was never attempted, in their original order.
type Report struct {
	Succeeded []Result
	Failure   *OperationError
	Remaining []domain.ParsedOperation
}

// Err returns the failure, or nil when every operation succeeded.
func (r *Report) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Vendors returns the persisted vendor records in execution order.
func (r *Report) Vendors() []domain.VendorRecord {
	out := make([]domain.VendorRecord, len(r.Succeeded))
	for i := range r.Succeeded {
		out[i] = r.Succeeded[i].Vendor
	}
	return out
}

// FirstAffectedVendorID is the id of the first vendor the batch created or updated.
func (r *Report) FirstAffectedVendorID() (uuid.UUID, bool) {
	if len(r.Succeeded) == 0 {
		return uuid.Nil, false
	}
	return r.Succeeded[0].Vendor.ID, true
}

// Executor runs operations one at a time, in order, stopping at the first failure.
type Executor struct {
	store port.VendorStore
	log   *zap.Logger
}

// New creates an executor writing to store.
func New(store port.VendorStore, log *zap.Logger) *Executor {
	return &Executor{store: store, log: logger.OrNop(log)}
}

// Execute applies ops to the wedding's roster. Creates send the vendor data as-is; updates
// ask the store to merge payments into the existing schedule.
func (e *Executor) Execute(ctx context.Context, weddingID uuid.UUID, ops []domain.ParsedOperation) *Report {
	report := &Report{}

	for i := range ops {
		op := &ops[i]

		vendor, err := e.apply(ctx, weddingID, op)
		if err != nil {
			report.Failure = &OperationError{Index: i, Label: op.Label(), Err: err}
			report.Remaining = cloneOps(ops[i:])
			e.log.Warn("executor.Execute: operation failed, stopping batch",
				zap.String("wedding_id", weddingID.String()),
				zap.Int("operation_index", i),
				zap.String("operation", op.Label()),
				zap.Int("not_attempted", len(ops)-i-1),
				zap.Error(err),
			)
			return report
		}

		report.Succeeded = append(report.Succeeded, Result{Index: i, Action: op.Action, Vendor: *vendor})
		e.log.Info("executor.Execute: operation applied",
			zap.String("wedding_id", weddingID.String()),
			zap.Int("operation_index", i),
			zap.String("action", string(op.Action)),
			zap.String("vendor_id", vendor.ID.String()),
		)
	}

	return report
}

func (e *Executor) apply(ctx context.Context, weddingID uuid.UUID, op *domain.ParsedOperation) (*domain.VendorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch op.Action {
	case domain.ActionCreate:
		return e.store.CreateVendor(ctx, weddingID, op.VendorData)
	case domain.ActionUpdate:
		vendorID, err := uuid.Parse(op.VendorID)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrVendorNotFound, op.VendorID)
		}
		return e.store.UpdateVendor(ctx, weddingID, vendorID, op.VendorData, port.UpdateOptions{MergePayments: true})
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownAction, op.Action)
	}
}

func cloneOps(ops []domain.ParsedOperation) []domain.ParsedOperation {
	out := make([]domain.ParsedOperation, len(ops))
	for i := range ops {
		out[i] = ops[i].Clone()
	}
	return out
}
