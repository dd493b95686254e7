package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/policy-extract/internal/async"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/export"
	fsingest "github.com/joseph-ayodele/policy-extract/internal/ingest"
	"github.com/joseph-ayodele/policy-extract/internal/masterdata"
	ingestsvc "github.com/joseph-ayodele/policy-extract/internal/services/ingest"
)

// toStatus maps domain errors onto gRPC codes. Errors that already carry a
// status pass through.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var se *masterdata.StatusError
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, batch.ErrTaskNotFound), errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, batch.ErrSelectionRequired), errors.Is(err, export.ErrNothingToExport):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, batch.ErrNoFiles),
		errors.Is(err, ingestsvc.ErrNothingIngested),
		errors.Is(err, fsingest.ErrUnsupportedType),
		errors.Is(err, fsingest.ErrUnsupportedData),
		errors.Is(err, fsingest.ErrEmptyFile),
		errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, fsingest.ErrTooLarge):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, async.ErrQueueClosed),
		errors.Is(err, masterdata.ErrNetwork),
		errors.Is(err, masterdata.ErrInvalidResponse),
		errors.As(err, &se):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
