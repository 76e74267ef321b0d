package rpcserver

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/coldvault/trainer/internal/runs"
	"github.com/coldvault/trainer/internal/training"
)

// trainError classifies a synchronous Train/Test failure per §7.
func trainError(err error) error {
	switch {
	case errors.Is(err, training.ErrInvalidDevice), errors.Is(err, training.ErrUnknownOptimizer), errors.Is(err, training.ErrInvalidBatchSize):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, training.ErrNoCheckpointToResume):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, training.ErrDatasetShapeMismatch):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// metricError classifies a get_metric failure per §7 and §8's boundary
// behavior ("get_metric on a freshly created run returns OutOfRange").
func metricError(err error) error {
	if errors.Is(err, runs.ErrNotStarted) {
		return status.Error(codes.OutOfRange, err.Error())
	}
	return status.Error(codes.Aborted, err.Error())
}
