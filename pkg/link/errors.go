package link

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotConnected      = errors.New("connection is not connected")
	ErrNotSupported      = errors.New("operation not supported by connection")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidTimeRange  = fmt.Errorf("%w: invalid time range", ErrInvalidRequest)
	ErrNotIndexing       = errors.New("no index pass in progress")
	ErrInitialized       = errors.New("connector already initialized")
	ErrIndexInProgress   = errors.New("index pass already in progress")
)

// toStatus maps connector errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrUnknownConnection):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrInitialized), errors.Is(err, ErrNotIndexing):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrIndexInProgress):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, ErrNotSupported):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// FromStatus maps a gRPC status returned by a plugin back onto the
// connector errors, so callers can use errors.Is across the plugin boundary.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = ErrUnknownConnection
	case codes.FailedPrecondition:
		sentinel = ErrNotConnected
	case codes.Aborted:
		sentinel = ErrIndexInProgress
	case codes.Unimplemented:
		sentinel = ErrNotSupported
	case codes.InvalidArgument:
		sentinel = ErrInvalidRequest
	case codes.Canceled:
		sentinel = context.Canceled
	case codes.DeadlineExceeded:
		sentinel = context.DeadlineExceeded
	default:
		return err
	}
	return &remoteError{sentinel: sentinel, msg: st.Message()}
}

type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string {
	return e.msg
}

func (e *remoteError) Unwrap() error {
	return e.sentinel
}
