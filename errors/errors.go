package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrNotFound           = fmt.Errorf("not found")
	ErrAgoraNotFound      = fmt.Errorf("agora %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("membership %w", ErrNotFound)

	ErrInvalidTransition  = fmt.Errorf("invalid agora status change")
	ErrAlreadyJoined      = fmt.Errorf("user already joined this agora")
	ErrAlreadyVoted       = fmt.Errorf("user already voted to end this agora")
	ErrCapacityExceeded   = fmt.Errorf("agora capacity exceeded")
	ErrMalformedHierarchy = fmt.Errorf("category hierarchy is malformed")

	ErrInvalidRequest  = fmt.Errorf("invalid request")
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrTokenGeneration = fmt.Errorf("token generation failed")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// MapToGRPCError converts a domain error into a gRPC status error.
// Unknown errors are reported as Internal without leaking their message.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrAlreadyJoined), errors.Is(err, ErrAlreadyVoted):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrMalformedHierarchy):
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
