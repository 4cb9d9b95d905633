package verifyrpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/ledgertx/storage"
)

var (
	// ErrRejected means the server decoded the transaction but it failed
	// verification. The wrapped message starts with the rule ID.
	ErrRejected = errors.New("verifyrpc: transaction rejected")

	// ErrMalformed means the server could not decode the request payload.
	ErrMalformed = errors.New("verifyrpc: malformed payload")
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		if st.Message() == storage.ErrInvalidCID.Error() {
			return storage.ErrInvalidCID
		}
		return fmt.Errorf("%w: %s", ErrMalformed, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	default:
		return err
	}
}
