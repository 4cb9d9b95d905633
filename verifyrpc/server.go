// Package verifyrpc exposes batch verification and transaction submission
// over gRPC.
package verifyrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ledgertx/batch"
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/transaction"
	"xdao.co/ledgertx/txstore"
)

// Server implements VerifierServer.
//
// Store may be nil, in which case Submit and Get report FailedPrecondition.
type Server struct {
	UnimplementedVerifierServer

	Verifier *batch.Verifier
	Store    *txstore.Store
	Logger   *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) verifier() *batch.Verifier {
	if s.Verifier != nil {
		return s.Verifier
	}
	return &batch.Verifier{}
}

func (s *Server) Verify(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	txs, err := batch.Decode(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ok := s.verifier().VerifyTransactions(txs)
	s.logger().DebugContext(ctx, "verified batch", "size", len(txs), "ok", ok)
	return wrapperspb.Bool(ok), nil
}

func (s *Server) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "no transaction store configured")
	}
	tr, err := transaction.Unmarshal(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := tr.Check(); err != nil {
		return nil, status.Error(codes.FailedPrecondition, fmt.Sprintf("%s: %v", transaction.RuleID(err), err))
	}
	id, err := s.Store.Put(ctx, tr)
	if err != nil {
		return nil, mapErr(err)
	}
	s.logger().InfoContext(ctx, "accepted transaction", "cid", id.String(), "tokens", tr.Tokens)
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "no transaction store configured")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.Store.GetRaw(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case storage.IsNotFound(err):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	case errors.Is(err, storage.ErrCIDMismatch), errors.Is(err, storage.ErrImmutable):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs one line per unary call with its status code and
// latency.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "rpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
