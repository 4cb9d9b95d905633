package verifyrpc

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ledgertx/batch"
	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/transaction"
)

// Client is a typed wrapper over VerifierClient.
type Client struct {
	cc     *grpc.ClientConn
	client VerifierClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send and receive limits when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options.
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewVerifierClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// VerifyBatch asks the server whether every transaction in txs is valid.
func (c *Client) VerifyBatch(ctx context.Context, txs []*transaction.Transaction) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Verify(ctx, wrapperspb.Bytes(batch.Encode(txs)))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

// Submit sends tr for verification and storage and returns its CID. A
// transaction the server refuses yields an error wrapping ErrRejected.
func (c *Client) Submit(ctx context.Context, tr *transaction.Transaction) (cid.Cid, error) {
	data := tr.Marshal()
	expected, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Submit(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	if !id.Equals(expected) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

// Get fetches and decodes the transaction stored under id.
func (c *Client) Get(ctx context.Context, id cid.Cid) (*transaction.Transaction, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	if !cidutil.Matches(id, b) {
		return nil, storage.ErrCIDMismatch
	}
	return transaction.Unmarshal(b)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
