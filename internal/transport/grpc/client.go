package grpc

import (
	"context"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client calls the booking engine over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

type DialOptions struct {
	// If nil, defaults to insecure credentials.
	TransportCredentials grpc.DialOption
}

// Dial opens a lazily connected client conn with tracing and request id
// propagation.
func Dial(addr string, opts DialOptions, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(UnaryClientRequestIDInterceptor()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	if opts.TransportCredentials != nil {
		dialOpts = append(dialOpts, opts.TransportCredentials)
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, extra...)

	return grpc.NewClient(addr, dialOpts...)
}

// WithIdempotencyKey attaches key to outgoing calls made with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "idempotency-key", key)
}

func invoke[Req, Resp any](ctx context.Context, c *Client, method string, req *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResolveSlots(ctx context.Context, req *ResolveSlotsRequest, opts ...grpc.CallOption) (*ResolveSlotsResponse, error) {
	return invoke[ResolveSlotsRequest, ResolveSlotsResponse](ctx, c, "ResolveSlots", req, opts...)
}

func (c *Client) DayGrid(ctx context.Context, req *DayGridRequest, opts ...grpc.CallOption) (*DayGridResponse, error) {
	return invoke[DayGridRequest, DayGridResponse](ctx, c, "DayGrid", req, opts...)
}

func (c *Client) CommitBooking(ctx context.Context, req *CommitBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[CommitBookingRequest, BookingResponse](ctx, c, "CommitBooking", req, opts...)
}

func (c *Client) TransitionBooking(ctx context.Context, req *TransitionBookingRequest, opts ...grpc.CallOption) (*BookingResponse, error) {
	return invoke[TransitionBookingRequest, BookingResponse](ctx, c, "TransitionBooking", req, opts...)
}

func (c *Client) ListBookings(ctx context.Context, req *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	return invoke[ListBookingsRequest, ListBookingsResponse](ctx, c, "ListBookings", req, opts...)
}

func (c *Client) SubmitTimeOff(ctx context.Context, req *SubmitTimeOffRequest, opts ...grpc.CallOption) (*TimeOffResponse, error) {
	return invoke[SubmitTimeOffRequest, TimeOffResponse](ctx, c, "SubmitTimeOff", req, opts...)
}

func (c *Client) ApproveTimeOff(ctx context.Context, req *ApproveTimeOffRequest, opts ...grpc.CallOption) (*TimeOffResponse, error) {
	return invoke[ApproveTimeOffRequest, TimeOffResponse](ctx, c, "ApproveTimeOff", req, opts...)
}

func (c *Client) RejectTimeOff(ctx context.Context, req *RejectTimeOffRequest, opts ...grpc.CallOption) (*TimeOffResponse, error) {
	return invoke[RejectTimeOffRequest, TimeOffResponse](ctx, c, "RejectTimeOff", req, opts...)
}

func (c *Client) ListPendingTimeOff(ctx context.Context, req *ListPendingTimeOffRequest, opts ...grpc.CallOption) (*TimeOffListResponse, error) {
	return invoke[ListPendingTimeOffRequest, TimeOffListResponse](ctx, c, "ListPendingTimeOff", req, opts...)
}

func (c *Client) ListProviderTimeOff(ctx context.Context, req *ListProviderTimeOffRequest, opts ...grpc.CallOption) (*TimeOffListResponse, error) {
	return invoke[ListProviderTimeOffRequest, TimeOffListResponse](ctx, c, "ListProviderTimeOff", req, opts...)
}

func (c *Client) ReactivateProvider(ctx context.Context, req *ReactivateProviderRequest, opts ...grpc.CallOption) (*ProviderResponse, error) {
	return invoke[ReactivateProviderRequest, ProviderResponse](ctx, c, "ReactivateProvider", req, opts...)
}

func (c *Client) SetProviderAvailability(ctx context.Context, req *SetProviderAvailabilityRequest, opts ...grpc.CallOption) (*ProviderResponse, error) {
	return invoke[SetProviderAvailabilityRequest, ProviderResponse](ctx, c, "SetProviderAvailability", req, opts...)
}

func (c *Client) CreateScheduleBlock(ctx context.Context, req *CreateScheduleBlockRequest, opts ...grpc.CallOption) (*ScheduleBlockResponse, error) {
	return invoke[CreateScheduleBlockRequest, ScheduleBlockResponse](ctx, c, "CreateScheduleBlock", req, opts...)
}

func (c *Client) DeleteScheduleBlock(ctx context.Context, req *DeleteScheduleBlockRequest, opts ...grpc.CallOption) (*DeleteScheduleBlockResponse, error) {
	return invoke[DeleteScheduleBlockRequest, DeleteScheduleBlockResponse](ctx, c, "DeleteScheduleBlock", req, opts...)
}

func (c *Client) ReassignScheduleBlock(ctx context.Context, req *ReassignScheduleBlockRequest, opts ...grpc.CallOption) (*ScheduleBlockResponse, error) {
	return invoke[ReassignScheduleBlockRequest, ScheduleBlockResponse](ctx, c, "ReassignScheduleBlock", req, opts...)
}

func (c *Client) GenerateSchedule(ctx context.Context, req *GenerateScheduleRequest, opts ...grpc.CallOption) (*GenerateScheduleResponse, error) {
	return invoke[GenerateScheduleRequest, GenerateScheduleResponse](ctx, c, "GenerateSchedule", req, opts...)
}

func (c *Client) ListScheduleBlocks(ctx context.Context, req *ListScheduleBlocksRequest, opts ...grpc.CallOption) (*ListScheduleBlocksResponse, error) {
	return invoke[ListScheduleBlocksRequest, ListScheduleBlocksResponse](ctx, c, "ListScheduleBlocks", req, opts...)
}

func (c *Client) ListFreeDays(ctx context.Context, req *ListFreeDaysRequest, opts ...grpc.CallOption) (*ListFreeDaysResponse, error) {
	return invoke[ListFreeDaysRequest, ListFreeDaysResponse](ctx, c, "ListFreeDays", req, opts...)
}
