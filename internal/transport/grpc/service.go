package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "booking.v1.BookingEngine"

// BookingEngineServer is the server API of the booking engine.
type BookingEngineServer interface {
	ResolveSlots(ctx context.Context, req *ResolveSlotsRequest) (*ResolveSlotsResponse, error)
	DayGrid(ctx context.Context, req *DayGridRequest) (*DayGridResponse, error)

	CommitBooking(ctx context.Context, req *CommitBookingRequest) (*BookingResponse, error)
	TransitionBooking(ctx context.Context, req *TransitionBookingRequest) (*BookingResponse, error)
	ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error)

	SubmitTimeOff(ctx context.Context, req *SubmitTimeOffRequest) (*TimeOffResponse, error)
	ApproveTimeOff(ctx context.Context, req *ApproveTimeOffRequest) (*TimeOffResponse, error)
	RejectTimeOff(ctx context.Context, req *RejectTimeOffRequest) (*TimeOffResponse, error)
	ListPendingTimeOff(ctx context.Context, req *ListPendingTimeOffRequest) (*TimeOffListResponse, error)
	ListProviderTimeOff(ctx context.Context, req *ListProviderTimeOffRequest) (*TimeOffListResponse, error)

	ReactivateProvider(ctx context.Context, req *ReactivateProviderRequest) (*ProviderResponse, error)
	SetProviderAvailability(ctx context.Context, req *SetProviderAvailabilityRequest) (*ProviderResponse, error)

	CreateScheduleBlock(ctx context.Context, req *CreateScheduleBlockRequest) (*ScheduleBlockResponse, error)
	DeleteScheduleBlock(ctx context.Context, req *DeleteScheduleBlockRequest) (*DeleteScheduleBlockResponse, error)
	ReassignScheduleBlock(ctx context.Context, req *ReassignScheduleBlockRequest) (*ScheduleBlockResponse, error)
	GenerateSchedule(ctx context.Context, req *GenerateScheduleRequest) (*GenerateScheduleResponse, error)
	ListScheduleBlocks(ctx context.Context, req *ListScheduleBlocksRequest) (*ListScheduleBlocksResponse, error)
	ListFreeDays(ctx context.Context, req *ListFreeDaysRequest) (*ListFreeDaysResponse, error)
}

var bookingEngineDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ResolveSlots", BookingEngineServer.ResolveSlots),
		unary("DayGrid", BookingEngineServer.DayGrid),
		unary("CommitBooking", BookingEngineServer.CommitBooking),
		unary("TransitionBooking", BookingEngineServer.TransitionBooking),
		unary("ListBookings", BookingEngineServer.ListBookings),
		unary("SubmitTimeOff", BookingEngineServer.SubmitTimeOff),
		unary("ApproveTimeOff", BookingEngineServer.ApproveTimeOff),
		unary("RejectTimeOff", BookingEngineServer.RejectTimeOff),
		unary("ListPendingTimeOff", BookingEngineServer.ListPendingTimeOff),
		unary("ListProviderTimeOff", BookingEngineServer.ListProviderTimeOff),
		unary("ReactivateProvider", BookingEngineServer.ReactivateProvider),
		unary("SetProviderAvailability", BookingEngineServer.SetProviderAvailability),
		unary("CreateScheduleBlock", BookingEngineServer.CreateScheduleBlock),
		unary("DeleteScheduleBlock", BookingEngineServer.DeleteScheduleBlock),
		unary("ReassignScheduleBlock", BookingEngineServer.ReassignScheduleBlock),
		unary("GenerateSchedule", BookingEngineServer.GenerateSchedule),
		unary("ListScheduleBlocks", BookingEngineServer.ListScheduleBlocks),
		unary("ListFreeDays", BookingEngineServer.ListFreeDays),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking_engine",
}

func RegisterBookingEngineServer(r grpc.ServiceRegistrar, srv BookingEngineServer) {
	r.RegisterService(&bookingEngineDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary adapts a typed server method to grpc's untyped handler signature.
func unary[Req, Resp any](name string, call func(BookingEngineServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(BookingEngineServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}
