package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
)

const ServiceName = protoPackage + ".Appointments"

// AppointmentsServiceServer is the server API of timeblock.v1.Appointments.
type AppointmentsServiceServer interface {
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*CreateAppointmentResponse, error)
	UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*UpdateAppointmentResponse, error)
	MoveAppointment(context.Context, *MoveAppointmentRequest) (*MoveAppointmentResponse, error)
	DeleteAppointment(context.Context, *DeleteAppointmentRequest) (*DeleteAppointmentResponse, error)
	DeleteSeries(context.Context, *DeleteSeriesRequest) (*DeleteSeriesResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	ListUnavailableSlots(context.Context, *ListUnavailableSlotsRequest) (*ListUnavailableSlotsResponse, error)
	GetAgenda(context.Context, *GetAgendaRequest) (*GetAgendaResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type wirePtr[T any] interface {
	*T
	wireMessage
}

// unary decodes the request into its schema message, hands the typed value to
// interceptors and the server, and encodes the typed response the same way.
func unary[Req, Resp any, PReq wirePtr[Req], PResp wirePtr[Resp]](name string, call func(AppointmentsServiceServer, context.Context, PReq) (PResp, error)) grpclib.MethodDesc {
	return grpclib.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			req := PReq(new(Req))
			in := newMessage(req.protoName())
			if err := dec(in); err != nil {
				return nil, err
			}
			req.readProto(in)

			s := srv.(AppointmentsServiceServer)
			handler := func(ctx context.Context, r any) (any, error) {
				return call(s, ctx, r.(PReq))
			}

			var resp any
			var err error
			if interceptor == nil {
				resp, err = handler(ctx, req)
			} else {
				info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
				resp, err = interceptor(ctx, req, info, handler)
			}
			if err != nil {
				return nil, err
			}

			typed := resp.(PResp)
			out := newMessage(typed.protoName())
			typed.writeProto(out)
			return out, nil
		},
	}
}

var AppointmentsServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AppointmentsServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("CreateAppointment", AppointmentsServiceServer.CreateAppointment),
		unary("UpdateAppointment", AppointmentsServiceServer.UpdateAppointment),
		unary("MoveAppointment", AppointmentsServiceServer.MoveAppointment),
		unary("DeleteAppointment", AppointmentsServiceServer.DeleteAppointment),
		unary("DeleteSeries", AppointmentsServiceServer.DeleteSeries),
		unary("ListAppointments", AppointmentsServiceServer.ListAppointments),
		unary("ListUnavailableSlots", AppointmentsServiceServer.ListUnavailableSlots),
		unary("GetAgenda", AppointmentsServiceServer.GetAgenda),
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: protoFile,
}

func RegisterAppointmentsServiceServer(s grpclib.ServiceRegistrar, srv AppointmentsServiceServer) {
	s.RegisterService(&AppointmentsServiceDesc, srv)
}

// AppointmentsClient calls timeblock.v1.Appointments.
type AppointmentsClient struct {
	cc grpclib.ClientConnInterface
}

func NewAppointmentsClient(cc grpclib.ClientConnInterface) *AppointmentsClient {
	return &AppointmentsClient{cc: cc}
}

func invoke[Resp any, PResp wirePtr[Resp]](ctx context.Context, cc grpclib.ClientConnInterface, name string, req wireMessage, opts []grpclib.CallOption) (PResp, error) {
	in := newMessage(req.protoName())
	req.writeProto(in)

	resp := PResp(new(Resp))
	out := newMessage(resp.protoName())
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	resp.readProto(out)
	return resp, nil
}

func (c *AppointmentsClient) CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpclib.CallOption) (*CreateAppointmentResponse, error) {
	return invoke[CreateAppointmentResponse](ctx, c.cc, "CreateAppointment", in, opts)
}

func (c *AppointmentsClient) UpdateAppointment(ctx context.Context, in *UpdateAppointmentRequest, opts ...grpclib.CallOption) (*UpdateAppointmentResponse, error) {
	return invoke[UpdateAppointmentResponse](ctx, c.cc, "UpdateAppointment", in, opts)
}

func (c *AppointmentsClient) MoveAppointment(ctx context.Context, in *MoveAppointmentRequest, opts ...grpclib.CallOption) (*MoveAppointmentResponse, error) {
	return invoke[MoveAppointmentResponse](ctx, c.cc, "MoveAppointment", in, opts)
}

func (c *AppointmentsClient) DeleteAppointment(ctx context.Context, in *DeleteAppointmentRequest, opts ...grpclib.CallOption) (*DeleteAppointmentResponse, error) {
	return invoke[DeleteAppointmentResponse](ctx, c.cc, "DeleteAppointment", in, opts)
}

func (c *AppointmentsClient) DeleteSeries(ctx context.Context, in *DeleteSeriesRequest, opts ...grpclib.CallOption) (*DeleteSeriesResponse, error) {
	return invoke[DeleteSeriesResponse](ctx, c.cc, "DeleteSeries", in, opts)
}

func (c *AppointmentsClient) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpclib.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListAppointments", in, opts)
}

func (c *AppointmentsClient) ListUnavailableSlots(ctx context.Context, in *ListUnavailableSlotsRequest, opts ...grpclib.CallOption) (*ListUnavailableSlotsResponse, error) {
	return invoke[ListUnavailableSlotsResponse](ctx, c.cc, "ListUnavailableSlots", in, opts)
}

func (c *AppointmentsClient) GetAgenda(ctx context.Context, in *GetAgendaRequest, opts ...grpclib.CallOption) (*GetAgendaResponse, error) {
	return invoke[GetAgendaResponse](ctx, c.cc, "GetAgenda", in, opts)
}
