package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// The timeblock.v1 schema is declared in Go and resolved at start-up, so the
// service speaks plain protobuf on the default gRPC codec without generated
// code.

const (
	protoPackage = "timeblock.v1"
	protoFile    = "timeblock/v1/appointments.proto"
)

type protoField struct {
	name     string
	kind     descriptorpb.FieldDescriptorProto_Type
	message  string
	repeated bool
}

func stringField(name string) protoField {
	return protoField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_STRING}
}

func int32Field(name string) protoField {
	return protoField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_INT32}
}

func boolField(name string) protoField {
	return protoField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_BOOL}
}

func messageField(name, message string) protoField {
	return protoField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, message: message}
}

func repeatedField(name, message string) protoField {
	f := messageField(name, message)
	f.repeated = true
	return f
}

func timestampField(name string) protoField {
	return messageField(name, ".google.protobuf.Timestamp")
}

func localType(name string) string {
	return "." + protoPackage + "." + name
}

func messageProto(name string, fields ...protoField) *descriptorpb.DescriptorProto {
	m := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if f.repeated {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		}
		fd := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(int32(i + 1)),
			Label:  label.Enum(),
			Type:   f.kind.Enum(),
		}
		if f.message != "" {
			fd.TypeName = proto.String(f.message)
		}
		m.Field = append(m.Field, fd)
	}
	return m
}

var rpcNames = []string{
	"CreateAppointment",
	"UpdateAppointment",
	"MoveAppointment",
	"DeleteAppointment",
	"DeleteSeries",
	"ListAppointments",
	"ListUnavailableSlots",
	"GetAgenda",
}

func fileProto() *descriptorpb.FileDescriptorProto {
	appointment := localType("Appointment")
	slot := localType("UnavailableSlot")

	f := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFile),
		Package:    proto.String(protoPackage),
		Syntax:     proto.String("proto3"),
		Dependency: []string{timestamppb.File_google_protobuf_timestamp_proto.Path()},
		MessageType: []*descriptorpb.DescriptorProto{
			messageProto("Appointment",
				stringField("id"),
				stringField("title"),
				stringField("date"),
				stringField("start_time"),
				int32Field("duration_minutes"),
				boolField("is_recurring"),
				stringField("series_id"),
				timestampField("created_at"),
				timestampField("updated_at"),
			),
			messageProto("UnavailableSlot",
				stringField("source"),
				stringField("external_uid"),
				stringField("title"),
				stringField("date"),
				stringField("start_time"),
				stringField("end_time"),
			),
			messageProto("CreateAppointmentRequest",
				stringField("title"),
				stringField("date"),
				stringField("start_time"),
				int32Field("duration_minutes"),
				boolField("is_recurring"),
			),
			messageProto("CreateAppointmentResponse", repeatedField("appointments", appointment)),
			messageProto("UpdateAppointmentRequest",
				stringField("id"),
				stringField("title"),
				stringField("date"),
				stringField("start_time"),
				int32Field("duration_minutes"),
			),
			messageProto("UpdateAppointmentResponse", messageField("appointment", appointment)),
			messageProto("MoveAppointmentRequest",
				stringField("id"),
				stringField("date"),
				stringField("start_time"),
			),
			messageProto("MoveAppointmentResponse", messageField("appointment", appointment)),
			messageProto("DeleteAppointmentRequest", stringField("id")),
			messageProto("DeleteAppointmentResponse"),
			messageProto("DeleteSeriesRequest", stringField("series_id")),
			messageProto("DeleteSeriesResponse", int32Field("deleted")),
			messageProto("ListAppointmentsRequest", stringField("from"), stringField("to")),
			messageProto("ListAppointmentsResponse", repeatedField("appointments", appointment)),
			messageProto("ListUnavailableSlotsRequest", stringField("from"), stringField("to")),
			messageProto("ListUnavailableSlotsResponse", repeatedField("slots", slot)),
			messageProto("GetAgendaRequest",
				stringField("from"),
				stringField("to"),
				int32Field("duration_minutes"),
			),
			messageProto("AgendaDay",
				stringField("date"),
				stringField("weekday"),
				repeatedField("appointments", appointment),
				repeatedField("unavailable", slot),
				int32Field("occupied_minutes"),
				boolField("has_available_slots"),
				boolField("fully_booked"),
			),
			messageProto("FreeSlot", stringField("date"), stringField("start_time")),
			messageProto("GetAgendaResponse",
				stringField("today"),
				int32Field("work_start_hour"),
				int32Field("work_end_hour"),
				repeatedField("days", localType("AgendaDay")),
				messageField("first_free", localType("FreeSlot")),
			),
		},
	}

	svc := &descriptorpb.ServiceDescriptorProto{Name: proto.String("Appointments")}
	for _, rpc := range rpcNames {
		svc.Method = append(svc.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(rpc),
			InputType:  proto.String(localType(rpc + "Request")),
			OutputType: proto.String(localType(rpc + "Response")),
		})
	}
	f.Service = []*descriptorpb.ServiceDescriptorProto{svc}
	return f
}

func buildSchema() (protoreflect.FileDescriptor, error) {
	fd, err := protodesc.NewFile(fileProto(), protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", protoFile, err)
	}
	return fd, nil
}

var schema = func() protoreflect.FileDescriptor {
	fd, err := buildSchema()
	if err != nil {
		panic(err)
	}
	return fd
}()

func messageDescriptor(name string) protoreflect.MessageDescriptor {
	md := schema.Messages().ByName(protoreflect.Name(name))
	if md == nil {
		panic("unknown message " + protoPackage + "." + name)
	}
	return md
}

func newMessage(name string) *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDescriptor(name))
}
