package grpc

import (
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func field(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("field " + name + " not in " + string(m.Descriptor().FullName()))
	}
	return fd
}

func getString(m protoreflect.Message, name string) string {
	return m.Get(field(m, name)).String()
}

func setString(m protoreflect.Message, name, v string) {
	m.Set(field(m, name), protoreflect.ValueOfString(v))
}

func getInt(m protoreflect.Message, name string) int {
	return int(m.Get(field(m, name)).Int())
}

func setInt(m protoreflect.Message, name string, v int) {
	m.Set(field(m, name), protoreflect.ValueOfInt32(int32(v)))
}

func getBool(m protoreflect.Message, name string) bool {
	return m.Get(field(m, name)).Bool()
}

func setBool(m protoreflect.Message, name string, v bool) {
	m.Set(field(m, name), protoreflect.ValueOfBool(v))
}

// getTime reads a google.protobuf.Timestamp field. Unset reads as the zero
// time.
func getTime(m protoreflect.Message, name string) time.Time {
	fd := field(m, name)
	if !m.Has(fd) {
		return time.Time{}
	}
	ts := m.Get(fd).Message()
	fields := ts.Descriptor().Fields()
	pb := &timestamppb.Timestamp{
		Seconds: ts.Get(fields.ByName("seconds")).Int(),
		Nanos:   int32(ts.Get(fields.ByName("nanos")).Int()),
	}
	return pb.AsTime()
}

func setTime(m protoreflect.Message, name string, t time.Time) {
	if t.IsZero() {
		return
	}
	pb := timestamppb.New(t)
	ts := m.Mutable(field(m, name)).Message()
	fields := ts.Descriptor().Fields()
	ts.Set(fields.ByName("seconds"), protoreflect.ValueOfInt64(pb.GetSeconds()))
	ts.Set(fields.ByName("nanos"), protoreflect.ValueOfInt32(pb.GetNanos()))
}

// getMessage returns a read-only view of a singular message field and whether
// it was set.
func getMessage(m protoreflect.Message, name string) (protoreflect.Message, bool) {
	fd := field(m, name)
	return m.Get(fd).Message(), m.Has(fd)
}

func mutableMessage(m protoreflect.Message, name string) protoreflect.Message {
	return m.Mutable(field(m, name)).Message()
}

func eachMessage(m protoreflect.Message, name string, fn func(protoreflect.Message)) {
	l := m.Get(field(m, name)).List()
	for i := 0; i < l.Len(); i++ {
		fn(l.Get(i).Message())
	}
}

func appendMessage(m protoreflect.Message, name string, fill func(protoreflect.Message)) {
	l := m.Mutable(field(m, name)).List()
	e := l.NewElement()
	fill(e.Message())
	l.Append(e)
}
