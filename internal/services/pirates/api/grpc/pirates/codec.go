package pirates

import (
	"fmt"
	"reflect"
	"time"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CodecName is the content subtype of ConfrontationService calls
// (application/grpc+pirates-proto). Payloads are protobuf encoded against
// the pirates/v1/confrontation.proto descriptor built from the message types.
const CodecName = "pirates-proto"

const (
	protoPackage = "pirates.v1"
	protoFile    = "pirates/v1/confrontation.proto"
	protoTag     = "proto"

	timestampTypeName  = ".google.protobuf.Timestamp"
	int64ValueTypeName = ".google.protobuf.Int64Value"
)

var (
	timeType        = reflect.TypeFor[time.Time]()
	intType         = reflect.TypeFor[int]()
	optionalIntType = reflect.TypeFor[*int]()
	messagePkgPath  = reflect.TypeFor[Item]().PkgPath()
)

// wireFile describes every message reachable from ConfrontationServiceServer.
var wireFile = mustBuildWireFile()

func mustBuildWireFile() protoreflect.FileDescriptor {
	fd, err := buildWireFile()
	if err != nil {
		panic(fmt.Sprintf("build %s: %v", protoFile, err))
	}
	return fd
}

func buildWireFile() (protoreflect.FileDescriptor, error) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFile),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			timestamppb.File_google_protobuf_timestamp_proto.Path(),
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
		},
	}

	declared := make(map[reflect.Type]bool)
	var declare func(t reflect.Type) error
	declare = func(t reflect.Type) error {
		if declared[t] {
			return nil
		}
		declared[t] = true
		msg := &descriptorpb.DescriptorProto{Name: proto.String(t.Name())}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, ok := field.Tag.Lookup(protoTag)
			if !ok {
				continue
			}
			fieldDesc, nested, err := fieldProto(name, int32(i+1), field.Type)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
			}
			msg.Field = append(msg.Field, fieldDesc)
			if nested != nil {
				if err := declare(nested); err != nil {
					return err
				}
			}
		}
		file.MessageType = append(file.MessageType, msg)
		return nil
	}

	service := &descriptorpb.ServiceDescriptorProto{Name: proto.String("ConfrontationService")}
	api := reflect.TypeFor[ConfrontationServiceServer]()
	for i := 0; i < api.NumMethod(); i++ {
		method := api.Method(i)
		in, out := method.Type.In(1).Elem(), method.Type.Out(0).Elem()
		if err := declare(in); err != nil {
			return nil, err
		}
		if err := declare(out); err != nil {
			return nil, err
		}
		service.Method = append(service.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(method.Name),
			InputType:  proto.String(messageTypeName(in)),
			OutputType: proto.String(messageTypeName(out)),
		})
	}
	file.Service = []*descriptorpb.ServiceDescriptorProto{service}

	return protodesc.NewFile(file, protoregistry.GlobalFiles)
}

// fieldProto maps one Go field to a proto3 field. It returns the struct type
// of a nested message so the caller can declare it.
func fieldProto(name string, number int32, t reflect.Type) (*descriptorpb.FieldDescriptorProto, reflect.Type, error) {
	field := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	if t.Kind() == reflect.Slice {
		field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		t = t.Elem()
	}

	var nested reflect.Type
	switch {
	case t == timeType || t == reflect.PointerTo(timeType):
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		field.TypeName = proto.String(timestampTypeName)
	case t == optionalIntType:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		field.TypeName = proto.String(int64ValueTypeName)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		nested = t.Elem()
	case t.Kind() == reflect.Struct:
		nested = t
	case t.Kind() == reflect.String:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()
	case t.Kind() == reflect.Bool:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_BOOL.Enum()
	case t.Kind() == reflect.Uint64:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_UINT64.Enum()
	case t.Kind() == reflect.Uint32:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_UINT32.Enum()
	case t.Kind() == reflect.Int32:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum()
	case t.Kind() == reflect.Int:
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum()
	default:
		return nil, nil, fmt.Errorf("unsupported field type %s", t)
	}
	if nested != nil {
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		field.TypeName = proto.String(messageTypeName(nested))
	}
	return field, nested, nil
}

func messageTypeName(t reflect.Type) string {
	return "." + protoPackage + "." + t.Name()
}

func wireDescriptor(t reflect.Type) (protoreflect.MessageDescriptor, error) {
	if t.PkgPath() != messagePkgPath {
		return nil, fmt.Errorf("%s is not a %s message", t, protoPackage)
	}
	md := wireFile.Messages().ByName(protoreflect.Name(t.Name()))
	if md == nil {
		return nil, fmt.Errorf("%s is not a %s message", t, protoPackage)
	}
	return md, nil
}

type protoCodec struct{}

func (protoCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal %T: not a %s message", v, protoPackage)
	}
	md, err := wireDescriptor(rv.Type())
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(md)
	if err := encodeMessage(rv, msg.ProtoReflect()); err != nil {
		return nil, fmt.Errorf("marshal %s: %w", md.FullName(), err)
	}
	return proto.Marshal(msg)
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal into %T: not a %s message pointer", v, protoPackage)
	}
	md, err := wireDescriptor(rv.Elem().Type())
	if err != nil {
		return err
	}
	msg := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %s: %w", md.FullName(), err)
	}
	rv.Elem().SetZero()
	return decodeMessage(msg.ProtoReflect(), rv.Elem())
}

func (protoCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(protoCodec{})
}

func encodeMessage(v reflect.Value, msg protoreflect.Message) error {
	fields := msg.Descriptor().Fields()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, ok := t.Field(i).Tag.Lookup(protoTag)
		if !ok {
			continue
		}
		fv := v.Field(i)
		if fv.IsZero() {
			continue
		}
		fd := fields.ByName(protoreflect.Name(name))
		if fd.IsList() {
			list := msg.Mutable(fd).List()
			for j := 0; j < fv.Len(); j++ {
				item, err := encodeValue(fv.Index(j), fd, list.NewElement)
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", name, j, err)
				}
				list.Append(item)
			}
			continue
		}
		value, err := encodeValue(fv, fd, func() protoreflect.Value { return msg.NewField(fd) })
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		msg.Set(fd, value)
	}
	return nil
}

// encodeValue converts one Go value. newMessage supplies the empty message
// for message-typed fields.
func encodeValue(v reflect.Value, fd protoreflect.FieldDescriptor, newMessage func() protoreflect.Value) (protoreflect.Value, error) {
	if fd.Kind() == protoreflect.MessageKind {
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		value := newMessage()
		sub := value.Message()
		switch v.Type() {
		case timeType:
			t := v.Interface().(time.Time)
			setField(sub, "seconds", protoreflect.ValueOfInt64(t.Unix()))
			setField(sub, "nanos", protoreflect.ValueOfInt32(int32(t.Nanosecond())))
		case intType:
			setField(sub, "value", protoreflect.ValueOfInt64(v.Int()))
		default:
			if err := encodeMessage(v, sub); err != nil {
				return protoreflect.Value{}, err
			}
		}
		return value, nil
	}

	switch fd.Kind() {
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(v.String()), nil
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(v.Bool()), nil
	case protoreflect.Uint64Kind:
		return protoreflect.ValueOfUint64(v.Uint()), nil
	case protoreflect.Uint32Kind:
		return protoreflect.ValueOfUint32(uint32(v.Uint())), nil
	case protoreflect.Int32Kind:
		return protoreflect.ValueOfInt32(int32(v.Int())), nil
	case protoreflect.Int64Kind:
		return protoreflect.ValueOfInt64(v.Int()), nil
	default:
		return protoreflect.Value{}, fmt.Errorf("unsupported kind %s", fd.Kind())
	}
}

func decodeMessage(msg protoreflect.Message, v reflect.Value) error {
	fields := msg.Descriptor().Fields()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, ok := t.Field(i).Tag.Lookup(protoTag)
		if !ok {
			continue
		}
		fd := fields.ByName(protoreflect.Name(name))
		if fd == nil || !msg.Has(fd) {
			continue
		}
		fv := v.Field(i)
		if fd.IsList() {
			list := msg.Get(fd).List()
			out := reflect.MakeSlice(fv.Type(), list.Len(), list.Len())
			for j := 0; j < list.Len(); j++ {
				if err := decodeValue(list.Get(j), fd, out.Index(j)); err != nil {
					return fmt.Errorf("%s[%d]: %w", name, j, err)
				}
			}
			fv.Set(out)
			continue
		}
		if err := decodeValue(msg.Get(fd), fd, fv); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func decodeValue(value protoreflect.Value, fd protoreflect.FieldDescriptor, v reflect.Value) error {
	if fd.Kind() == protoreflect.MessageKind {
		if v.Kind() == reflect.Pointer {
			ptr := reflect.New(v.Type().Elem())
			v.Set(ptr)
			v = ptr.Elem()
		}
		sub := value.Message()
		switch v.Type() {
		case timeType:
			t := time.Unix(getField(sub, "seconds").Int(), getField(sub, "nanos").Int()).UTC()
			v.Set(reflect.ValueOf(t))
		case intType:
			v.SetInt(getField(sub, "value").Int())
		default:
			return decodeMessage(sub, v)
		}
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(value.String())
	case reflect.Bool:
		v.SetBool(value.Bool())
	case reflect.Uint64, reflect.Uint32:
		v.SetUint(value.Uint())
	case reflect.Int32, reflect.Int:
		v.SetInt(value.Int())
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

func setField(msg protoreflect.Message, name string, value protoreflect.Value) {
	msg.Set(msg.Descriptor().Fields().ByName(protoreflect.Name(name)), value)
}

func getField(msg protoreflect.Message, name string) protoreflect.Value {
	return msg.Get(msg.Descriptor().Fields().ByName(protoreflect.Name(name)))
}
