package container

import (
	"fmt"
	"slices"
	"time"

	"github.com/viant/arrayfile/meta"
)

// Attr is a named attribute of a node.
type Attr struct {
	Name  string
	Value meta.Value
}

func marshalValue(v meta.Value) []byte {
	writer := writers.Get()
	defer writers.Put(writer)
	writer.Int16(int16(v.Kind()))
	switch v.Kind() {
	case meta.KindBool:
		var b int16
		if v.AsBool() {
			b = 1
		}
		writer.Int16(b)
	case meta.KindTime:
		writer.Time(v.AsTime())
	case meta.KindString:
		writer.String(v.AsString())
	case meta.KindInt:
		writer.Int64(v.AsInt())
	case meta.KindFloat:
		writer.Float64(v.AsFloat())
	case meta.KindBytes:
		writer.String(string(v.AsBytes()))
	}
	return slices.Clone(writer.Bytes())
}

func unmarshalValue(data []byte) (ret meta.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: attribute: %v", ErrCorrupt, r)
		}
	}()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return meta.Value{}, fmt.Errorf("%w: attribute: %v", ErrCorrupt, err)
	}
	var kind int16
	reader.Int16(&kind)
	switch meta.Kind(kind) {
	case meta.KindNull:
		return meta.Null(), nil
	case meta.KindBool:
		var b int16
		reader.Int16(&b)
		return meta.Bool(b != 0), nil
	case meta.KindTime:
		var t time.Time
		reader.Time(&t)
		return meta.Time(t), nil
	case meta.KindString:
		var s string
		reader.String(&s)
		return meta.String(s), nil
	case meta.KindInt:
		var i int64
		reader.Int64(&i)
		return meta.Int(i), nil
	case meta.KindFloat:
		var f float64
		reader.Float64(&f)
		return meta.Float(f), nil
	case meta.KindBytes:
		var s string
		reader.String(&s)
		return meta.Bytes([]byte(s)), nil
	}
	return meta.Value{}, fmt.Errorf("%w: attribute kind %d", ErrCorrupt, kind)
}
