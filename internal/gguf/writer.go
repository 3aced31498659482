package gguf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Write writes a little-endian version 3 GGUF stream holding only metadata.
// Value types are taken from the Go type of each value.
func Write(w io.Writer, metadata []MetadataKV) error {
	order := binary.LittleEndian
	header := Header{
		Magic:           MagicGGUFLE,
		Version:         Version3,
		MetadataKVCount: uint64(len(metadata)),
	}
	if err := binary.Write(w, order, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, kv := range metadata {
		if err := writeMetadataKV(w, order, kv); err != nil {
			return fmt.Errorf("write %s: %w", kv.Key, err)
		}
	}
	return nil
}

func writeMetadataKV(w io.Writer, order binary.ByteOrder, kv MetadataKV) error {
	vt, elem, err := valueTypeOf(kv.Value)
	if err != nil {
		return err
	}

	if err := writeString(w, order, kv.Key); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint32(vt)); err != nil {
		return err
	}

	switch v := kv.Value.(type) {
	case string:
		return writeString(w, order, v)
	case []string:
		if err := writeArrayHeader(w, order, elem, len(v)); err != nil {
			return err
		}
		for _, s := range v {
			if err := writeString(w, order, s); err != nil {
				return err
			}
		}
		return nil
	}

	if vt == ValueTypeArray {
		if err := writeArrayHeader(w, order, elem, arrayLen(kv.Value)); err != nil {
			return err
		}
	}
	return binary.Write(w, order, kv.Value)
}

func writeArrayHeader(w io.Writer, order binary.ByteOrder, elem ValueType, n int) error {
	if err := binary.Write(w, order, uint32(elem)); err != nil {
		return err
	}
	return binary.Write(w, order, uint64(n))
}

// valueTypeOf maps a Go value to its GGUF type; elem is set for arrays.
func valueTypeOf(v any) (vt, elem ValueType, err error) {
	switch v.(type) {
	case uint8:
		return ValueTypeUint8, 0, nil
	case int8:
		return ValueTypeInt8, 0, nil
	case uint16:
		return ValueTypeUint16, 0, nil
	case int16:
		return ValueTypeInt16, 0, nil
	case uint32:
		return ValueTypeUint32, 0, nil
	case int32:
		return ValueTypeInt32, 0, nil
	case float32:
		return ValueTypeFloat32, 0, nil
	case uint64:
		return ValueTypeUint64, 0, nil
	case int64:
		return ValueTypeInt64, 0, nil
	case float64:
		return ValueTypeFloat64, 0, nil
	case bool:
		return ValueTypeBool, 0, nil
	case string:
		return ValueTypeString, 0, nil
	case []uint8:
		return ValueTypeArray, ValueTypeUint8, nil
	case []uint32:
		return ValueTypeArray, ValueTypeUint32, nil
	case []int32:
		return ValueTypeArray, ValueTypeInt32, nil
	case []float32:
		return ValueTypeArray, ValueTypeFloat32, nil
	case []uint64:
		return ValueTypeArray, ValueTypeUint64, nil
	case []bool:
		return ValueTypeArray, ValueTypeBool, nil
	case []string:
		return ValueTypeArray, ValueTypeString, nil
	default:
		return 0, 0, fmt.Errorf("unsupported metadata value %T", v)
	}
}

func arrayLen(v any) int {
	switch a := v.(type) {
	case []uint8:
		return len(a)
	case []uint32:
		return len(a)
	case []int32:
		return len(a)
	case []float32:
		return len(a)
	case []uint64:
		return len(a)
	case []bool:
		return len(a)
	}
	return 0
}
