package tag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// MarshalJSON renders metadata as a JSON object with keys in insertion order
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(f.Key))
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, preserving key order
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("metadata must be a JSON object")
	}

	var fields Metadata
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("metadata key must be a string")
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}

		var value MetaValue
		switch v := valTok.(type) {
		case string:
			value = StringValue(v)
		case json.Number:
			n, err := v.Float64()
			if err != nil {
				return err
			}
			value = NumberValue(n)
		case bool:
			value = BoolValue(v)
		default:
			return fmt.Errorf("metadata value for %q must be string, number or bool", key)
		}
		fields = append(fields, MetaField{Key: key, Value: value})
	}

	if tok, err = dec.Token(); err != nil || tok != json.Delim('}') {
		return fmt.Errorf("unterminated metadata object")
	}
	if _, err = dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after metadata object")
	}

	*m = fields
	return nil
}

// MarshalJSON renders the union value as its native JSON type
func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetaBool:
		return json.Marshal(v.Bool)
	case MetaNumber:
		if isIntegral(v.Num) {
			return []byte(strconv.FormatInt(int64(v.Num), 10)), nil
		}
		return json.Marshal(v.Num)
	default:
		return json.Marshal(v.Str)
	}
}
