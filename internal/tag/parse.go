package tag

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"coderef/internal/errors"
)

// Parse parses canonical tag text into a Reference.
// It returns a typed error (MALFORMED_TAG, UNKNOWN_TYPE, MALFORMED_METADATA)
// carrying the byte offset of the failure. Parse never mutates valid input:
// Generate(Parse(s)) == s for canonical s.
func Parse(text string) (Reference, error) {
	var ref Reference

	if text == "" || text[0] != '@' {
		return ref, errors.NewParseError(errors.MalformedTag,
			"tag must start with '@Type'", 0, truncate(text))
	}

	// Type designator: letters following '@', closed by '/'
	i := 1
	for i < len(text) && isLetter(text[i]) {
		i++
	}
	if i == 1 {
		return ref, errors.NewParseError(errors.MalformedTag,
			"missing type designator after '@'", 1, truncate(text))
	}
	if i >= len(text) || text[i] != '/' {
		return ref, errors.NewParseError(errors.MalformedTag,
			"type designator not closed by '/'", i, truncate(text))
	}

	ref.Type = Type(text[1:i])
	if !ref.Type.IsKnown() {
		return ref, errors.NewParseError(errors.UnknownType,
			"unknown type designator '"+string(ref.Type)+"'", 1, truncate(text))
	}

	// Path: forward-slash segments up to '#', ':' or '{'
	i++ // skip '/'
	start := i
	for i < len(text) && !isDelimiter(text[i]) {
		if isSpace(text[i]) {
			return ref, errors.NewParseError(errors.MalformedTag,
				"whitespace inside tag path", i, truncate(text))
		}
		i++
	}
	if i == start {
		return ref, errors.NewParseError(errors.MalformedTag,
			"empty path", start, truncate(text))
	}
	ref.Path = text[start:i]

	// Optional #element
	if i < len(text) && text[i] == '#' {
		i++
		start = i
		for i < len(text) && text[i] != ':' && text[i] != '{' {
			if isSpace(text[i]) {
				return ref, errors.NewParseError(errors.MalformedTag,
					"whitespace inside element name", i, truncate(text))
			}
			i++
		}
		if i == start {
			return ref, errors.NewParseError(errors.MalformedTag,
				"empty element name after '#'", start, truncate(text))
		}
		ref.Element = text[start:i]
	}

	// Optional :line
	if i < len(text) && text[i] == ':' {
		i++
		start = i
		for i < len(text) && text[i] >= '0' && text[i] <= '9' {
			i++
		}
		if i == start {
			return ref, errors.NewParseError(errors.MalformedTag,
				"line number must follow ':'", start, truncate(text))
		}
		line, err := strconv.Atoi(text[start:i])
		if err != nil || line < 1 {
			return ref, errors.NewParseError(errors.MalformedTag,
				"line number must be a positive integer", start, truncate(text))
		}
		ref.Line = line
	}

	// Optional {metadata}, which must close the tag
	if i < len(text) && text[i] == '{' {
		if text[len(text)-1] != '}' {
			return ref, errors.NewParseError(errors.MalformedMetadata,
				"unterminated metadata block", i, truncate(text))
		}
		meta, err := parseMetadata(text[i+1:len(text)-1], i+1)
		if err != nil {
			return ref, err
		}
		ref.Metadata = meta
		i = len(text)
	}

	if i < len(text) {
		return ref, errors.NewParseError(errors.MalformedTag,
			"unexpected trailing characters", i, truncate(text))
	}

	return ref, nil
}

// IsValid reports whether text parses as a canonical tag. It never returns an error.
func IsValid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

// parseMetadata decodes the inside of a {...} block. JSON-object syntax is
// tried first, then key=value pairs. offset is the byte position of the
// block's content within the enclosing tag text.
func parseMetadata(content string, offset int) (Metadata, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	if meta, ok := parseJSONMetadata(content); ok {
		return meta, nil
	}
	return parsePairMetadata(content, offset)
}

// parseJSONMetadata decodes {content} as a flat JSON object, preserving
// key order via the token stream. Nested objects and arrays are rejected.
func parseJSONMetadata(content string) (Metadata, bool) {
	dec := json.NewDecoder(strings.NewReader("{" + content + "}"))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}

	var meta Metadata
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, false
		}

		var value MetaValue
		switch v := valTok.(type) {
		case string:
			value = StringValue(v)
		case json.Number:
			n, err := v.Float64()
			if err != nil {
				return nil, false
			}
			value = NumberValue(n)
		case bool:
			value = BoolValue(v)
		default:
			// Nested objects, arrays and nulls are outside the grammar
			return nil, false
		}
		meta = append(meta, MetaField{Key: key, Value: value})
	}

	if tok, err = dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, false
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, false
	}
	return meta, true
}

// parsePairMetadata decodes key=value,key2=value2 syntax with type inference:
// true|false become booleans, integer literals become numbers, everything
// else stays a string.
func parsePairMetadata(content string, offset int) (Metadata, error) {
	var meta Metadata
	pos := 0
	for _, part := range strings.Split(content, ",") {
		eq := strings.Index(part, "=")
		if eq < 0 {
			return nil, errors.NewParseError(errors.MalformedMetadata,
				"metadata pair missing '='", offset+pos, truncate(part))
		}
		key := strings.TrimSpace(part[:eq])
		if key == "" {
			return nil, errors.NewParseError(errors.MalformedMetadata,
				"metadata pair with empty key", offset+pos, truncate(part))
		}
		meta = append(meta, MetaField{Key: key, Value: inferValue(strings.TrimSpace(part[eq+1:]))})
		pos += len(part) + 1
	}
	return meta, nil
}

// inferValue applies the grammar's type inference to a bare pair value
func inferValue(raw string) MetaValue {
	switch raw {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return NumberValue(float64(n))
	}
	return StringValue(raw)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDelimiter(c byte) bool {
	return c == '#' || c == ':' || c == '{'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// truncate limits error context to a short prefix
func truncate(s string) string {
	const max = 40
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
