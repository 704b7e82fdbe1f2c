package tag

import (
	"math"
	"strconv"
	"strings"
)

// Generate renders a Reference as canonical tag text. Fields are emitted in
// fixed order (type, path, element, line, metadata) and metadata keys in
// insertion order. Generate never fails for a well-formed Reference.
//
// Metadata is emitted as key=value pairs when every field survives the pair
// grammar's type inference unchanged; otherwise the JSON-object form is used
// so that Parse(Generate(r)) == r holds for every valid Reference.
func Generate(r Reference) string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(string(r.Type))
	b.WriteByte('/')
	b.WriteString(r.Path)
	if r.Element != "" {
		b.WriteByte('#')
		b.WriteString(r.Element)
	}
	if r.Line > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.Line))
	}
	if len(r.Metadata) > 0 {
		b.WriteByte('{')
		if pairSafe(r.Metadata) {
			writePairMetadata(&b, r.Metadata)
		} else {
			writeJSONMetadata(&b, r.Metadata)
		}
		b.WriteByte('}')
	}
	return b.String()
}

func writePairMetadata(b *strings.Builder, meta Metadata) {
	for i, f := range meta {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value.Format())
	}
}

func writeJSONMetadata(b *strings.Builder, meta Metadata) {
	for i, f := range meta {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(f.Key))
		b.WriteByte(':')
		switch f.Value.Kind {
		case MetaBool:
			b.WriteString(strconv.FormatBool(f.Value.Bool))
		case MetaNumber:
			b.WriteString(formatNumber(f.Value.Num))
		default:
			b.WriteString(strconv.Quote(f.Value.Str))
		}
	}
}

// pairSafe reports whether the metadata round-trips through key=value syntax
func pairSafe(meta Metadata) bool {
	for _, f := range meta {
		if !keySafe(f.Key) {
			return false
		}
		switch f.Value.Kind {
		case MetaNumber:
			// Pair syntax only infers integers
			if !isIntegral(f.Value.Num) {
				return false
			}
		case MetaString:
			if !stringPairSafe(f.Value.Str) {
				return false
			}
		}
	}
	return true
}

func keySafe(key string) bool {
	if key == "" {
		return false
	}
	return !strings.ContainsAny(key, ",={}:\" \t\n\r")
}

// stringPairSafe reports whether a string value survives pair parsing as the
// same string: it must not re-infer as a bool or integer, must not contain
// pair delimiters, and must not carry trimmable edges.
func stringPairSafe(s string) bool {
	if s == "true" || s == "false" {
		return false
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return false
	}
	if strings.ContainsAny(s, ",={}") {
		return false
	}
	return strings.TrimSpace(s) == s
}

func isIntegral(n float64) bool {
	return n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) < math.MaxInt64
}

func formatNumber(n float64) string {
	if isIntegral(n) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
