// Package tag implements the canonical code-reference tag format
// @Type/path#element:line{metadata}: parsing, generation, validation,
// and extraction of embedded tags from free text.
package tag

import (
	"sort"
	"strconv"
	"strings"
)

// Type is a short designator code naming an element's kind
type Type string

const (
	TypeFunction    Type = "Fn"
	TypeMethod      Type = "Mt"
	TypeConstructor Type = "Ctor"
	TypeClass       Type = "Cl"
	TypeInterface   Type = "If"
	TypeStruct      Type = "St"
	TypeEnum        Type = "En"
	TypeTrait       Type = "Tr"
	TypeMixin       Type = "Mx"
	TypeType        Type = "Ty"
	TypeAlias       Type = "Al"
	TypeProperty    Type = "Prop"
	TypeField       Type = "Fld"
	TypeVariable    Type = "Var"
	TypeConstant    Type = "Const"
	TypeParameter   Type = "Par"
	TypeModule      Type = "Mod"
	TypePackage     Type = "Pkg"
	TypeNamespace   Type = "Ns"
	TypeFile        Type = "Fl"
	TypeDirectory   Type = "Dir"
	TypeImport      Type = "Imp"
	TypeExport      Type = "Exp"
	TypeMacro       Type = "Mac"
	TypeTest        Type = "Test"
	TypeDoc         Type = "Doc"
)

// typeNames maps every known designator to its human-readable kind name
var typeNames = map[Type]string{
	TypeFunction:    "function",
	TypeMethod:      "method",
	TypeConstructor: "constructor",
	TypeClass:       "class",
	TypeInterface:   "interface",
	TypeStruct:      "struct",
	TypeEnum:        "enum",
	TypeTrait:       "trait",
	TypeMixin:       "mixin",
	TypeType:        "type",
	TypeAlias:       "alias",
	TypeProperty:    "property",
	TypeField:       "field",
	TypeVariable:    "variable",
	TypeConstant:    "constant",
	TypeParameter:   "parameter",
	TypeModule:      "module",
	TypePackage:     "package",
	TypeNamespace:   "namespace",
	TypeFile:        "file",
	TypeDirectory:   "directory",
	TypeImport:      "import",
	TypeExport:      "export",
	TypeMacro:       "macro",
	TypeTest:        "test",
	TypeDoc:         "doc",
}

// IsKnown reports whether t is in the enumerated designator set
func (t Type) IsKnown() bool {
	_, ok := typeNames[t]
	return ok
}

// KindName returns the human-readable kind for a designator ("function" for Fn)
func (t Type) KindName() string {
	return typeNames[t]
}

// AllTypes returns every known designator in lexicographic order
func AllTypes() []Type {
	types := make([]Type, 0, len(typeNames))
	for t := range typeNames {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// MetaKind discriminates the metadata value union
type MetaKind int

const (
	// MetaString is a plain string value
	MetaString MetaKind = iota
	// MetaNumber is a numeric value
	MetaNumber
	// MetaBool is a boolean value
	MetaBool
)

// MetaValue is a tagged union over the three metadata value types.
// The grammar infers booleans and integers; floats only arrive through
// JSON-object metadata blocks.
type MetaValue struct {
	Kind MetaKind
	Str  string
	Num  float64
	Bool bool
}

// StringValue creates a string metadata value
func StringValue(s string) MetaValue {
	return MetaValue{Kind: MetaString, Str: s}
}

// NumberValue creates a numeric metadata value
func NumberValue(n float64) MetaValue {
	return MetaValue{Kind: MetaNumber, Num: n}
}

// BoolValue creates a boolean metadata value
func BoolValue(b bool) MetaValue {
	return MetaValue{Kind: MetaBool, Bool: b}
}

// Format renders the value in its canonical text form
func (v MetaValue) Format() string {
	switch v.Kind {
	case MetaBool:
		return strconv.FormatBool(v.Bool)
	case MetaNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return v.Str
	}
}

// Equal reports value equality across the union
func (v MetaValue) Equal(other MetaValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case MetaBool:
		return v.Bool == other.Bool
	case MetaNumber:
		return v.Num == other.Num
	default:
		return v.Str == other.Str
	}
}

// MetaField is one key/value pair of a metadata block
type MetaField struct {
	Key   string
	Value MetaValue
}

// Metadata is an ordered key/value list; insertion order is preserved
// through parse and generate
type Metadata []MetaField

// Get returns the value for key and whether it is present
func (m Metadata) Get(key string) (MetaValue, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return MetaValue{}, false
}

// Set replaces the value for an existing key in place, or appends a new field
func (m Metadata) Set(key string, value MetaValue) Metadata {
	for i, f := range m {
		if f.Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, MetaField{Key: key, Value: value})
}

// Equal reports field-by-field equality including order
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i].Key != other[i].Key || !m[i].Value.Equal(other[i].Value) {
			return false
		}
	}
	return true
}

// Reference is the in-memory form of a parsed tag
type Reference struct {
	Type     Type
	Path     string
	Element  string   // Optional
	Line     int      // Optional, 0 means unset
	Metadata Metadata // Optional
}

// Equal reports full structural equality between references
func (r Reference) Equal(other Reference) bool {
	return r.Type == other.Type &&
		r.Path == other.Path &&
		r.Element == other.Element &&
		r.Line == other.Line &&
		r.Metadata.Equal(other.Metadata)
}

// IdentityKey returns the canonical identity key type:path#element:line.
// Absent element and line segments are omitted, matching tag text.
func (r Reference) IdentityKey() string {
	var b strings.Builder
	b.WriteString(string(r.Type))
	b.WriteByte(':')
	b.WriteString(r.Path)
	if r.Element != "" {
		b.WriteByte('#')
		b.WriteString(r.Element)
	}
	if r.Line > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.Line))
	}
	return b.String()
}
