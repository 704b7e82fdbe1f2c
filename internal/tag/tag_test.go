package tag

import (
	"testing"

	"coderef/internal/errors"
)

func TestParseBasic(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Reference
	}{
		{
			name: "full tag",
			text: "@Fn/auth/login#authenticate:24",
			want: Reference{Type: TypeFunction, Path: "auth/login", Element: "authenticate", Line: 24},
		},
		{
			name: "path only",
			text: "@Fl/auth/login",
			want: Reference{Type: TypeFile, Path: "auth/login"},
		},
		{
			name: "path and element",
			text: "@Cl/models/user#User",
			want: Reference{Type: TypeClass, Path: "models/user", Element: "User"},
		},
		{
			name: "directory",
			text: "@Dir/internal/auth",
			want: Reference{Type: TypeDirectory, Path: "internal/auth"},
		},
		{
			name: "pair metadata with inference",
			text: "@Fn/auth/login#authenticate:24{deprecated=true,since=3}",
			want: Reference{
				Type: TypeFunction, Path: "auth/login", Element: "authenticate", Line: 24,
				Metadata: Metadata{
					{Key: "deprecated", Value: BoolValue(true)},
					{Key: "since", Value: NumberValue(3)},
				},
			},
		},
		{
			name: "pair metadata string value",
			text: "@Var/config/db#poolSize{owner=platform-team}",
			want: Reference{
				Type: TypeVariable, Path: "config/db", Element: "poolSize",
				Metadata: Metadata{{Key: "owner", Value: StringValue("platform-team")}},
			},
		},
		{
			name: "json metadata",
			text: `@Fn/auth/login#authenticate{"note":"a, b","count":2}`,
			want: Reference{
				Type: TypeFunction, Path: "auth/login", Element: "authenticate",
				Metadata: Metadata{
					{Key: "note", Value: StringValue("a, b")},
					{Key: "count", Value: NumberValue(2)},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.text, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantCode   errors.ErrorCode
		wantOffset int
	}{
		{"empty input", "", errors.MalformedTag, 0},
		{"no at sign", "Fn/auth/login", errors.MalformedTag, 0},
		{"missing designator", "@/auth/login", errors.MalformedTag, 1},
		{"designator not closed", "@Fn", errors.MalformedTag, 3},
		{"unknown designator", "@Zz/auth/login", errors.UnknownType, 1},
		{"empty path", "@Fn/#name", errors.MalformedTag, 4},
		{"empty element", "@Fn/auth/login#:24", errors.MalformedTag, 15},
		{"missing line digits", "@Fn/auth/login#authenticate:", errors.MalformedTag, 28},
		{"zero line", "@Fn/auth/login#authenticate:0x", errors.MalformedTag, 28},
		{"unterminated metadata", "@Fn/auth/login{key=value", errors.MalformedMetadata, 14},
		{"metadata missing equals", "@Fn/auth/login{notapair}", errors.MalformedMetadata, 15},
		{"whitespace in path", "@Fn/auth login", errors.MalformedTag, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, expected %s", tt.text, tt.wantCode)
			}
			if code := errors.CodeOf(err); code != tt.wantCode {
				t.Errorf("Parse(%q) code = %s, want %s", tt.text, code, tt.wantCode)
			}
			if off := errors.OffsetOf(err); off != tt.wantOffset {
				t.Errorf("Parse(%q) offset = %d, want %d", tt.text, off, tt.wantOffset)
			}
		})
	}
}

func TestRoundTripCanonicalText(t *testing.T) {
	// generate(parse(s)) == s for syntactically valid canonical strings
	canonical := []string{
		"@Fn/auth/login#authenticate:24",
		"@Fl/auth/login",
		"@Cl/models/user#User",
		"@Mt/models/user#Save:102",
		"@Fn/auth/login#authenticate:24{deprecated=true,since=3}",
		"@Const/config/limits#MaxRetries{value=5,stable=false}",
		"@Var/config/db#poolSize{owner=platform-team}",
	}

	for _, s := range canonical {
		t.Run(s, func(t *testing.T) {
			ref, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", s, err)
			}
			if got := Generate(ref); got != s {
				t.Errorf("Generate(Parse(%q)) = %q", s, got)
			}
		})
	}
}

func TestRoundTripReferences(t *testing.T) {
	// parse(generate(r)) == r for valid references, including metadata that
	// cannot survive pair syntax and must fall back to the JSON form
	refs := []Reference{
		{Type: TypeFunction, Path: "auth/login", Element: "authenticate", Line: 24},
		{Type: TypeDirectory, Path: "internal/auth"},
		{
			Type: TypeFunction, Path: "auth/login", Element: "authenticate",
			Metadata: Metadata{
				{Key: "note", Value: StringValue("contains, comma")},
				{Key: "flag", Value: BoolValue(false)},
			},
		},
		{
			Type: TypeMethod, Path: "models/user", Element: "Save", Line: 102,
			Metadata: Metadata{
				{Key: "literal", Value: StringValue("true")},
				{Key: "ratio", Value: NumberValue(0.5)},
			},
		},
		{
			Type: TypeConstant, Path: "config/limits", Element: "MaxRetries",
			Metadata: Metadata{
				{Key: "numeric", Value: StringValue("42")},
			},
		},
	}

	for _, r := range refs {
		t.Run(Generate(r), func(t *testing.T) {
			text := Generate(r)
			back, err := Parse(text)
			if err != nil {
				t.Fatalf("Parse(Generate(%+v)) failed on %q: %v", r, text, err)
			}
			if !back.Equal(r) {
				t.Errorf("Parse(Generate(r)) = %+v, want %+v (text %q)", back, r, text)
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	ref := Reference{
		Type: TypeFunction, Path: "auth/login", Element: "authenticate", Line: 24,
		Metadata: Metadata{
			{Key: "zeta", Value: NumberValue(1)},
			{Key: "alpha", Value: NumberValue(2)},
		},
	}

	first := Generate(ref)
	for i := 0; i < 10; i++ {
		if got := Generate(ref); got != first {
			t.Fatalf("Generate not deterministic: %q vs %q", first, got)
		}
	}
	// Metadata keys stay in insertion order, not sorted
	if first != "@Fn/auth/login#authenticate:24{zeta=1,alpha=2}" {
		t.Errorf("unexpected canonical form %q", first)
	}
}

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		ref  Reference
		want string
	}{
		{Reference{Type: TypeFunction, Path: "auth/login", Element: "authenticate", Line: 24}, "Fn:auth/login#authenticate:24"},
		{Reference{Type: TypeFile, Path: "auth/login"}, "Fl:auth/login"},
		{Reference{Type: TypeClass, Path: "models/user", Element: "User"}, "Cl:models/user#User"},
	}

	for _, tt := range tests {
		if got := tt.ref.IdentityKey(); got != tt.want {
			t.Errorf("IdentityKey() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("@Fn/auth/login#authenticate:24") {
		t.Error("expected valid tag to pass")
	}
	if IsValid("@Zz/auth/login") {
		t.Error("expected unknown designator to fail")
	}
	if IsValid("plain text") {
		t.Error("expected prose to fail")
	}
}

func TestExtractAll(t *testing.T) {
	doc := `The login flow lives in @Fn/auth/login#authenticate:24.
Email prose like user@example/com is not a tag, and neither is @Nope/what.
Session handling moved to @Mt/auth/session#Refresh:88{reviewed=true} last sprint.
See also @Fl/auth/login.`

	refs := ExtractAll(doc)
	if len(refs) != 3 {
		t.Fatalf("expected 3 tags, got %d: %+v", len(refs), refs)
	}

	if refs[0].Element != "authenticate" || refs[0].Line != 24 {
		t.Errorf("first tag wrong: %+v", refs[0])
	}
	if refs[1].Type != TypeMethod || refs[1].Element != "Refresh" {
		t.Errorf("second tag wrong: %+v", refs[1])
	}
	if v, ok := refs[1].Metadata.Get("reviewed"); !ok || !v.Bool {
		t.Errorf("second tag metadata wrong: %+v", refs[1].Metadata)
	}
	if refs[2].Type != TypeFile || refs[2].Path != "auth/login" {
		t.Errorf("third tag wrong: %+v", refs[2])
	}
}

func TestExtractorRestartable(t *testing.T) {
	doc := "a @Fn/x/y#a:1 b @Fn/x/y#b:2 c"

	collect := func() []int {
		var offsets []int
		ex := NewExtractor(doc)
		for ex.Next() {
			offsets = append(offsets, ex.Offset())
		}
		return offsets
	}

	first := collect()
	second := collect()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 tags per pass, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("offsets differ between passes: %v vs %v", first, second)
		}
	}
	if first[0] >= first[1] {
		t.Errorf("offsets not in document order: %v", first)
	}
}

func TestMetadataSetPreservesPosition(t *testing.T) {
	meta := Metadata{
		{Key: "a", Value: NumberValue(1)},
		{Key: "b", Value: NumberValue(2)},
	}
	meta = meta.Set("a", NumberValue(9))

	if len(meta) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(meta))
	}
	if meta[0].Key != "a" || meta[0].Value.Num != 9 {
		t.Errorf("Set did not replace in place: %+v", meta)
	}
}

func TestAllTypesCount(t *testing.T) {
	types := AllTypes()
	if len(types) != 26 {
		t.Errorf("expected 26 designators, got %d", len(types))
	}
	for _, typ := range types {
		if typ.KindName() == "" {
			t.Errorf("designator %s has no kind name", typ)
		}
	}
}
