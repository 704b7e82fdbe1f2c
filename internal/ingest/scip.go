package ingest

import (
	"fmt"
	"os"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"coderef/internal/element"
	"coderef/internal/errors"
	"coderef/internal/graph"
	"coderef/internal/tag"
)

// scipDefinitionRole is the Definition bit of Occurrence.SymbolRoles
const scipDefinitionRole = 1

// ReadSCIPFile loads a binary SCIP index and converts it to a scan result.
// Each document yields a file element; each symbol with a definition
// occurrence in a document yields an element of the mapped type. Reference
// occurrences to symbols defined in other documents become calls edges from
// the referencing file.
func ReadSCIPFile(path string) (*ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ScanInputInvalid, fmt.Sprintf("reading SCIP index %s", path), err)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.New(errors.ScanInputInvalid, fmt.Sprintf("parsing SCIP index %s", path), err)
	}

	return ConvertSCIP(&index)
}

// ConvertSCIP converts a parsed SCIP index to a scan result
func ConvertSCIP(index *scippb.Index) (*ScanResult, error) {
	result := &ScanResult{Tool: scipToolName(index)}

	// identity key of each symbol's definition element, for edge targets
	definedAt := make(map[string]string)
	// document path of each symbol's definition, to skip same-file references
	definedIn := make(map[string]string)

	type pendingRef struct {
		fileKey string
		docPath string
		symbol  string
	}
	var refs []pendingRef

	for _, doc := range index.Documents {
		docPath := element.NormalizePath(doc.RelativePath)
		fileRecord := element.ElementRecord{
			Type:     tag.TypeFile,
			Path:     docPath,
			Language: strings.ToLower(doc.Language),
		}
		result.Elements = append(result.Elements, fileRecord)
		fileKey := fileRecord.IdentityKey()

		kinds := make(map[string]*scippb.SymbolInformation, len(doc.Symbols))
		for _, sym := range doc.Symbols {
			kinds[sym.Symbol] = sym
		}

		for _, occ := range doc.Occurrences {
			if occ.Symbol == "" || strings.HasPrefix(occ.Symbol, "local ") {
				continue
			}
			if occ.SymbolRoles&scipDefinitionRole == 0 {
				refs = append(refs, pendingRef{fileKey: fileKey, docPath: docPath, symbol: occ.Symbol})
				continue
			}
			if _, seen := definedAt[occ.Symbol]; seen {
				continue
			}

			line := 0
			if len(occ.Range) > 0 {
				line = int(occ.Range[0]) + 1 // SCIP ranges are zero-based
			}
			record := element.ElementRecord{
				Type:     mapSCIPKind(kinds[occ.Symbol], occ.Symbol),
				Path:     docPath,
				Name:     symbolDisplayName(kinds[occ.Symbol], occ.Symbol),
				Line:     line,
				Language: strings.ToLower(doc.Language),
			}
			result.Elements = append(result.Elements, record)
			definedAt[occ.Symbol] = record.IdentityKey()
			definedIn[occ.Symbol] = docPath
		}
	}

	seenEdges := make(map[string]bool)
	for _, ref := range refs {
		target, ok := definedAt[ref.symbol]
		if !ok || definedIn[ref.symbol] == ref.docPath {
			continue
		}
		key := ref.fileKey + "\x00" + target
		if seenEdges[key] {
			continue
		}
		seenEdges[key] = true
		result.Edges = append(result.Edges, graph.EdgeFact{
			Source: ref.fileKey,
			Target: target,
			Kind:   graph.EdgeCalls,
		})
	}

	return result, nil
}

func scipToolName(index *scippb.Index) string {
	if index.Metadata == nil || index.Metadata.ToolInfo == nil {
		return "scip"
	}
	name := index.Metadata.ToolInfo.Name
	if index.Metadata.ToolInfo.Version != "" {
		name += "@" + index.Metadata.ToolInfo.Version
	}
	return name
}

// mapSCIPKind maps a SCIP symbol kind to a reference type. Indexers that
// leave the kind unspecified fall back to the symbol's descriptor suffix.
func mapSCIPKind(sym *scippb.SymbolInformation, symbol string) tag.Type {
	if sym != nil {
		switch sym.Kind.String() {
		case "Function":
			return tag.TypeFunction
		case "Method", "StaticMethod", "AbstractMethod", "SingletonMethod", "TraitMethod":
			return tag.TypeMethod
		case "Constructor":
			return tag.TypeConstructor
		case "Class", "SingletonClass":
			return tag.TypeClass
		case "Interface", "Protocol":
			return tag.TypeInterface
		case "Struct":
			return tag.TypeStruct
		case "Enum":
			return tag.TypeEnum
		case "EnumMember", "Constant":
			return tag.TypeConstant
		case "Trait":
			return tag.TypeTrait
		case "Mixin":
			return tag.TypeMixin
		case "Type", "TypeClass":
			return tag.TypeType
		case "TypeAlias":
			return tag.TypeAlias
		case "Property", "StaticProperty", "Getter", "Setter", "Accessor":
			return tag.TypeProperty
		case "Field", "StaticField":
			return tag.TypeField
		case "Variable", "StaticVariable", "Value":
			return tag.TypeVariable
		case "Parameter", "SelfParameter", "ThisParameter", "TypeParameter":
			return tag.TypeParameter
		case "Module", "Library":
			return tag.TypeModule
		case "Package", "PackageObject":
			return tag.TypePackage
		case "Namespace":
			return tag.TypeNamespace
		case "File":
			return tag.TypeFile
		case "Macro":
			return tag.TypeMacro
		}
	}

	// SCIP descriptor suffixes: "()." method, "#" type, "." term, ":" meta,
	// "/" namespace, "!" macro
	switch {
	case strings.HasSuffix(symbol, "()."):
		return tag.TypeFunction
	case strings.HasSuffix(symbol, "#"):
		return tag.TypeType
	case strings.HasSuffix(symbol, "/"):
		return tag.TypeNamespace
	case strings.HasSuffix(symbol, "!"):
		return tag.TypeMacro
	default:
		return tag.TypeVariable
	}
}

// symbolDisplayName prefers the indexer-supplied display name, falling back
// to the last descriptor of the symbol string
func symbolDisplayName(sym *scippb.SymbolInformation, symbol string) string {
	if sym != nil && sym.DisplayName != "" {
		return sym.DisplayName
	}
	name := symbol
	if idx := strings.LastIndexAny(name, "/#"); idx >= 0 && idx < len(name)-1 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, "().")
	name = strings.TrimSuffix(name, ".")
	name = strings.TrimSuffix(name, "#")
	name = strings.Trim(name, "`")
	return name
}
