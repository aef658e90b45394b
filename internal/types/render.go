package types

import (
	"fmt"
	"strconv"
	"strings"
)

// String returns a compact C-like spelling of t.
func (t *Type) String() string {
	return strings.TrimSpace(declarator(t, "", 0))
}

// Declaration renders a complete C declaration for a registered aggregate or
// enum named name, terminated by a semicolon and newline.
func Declaration(name string, t *Type) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	switch t.Kind {
	case KindStruct, KindUnion:
		fmt.Fprintf(&b, "%s %s ", ClassOf(t.Kind), name)
		writeBody(&b, t, 0)
		b.WriteString(";\n")
	case KindEnum:
		fmt.Fprintf(&b, "enum %s { /* %d bytes */\n", name, t.Width)
		for _, e := range t.Enumerators {
			fmt.Fprintf(&b, "    %s = %d,\n", e.Name, e.Value)
		}
		b.WriteString("};\n")
	default:
		fmt.Fprintf(&b, "typedef %s;\n", declarator(t, name, 0))
	}
	return b.String()
}

func writeBody(b *strings.Builder, t *Type, depth int) {
	indent := strings.Repeat("    ", depth)
	fmt.Fprintf(b, "{ /* %d bytes */\n", t.Width)
	for _, m := range t.Members {
		fmt.Fprintf(b, "%s    /* 0x%04x */ %s;\n", indent, m.Offset, declarator(m.Type, m.Name, depth+1))
	}
	b.WriteString(indent)
	b.WriteString("}")
}

// declarator spells t applied to the declarator text decl, C style.
func declarator(t *Type, decl string, depth int) string {
	if t == nil {
		return join("void", decl)
	}
	switch t.Kind {
	case KindPointer:
		inner := "*" + decl
		if t.Elem != nil && t.Elem.Kind == KindArray {
			inner = "(" + inner + ")"
		}
		return declarator(t.Elem, inner, depth)
	case KindArray:
		return declarator(t.Elem, decl+"["+strconv.Itoa(t.Count)+"]", depth)
	case KindStruct, KindUnion:
		var b strings.Builder
		b.WriteString(ClassOf(t.Kind).String())
		b.WriteByte(' ')
		writeBody(&b, t, depth)
		return join(b.String(), decl)
	case KindEnum:
		return join(fmt.Sprintf("enum /* %d bytes */", t.Width), decl)
	default:
		return join(scalarName(t), decl)
	}
}

func scalarName(t *Type) string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		if t.Signed {
			return "int" + strconv.Itoa(t.Width*8) + "_t"
		}
		return "uint" + strconv.Itoa(t.Width*8) + "_t"
	case KindFloat:
		switch t.Width {
		case 2:
			return "_Float16"
		case 4:
			return "float"
		case 8:
			return "double"
		case 16:
			return "__float128"
		default:
			return "long double"
		}
	case KindChar:
		return "char"
	case KindWideChar:
		switch t.Width {
		case 1:
			return "char8_t"
		case 4:
			return "char32_t"
		default:
			return "wchar_t"
		}
	case KindNamed:
		if t.Ref.Class == ClassUnknown {
			return t.Ref.Name
		}
		return t.Ref.Class.String() + " " + t.Ref.Name
	default:
		return "<" + t.Kind.String() + ">"
	}
}

func join(base, decl string) string {
	if decl == "" {
		return base
	}
	return base + " " + decl
}
