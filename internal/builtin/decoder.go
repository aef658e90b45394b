// Package builtin decodes primitive type codes (T_INT4, T_32PUCHAR, ...) into
// scalar descriptors.
package builtin

import (
	"fmt"
	"regexp"
	"strconv"

	"elnino/internal/types"
)

// UnknownCodeError reports a primitive code that matches no decoding rule.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown builtin type code %q", e.Code)
}

var codePattern = regexp.MustCompile(`^T_(?P<psize>32|64)?(?P<ptr>P?)(?P<unsigned>U?)(?P<kind>VOID|BOOL|INT|RCHAR|WCHAR|CHAR|SHORT|LONG|QUAD|REAL)(?P<vsize>08|128|16|1|2|32|48|4|64|80|8)?$`)

// defaultWidth is the byte width of a kind when the code carries no suffix.
var defaultWidth = map[string]int{
	"VOID":  0,
	"BOOL":  1,
	"INT":   4,
	"SHORT": 2,
	"LONG":  4,
	"QUAD":  8,
	"RCHAR": 1,
	"CHAR":  1,
	"WCHAR": 2,
	"REAL":  4,
}

// suffixWidth maps width suffixes to bytes. Single digits are byte counts,
// the newer two-digit forms are bit counts.
var suffixWidth = map[string]int{
	"08":  1,
	"1":   1,
	"2":   2,
	"4":   4,
	"8":   8,
	"16":  2,
	"32":  4,
	"48":  6,
	"64":  8,
	"80":  10,
	"128": 16,
}

// Integer kinds count 8 and 16 in bytes (T_INT8 is __int64, T_INT16 is
// __int128); character kinds count them in bits (T_CHAR8 is char8_t).
var intSuffixWidth = map[string]int{
	"16": 16,
}

var charSuffixWidth = map[string]int{
	"8": 1,
}

func widthFor(kind, suffix string) int {
	if suffix == "" {
		return defaultWidth[kind]
	}
	switch kind {
	case "INT", "SHORT", "LONG", "QUAD":
		if w, ok := intSuffixWidth[suffix]; ok {
			return w
		}
	case "RCHAR", "CHAR", "WCHAR":
		if w, ok := charSuffixWidth[suffix]; ok {
			return w
		}
	}
	return suffixWidth[suffix]
}

// Decoder turns primitive codes into descriptors and caches the results.
// It is not safe for concurrent use.
type Decoder struct {
	pointerWidth int
	cache        map[string]*types.Type
}

// NewDecoder creates a decoder for the given architecture pointer width,
// pre-seeded with the well-known code table.
func NewDecoder(pointerWidth int) *Decoder {
	d := &Decoder{
		pointerWidth: pointerWidth,
		cache:        make(map[string]*types.Type, len(knownCodes)+32),
	}
	for code, ty := range knownCodes {
		d.cache[code] = ty
	}
	return d
}

// PointerWidth returns the architecture pointer width used for unprefixed
// pointer codes.
func (d *Decoder) PointerWidth() int { return d.pointerWidth }

// Decode returns the descriptor for code. Results are cached by code string,
// so decoding the same code twice yields the same descriptor.
func (d *Decoder) Decode(code string) (*types.Type, error) {
	if ty, ok := d.cache[code]; ok {
		return ty, nil
	}
	ty, err := d.parse(code)
	if err != nil {
		return nil, err
	}
	d.cache[code] = ty
	return ty, nil
}

// Cached reports how many codes the decoder currently knows.
func (d *Decoder) Cached() int { return len(d.cache) }

func (d *Decoder) parse(code string) (*types.Type, error) {
	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return nil, &UnknownCodeError{Code: code}
	}
	group := func(name string) string { return m[codePattern.SubexpIndex(name)] }

	kind := group("kind")
	width := widthFor(kind, group("vsize"))

	var ty *types.Type
	switch kind {
	case "VOID":
		ty = types.MakeVoid()
	case "BOOL":
		ty = types.MakeBool(width)
	case "INT", "SHORT", "LONG", "QUAD":
		ty = types.MakeInt(width, group("unsigned") == "")
	case "RCHAR", "CHAR", "WCHAR":
		if kind != "WCHAR" && width == 1 {
			ty = types.MakeChar()
		} else {
			ty = types.MakeWideChar(width)
		}
	case "REAL":
		ty = types.MakeFloat(width)
	default:
		return nil, &UnknownCodeError{Code: code}
	}

	if group("ptr") == "P" {
		ptrWidth := d.pointerWidth
		if ps := group("psize"); ps != "" {
			bits, err := strconv.Atoi(ps)
			if err != nil {
				return nil, &UnknownCodeError{Code: code}
			}
			ptrWidth = bits / 8
		}
		ty = types.MakePointer(ty, ptrWidth)
	}
	return ty, nil
}
