package builtin

import "elnino/internal/types"

// knownCodes is the seed table of primitive codes seen in real type streams.
var knownCodes = map[string]*types.Type{
	"T_32PINT4":   types.MakePointer(types.MakeInt(4, true), 4),
	"T_32PRCHAR":  types.MakePointer(types.MakeChar(), 4),
	"T_32PUCHAR":  types.MakePointer(types.MakeChar(), 4),
	"T_32PLONG":   types.MakePointer(types.MakeInt(4, true), 4),
	"T_32PULONG":  types.MakePointer(types.MakeInt(4, false), 4),
	"T_32PUQUAD":  types.MakePointer(types.MakeInt(8, false), 4),
	"T_32PUSHORT": types.MakePointer(types.MakeInt(2, false), 4),
	"T_32PVOID":   types.MakePointer(types.MakeVoid(), 4),
	"T_64PVOID":   types.MakePointer(types.MakeVoid(), 8),
	"T_INT4":      types.MakeInt(4, true),
	"T_INT8":      types.MakeInt(8, true),
	"T_LONG":      types.MakeInt(4, true),
	"T_QUAD":      types.MakeInt(8, true),
	"T_RCHAR":     types.MakeChar(),
	"T_REAL32":    types.MakeFloat(4),
	"T_REAL64":    types.MakeFloat(8),
	"T_REAL80":    types.MakeFloat(10),
	"T_SHORT":     types.MakeInt(2, true),
	"T_UCHAR":     types.MakeChar(),
	"T_UINT4":     types.MakeInt(4, false),
	"T_ULONG":     types.MakeInt(4, false),
	"T_UQUAD":     types.MakeInt(8, false),
	"T_USHORT":    types.MakeInt(2, false),
	"T_WCHAR":     types.MakeWideChar(2),
}

// KnownWidths lists the byte width recorded for each seeded code.
var KnownWidths = map[string]int{
	"T_32PINT4":   4,
	"T_32PRCHAR":  4,
	"T_32PUCHAR":  4,
	"T_32PLONG":   4,
	"T_32PULONG":  4,
	"T_32PUQUAD":  4,
	"T_32PUSHORT": 4,
	"T_32PVOID":   4,
	"T_64PVOID":   8,
	"T_INT4":      4,
	"T_INT8":      8,
	"T_LONG":      4,
	"T_QUAD":      8,
	"T_RCHAR":     1,
	"T_REAL32":    4,
	"T_REAL64":    8,
	"T_REAL80":    10,
	"T_SHORT":     2,
	"T_UCHAR":     1,
	"T_UINT4":     4,
	"T_ULONG":     4,
	"T_UQUAD":     8,
	"T_USHORT":    2,
	"T_WCHAR":     2,
}
