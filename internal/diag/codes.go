package diag

import (
	"fmt"
	"sort"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Resolution
	ResInfo                    Code = 1000
	ResUnknownBuiltinCode      Code = 1001
	ResUnknownLeafKind         Code = 1002
	ResIncompleteDependency    Code = 1003 // deferred; traced, never reported
	ResMalformedEnum           Code = 1004
	ResUnresolvableEnum        Code = 1005
	ResUnresolvedAfterFixpoint Code = 1006
	ResDuplicateDefinition     Code = 1007
	ResInlinedAnonymous        Code = 1008

	// Record stream loading
	LoadInfo         Code = 2000
	LoadStreamError  Code = 2001
	LoadUnknownArch  Code = 2002
	LoadEmptyStream  Code = 2003
	LoadArchOverride Code = 2004

	// Type sink
	SinkInfo       Code = 3000
	SinkWriteError Code = 3001

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	ResInfo:                    "Resolution information",
	ResUnknownBuiltinCode:      "Unknown builtin type code",
	ResUnknownLeafKind:         "Unknown leaf kind",
	ResIncompleteDependency:    "Dependency not yet resolved",
	ResMalformedEnum:           "Enum member without a name",
	ResUnresolvableEnum:        "Enum could not be resolved",
	ResUnresolvedAfterFixpoint: "Aggregate unresolved after fixpoint",
	ResDuplicateDefinition:     "Duplicate definition ignored",
	ResInlinedAnonymous:        "Anonymous aggregate inlined",
	LoadInfo:                   "Load information",
	LoadStreamError:            "Record stream error",
	LoadUnknownArch:            "Unknown architecture",
	LoadEmptyStream:            "Record stream has no definitions",
	LoadArchOverride:           "Architecture overrides the stream's",
	SinkInfo:                   "Type sink information",
	SinkWriteError:             "Type sink write failed",
	ObsInfo:                    "Observability information",
	ObsTimings:                 "Timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LOAD%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SINK%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Codes lists every known code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for c := range codeDescription {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
