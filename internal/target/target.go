package target

import (
	"fmt"
	"sort"
	"strings"
)

// Profile describes the architecture the type stream was produced for.
//
// Only the pointer width matters to the resolver; the name is kept for
// diagnostics and for the exported type database.
type Profile struct {
	Name         string
	PointerWidth int // bytes
}

var profiles = map[string]Profile{
	"x86":     {Name: "x86", PointerWidth: 4},
	"x86_64":  {Name: "x86_64", PointerWidth: 8},
	"arm":     {Name: "arm", PointerWidth: 4},
	"arm64":   {Name: "arm64", PointerWidth: 8},
	"aarch64": {Name: "arm64", PointerWidth: 8},
	"amd64":   {Name: "x86_64", PointerWidth: 8},
	"i386":    {Name: "x86", PointerWidth: 4},
}

// X86_64 returns the default profile.
func X86_64() Profile {
	return profiles["x86_64"]
}

// Lookup returns the profile registered under name (case-insensitive).
func Lookup(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown architecture %q (expected: %s)", name, strings.Join(Names(), "|"))
	}
	return p, nil
}

// WithPointerWidth returns a copy of p with an explicit pointer width.
// Non-positive widths leave the profile unchanged.
func (p Profile) WithPointerWidth(width int) Profile {
	if width > 0 {
		p.PointerWidth = width
	}
	return p
}

// Names lists the accepted architecture names in sorted order.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
