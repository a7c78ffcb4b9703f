// Package version reports the build version of the controller binaries.
package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
)

// Version is set at link time:
//
//	go build -ldflags "-X github.com/DUNE-DAQ/dtpctrllibs/pkg/version.Version=v1.2.0"
//
// When unset, the module version from the build info is used.
var Version = ""

// Interface is the command interface version (command names and record
// fields) implemented by this library.
const Interface = "1.0"

// Release represents a parsed "major.minor" interface version.
type Release struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string. A leading "v" is accepted.
func Parse(s string) (Release, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) != 2 {
		return Release{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Release{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Release{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Release{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (r Release) String() string {
	return fmt.Sprintf("%d.%d", r.Major, r.Minor)
}

// Compatible returns true if the other version has the same major version.
func (r Release) Compatible(other Release) bool {
	return r.Major == other.Major
}

// String returns the build version, "devel" when nothing is known.
func String() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "devel"
}

// Banner returns the one-line version banner printed by the binaries.
func Banner(program string) string {
	return fmt.Sprintf("%s %s (interface %s)", program, String(), Interface)
}
