package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Semver represents a semantic version, optionally with a pre-release tag.
type Semver struct {
	Major int
	Minor int
	Patch int
	Pre   string
}

// ParseSemver parses a version string like "0.3.1", "v0.3.1" or "0.4.0-rc.1".
func ParseSemver(s string) (Semver, error) {
	s = strings.TrimPrefix(s, "v")

	var pre string
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		pre = s[idx+1:]
		s = s[:idx]
	}

	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return Semver{}, fmt.Errorf("invalid semver: %q", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Semver{}, fmt.Errorf("invalid major version: %w", err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Semver{}, fmt.Errorf("invalid minor version: %w", err)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return Semver{}, fmt.Errorf("invalid patch version: %w", err)
	}

	return Semver{Major: major, Minor: minor, Patch: patch, Pre: pre}, nil
}

// String returns the version as "major.minor.patch[-pre]".
func (v Semver) String() string {
	if v.Pre != "" {
		return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Pre)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// LessThan returns true if v < other. A pre-release sorts before the
// corresponding release; two pre-releases compare lexically.
func (v Semver) LessThan(other Semver) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	if v.Patch != other.Patch {
		return v.Patch < other.Patch
	}
	if v.Pre == other.Pre {
		return false
	}
	if v.Pre != "" && other.Pre == "" {
		return true
	}
	if v.Pre == "" {
		return false
	}
	return v.Pre < other.Pre
}
