package standard

import (
	"fmt"
	"regexp"
	"strconv"
)

var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Semver is a strict MAJOR.MINOR.PATCH version. Pre-release and build
// suffixes are not part of the standard's version grammar.
type Semver struct {
	Major, Minor, Patch int
}

// ParseSemver parses s, rejecting anything but three dot-separated integers.
func ParseSemver(s string) (Semver, error) {
	m := semverPattern.FindStringSubmatch(s)
	if m == nil {
		return Semver{}, fmt.Errorf("invalid version %q (format: MAJOR.MINOR.PATCH)", s)
	}
	var v Semver
	var err error
	if v.Major, err = strconv.Atoi(m[1]); err != nil {
		return Semver{}, fmt.Errorf("invalid major in %q: %w", s, err)
	}
	if v.Minor, err = strconv.Atoi(m[2]); err != nil {
		return Semver{}, fmt.Errorf("invalid minor in %q: %w", s, err)
	}
	if v.Patch, err = strconv.Atoi(m[3]); err != nil {
		return Semver{}, fmt.Errorf("invalid patch in %q: %w", s, err)
	}
	return v, nil
}

// MustParseSemver is ParseSemver for constants.
func MustParseSemver(s string) Semver {
	v, err := ParseSemver(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether actual satisfies a dependency on required:
// majors equal, actual minor >= required minor, and on equal minors
// actual patch >= required patch.
func Compatible(required, actual Semver) bool {
	if actual.Major != required.Major {
		return false
	}
	if actual.Minor != required.Minor {
		return actual.Minor > required.Minor
	}
	return actual.Patch >= required.Patch
}

// CompatibleStrings is Compatible over unparsed versions. Unparseable input
// is never compatible.
func CompatibleStrings(required, actual string) bool {
	r, err := ParseSemver(required)
	if err != nil {
		return false
	}
	a, err := ParseSemver(actual)
	if err != nil {
		return false
	}
	return Compatible(r, a)
}
