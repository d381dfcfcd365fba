// Package semver checks bridge/host version compatibility during the readiness handshake.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:compat"

var (
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	major, err := strconv.Atoi(rangeStr)
	if err != nil {
		return -1
	}
	return major
}

// IncompatibleError reports a version that does not satisfy a required range.
type IncompatibleError struct {
	Version string
	Range   string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("version %s does not satisfy %q", e.Version, e.Range)
}

// CheckCompatible returns nil if version satisfies rangeStr. An empty range
// accepts any version. Major-only ranges ("2") match any release of that major.
// Exact versions require equality. Anything else is parsed as a SemVer constraint
// (e.g. "^1.2.0", ">=1.0.0 <3.0.0").
func CheckCompatible(version, rangeStr string) error {
	rangeStr = strings.TrimSpace(rangeStr)
	if rangeStr == "" {
		return nil
	}

	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}

	if IsMajorOnly(rangeStr) {
		if int(sv.Major()) != ExtractMajorFromRange(rangeStr) {
			return &IncompatibleError{Version: version, Range: rangeStr}
		}
		return nil
	}

	if IsExactVersion(rangeStr) {
		want, err := masterminds.NewVersion(rangeStr)
		if err != nil {
			return fmt.Errorf("%s - invalid version %q: %w", logPrefix, rangeStr, err)
		}
		if !sv.Equal(want) {
			return &IncompatibleError{Version: version, Range: rangeStr}
		}
		return nil
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return fmt.Errorf("%s - invalid range %q: %w", logPrefix, rangeStr, err)
	}
	if !constraint.Check(sv) {
		return &IncompatibleError{Version: version, Range: rangeStr}
	}
	return nil
}

// SatisfiesRange reports whether version satisfies rangeStr. Invalid input never satisfies.
func SatisfiesRange(version, rangeStr string) bool {
	return CheckCompatible(version, rangeStr) == nil
}
