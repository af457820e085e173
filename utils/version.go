package utils

import (
	"fmt"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// MinimumOpenCVVersion is the oldest OpenCV runtime the pipeline is exercised
// against.
var MinimumOpenCVVersion = [3]int{4, 6, 0}

// BlacklistedOpenCVVersions lists runtime versions known to misbehave with
// the operations the pipeline uses.
var BlacklistedOpenCVVersions = [][3]int{}

// ParseVersion splits a version string such as "4.10.0" or "4.10.0-dev" into
// its (major, minor, patch) components, ignoring any suffix after a dash.
func ParseVersion(version string) ([3]int, error) {
	parsed := [3]int{}
	parts := strings.Split(strings.Split(version, "-")[0], ".")
	if len(parts) < 3 {
		return parsed, fmt.Errorf("malformed version string %q", version)
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return parsed, fmt.Errorf("malformed version string %q: %v", version, err)
		}
		parsed[i] = v
	}
	return parsed, nil
}

// OpenCVVersion reports the version of the linked OpenCV runtime.
func OpenCVVersion() ([3]int, error) {
	return ParseVersion(gocv.OpenCVVersion())
}

// OpenCVVersionOK reports whether the linked OpenCV runtime is at least the
// given minimum version and not blacklisted.
func OpenCVVersionOK(minimum [3]int, blacklisted [][3]int) bool {
	version, err := OpenCVVersion()
	if err != nil {
		return false
	}
	return versionOK(version, minimum, blacklisted)
}

// AssertOpenCVVersion errors when the linked OpenCV runtime is older than
// MinimumOpenCVVersion or blacklisted.
func AssertOpenCVVersion() error {
	version, err := OpenCVVersion()
	if err != nil {
		return err
	}
	if !versionOK(version, MinimumOpenCVVersion, BlacklistedOpenCVVersions) {
		return fmt.Errorf(
			"you are using OpenCV version %s, the minimum required version is %d.%d.%d (blacklisted: %v)",
			gocv.OpenCVVersion(),
			MinimumOpenCVVersion[0], MinimumOpenCVVersion[1], MinimumOpenCVVersion[2],
			BlacklistedOpenCVVersions,
		)
	}
	return nil
}

func versionOK(version, minimum [3]int, blacklisted [][3]int) bool {
	if compareVersions(version, minimum) < 0 {
		return false
	}
	for _, b := range blacklisted {
		if version == b {
			return false
		}
	}
	return true
}

func compareVersions(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
