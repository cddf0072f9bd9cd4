// SPDX-License-Identifier: MIT
//
// Package build carries the metadata embedded into the monitor binary at link
// time (name, timestamp, commit, version) plus a UUID identifying the build,
// or the run when none was injected. It is printed at startup and by the
// version command so bench logs can be matched to firmware builds.
package build

import (
	"fmt"

	"github.com/google/uuid"
)

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
	Uuid    string
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation, for example:
//
//	go build -ldflags "-X cardiac/pkg/build.buildName=cardiac -X cardiac/pkg/build.buildVersion=0.3.0"
//
// Default values of "unknown" are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildUuid    string
	buildFlags   = &ldFlags{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
		Uuid:    "unknown",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. Returns an error if any required build flag is
// missing, in which case the development defaults stay in place. The UUID is
// optional: when it was not injected a random one is generated.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion
	buildFlags.Uuid = buildUuid
	if buildFlags.Uuid == "" {
		buildFlags.Uuid = uuid.NewString()
	}

	return nil
}

// GetBuildFlags returns the current build information. Initialize()
// must be called before this function to ensure the build information
// is valid.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the build information for logs and the version command.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, build %s)", f.Name, f.Version, f.Commit, f.Time, f.Uuid)
}
