package config

import (
	"fmt"
	"runtime"
)

// The following vars are automatically injected via -ldflags at build time.
var (
	ModuleName = "build.local/misses/ldflags"                  // e.g. github/helmwallet/wallet-engine
	Commit     = "< 40 chars git commit hash via ldflags >"    // e.g. 59cb7684dd0b0f38d68cd7db657cb614feba8f7e
	BuildDate  = "1970-01-01T00:00:00+00:00"                   // e.g. 2026-02-28T09:32:49+00:00
)

// GetFormattedBuildArgs returns the build arguments formatted as "<ModuleName> @ <Commit> (<BuildDate>)".
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}

// GetFormattedBuildArgsWithRuntime additionally includes the go runtime version, os and arch.
func GetFormattedBuildArgsWithRuntime() string {
	return fmt.Sprintf("%v (%v, %v/%v)", GetFormattedBuildArgs(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
