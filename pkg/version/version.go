// Package version reports the pshvtools-shell build. The variables are
// stamped by the release build with
// -ldflags "-X github.com/zoro11031/pshvtools-shell/pkg/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the line printed by `pshvtools-shell version`
func Info() string {
	return fmt.Sprintf("pshvtools-shell %s (commit %s, built %s, %s %s/%s)",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
