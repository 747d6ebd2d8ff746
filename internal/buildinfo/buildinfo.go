// Package buildinfo reports how the binary was built.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var readBuildInfo = debug.ReadBuildInfo

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

func setting(key string) string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// Revision returns the short VCS revision, suffixed with "-dirty" when the
// tree had local modifications.
func Revision() string {
	rev := setting("vcs.revision")
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if setting("vcs.modified") == "true" {
		rev += "-dirty"
	}
	return rev
}

// String renders "version (revision, go1.x)" for --version.
func String() string {
	var extra []string
	if rev := Revision(); rev != "" {
		extra = append(extra, rev)
	}
	if info, ok := readBuildInfo(); ok && info != nil && info.GoVersion != "" {
		extra = append(extra, info.GoVersion)
	}
	if len(extra) == 0 {
		return Version()
	}
	return fmt.Sprintf("%s (%s)", Version(), strings.Join(extra, ", "))
}
