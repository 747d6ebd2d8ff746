package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Minimum supported git version. Keep this aligned with the flags used across
// the project (e.g. "status --porcelain=v2 -z" and "log --walk-reflogs -z").
var minGitVersion = gitVersion{major: 2, minor: 23, patch: 0}

type gitVersion struct {
	major int
	minor int
	patch int
}

func MinGitVersion() string {
	return minGitVersion.String()
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(other gitVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	if s == "" {
		return gitVersion{}, false
	}
	// Common formats:
	// - "git version 2.44.0"
	// - "git version 2.39.3 (Apple Git-146)"
	// - "git version 2.39.3.windows.1"
	s = strings.TrimSpace(strings.TrimPrefix(s, "git version"))
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return gitVersion{}, false
	}
	s = s[start:]
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	parts := strings.Split(strings.Trim(s[:end], "."), ".")
	if len(parts) < 2 {
		return gitVersion{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return gitVersion{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return gitVersion{}, false
	}
	patch := 0
	if len(parts) >= 3 {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}
	return gitVersion{major: major, minor: minor, patch: patch}, true
}

func validateGitVersion(got, want gitVersion) error {
	if got.less(want) {
		return fmt.Errorf("git %s is too old; gitrun requires git >= %s", got, want)
	}
	return nil
}

type gitVersionInfo struct {
	out    string
	parsed gitVersion
	err    error
}

// versionInfo runs "git --version" once per Executor. Cancellation is not
// cached, so a later call with a live context retries the probe.
func (e *Executor) versionInfoCached(ctx context.Context) (gitVersionInfo, error) {
	e.versionMu.Lock()
	defer e.versionMu.Unlock()
	if e.versionInfo != nil {
		return *e.versionInfo, nil
	}
	out, err := e.Execute(ctx, NewCommand("", "--version"), FlagsNone)
	if err != nil {
		if ctx.Err() != nil {
			return gitVersionInfo{}, err
		}
		info := gitVersionInfo{err: fmt.Errorf("git --version: %w", err)}
		e.versionInfo = &info
		return info, nil
	}
	info := gitVersionInfo{out: strings.TrimSpace(out.Stdout)}
	switch parsed, ok := parseGitVersionOutput(out.Stdout); {
	case out.ExitCode != 0:
		info.err = fmt.Errorf("git --version: exited with code %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
	case !ok:
		info.err = fmt.Errorf("unable to parse git version output: %q", info.out)
	default:
		info.parsed = parsed
	}
	e.versionInfo = &info
	return info, nil
}

// GitVersion returns the raw "git --version" output.
func (e *Executor) GitVersion(ctx context.Context) (string, error) {
	info, err := e.versionInfoCached(ctx)
	if err != nil {
		return "", err
	}
	return info.out, info.err
}

// EnsureMinVersion fails when the configured git is older than required.
func (e *Executor) EnsureMinVersion(ctx context.Context) error {
	info, err := e.versionInfoCached(ctx)
	if err != nil {
		return err
	}
	if info.err != nil {
		return info.err
	}
	return validateGitVersion(info.parsed, e.minVersion)
}
