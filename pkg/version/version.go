// Package version identifies the running maestro build. The commit hash
// is taken from an -ldflags override when present, from the VCS metadata
// the linker embeds otherwise, and falls back to "dev" for test binaries
// and builds without a repository.
package version

import "runtime/debug"

// AppName names this service in MCP handshakes, session records, and logs.
const AppName = "maestro"

// gitCommitOverride is injected with -ldflags for container builds that
// compile outside a git checkout.
var gitCommitOverride string

// GitCommit is the short commit hash of this build, or "dev".
var GitCommit = initGitCommit()

func initGitCommit() string {
	if gitCommitOverride != "" {
		return shorten(gitCommitOverride)
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return shorten(s.Value)
		}
	}
	return "dev"
}

func shorten(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// Full returns "maestro/<commit>" for startup logs and user-agent strings.
func Full() string {
	return AppName + "/" + GitCommit
}
