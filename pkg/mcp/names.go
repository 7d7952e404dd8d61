package mcp

import (
	"fmt"
	"regexp"
	"strings"
)

// toolNameRegex validates the "peer.tool" format.
// Both parts must start with a word character and contain only word
// characters and hyphens.
var toolNameRegex = regexp.MustCompile(`^([\w][\w-]*)\.([\w][\w-]*)$`)

// NormalizeToolName converts tool names between wire formats.
// Model function names use "peer__tool" (restricted charset); the canonical
// form everywhere else is "peer.tool".
func NormalizeToolName(name string) string {
	if strings.Contains(name, "__") && !strings.Contains(name, ".") {
		return strings.Replace(name, "__", ".", 1)
	}
	return name
}

// SplitToolName splits "peer.tool" into (peer, toolName, error).
func SplitToolName(name string) (peer, toolName string, err error) {
	matches := toolNameRegex.FindStringSubmatch(name)
	if matches == nil {
		return "", "", fmt.Errorf(
			"invalid tool name %q: must be in 'peer.tool' format "+
				"(e.g., 'kubernetes.get_pods')", name)
	}
	return matches[1], matches[2], nil
}
