package version

import (
	"fmt"
	"runtime/debug"
)

var (
	tag       = "dev" // set via ldflags
	commit    = "123abc"
	buildTime = "now"
)

// Version is the release tag reported to MCP clients and in User-Agent headers
var Version = tag

const template = "foodlens %s (%s) built at %s\nhttps://github.com/noot-app/foodlens/releases/tag/%s"

// buildInfoReader is swapped out in tests
var buildInfoReader = debug.ReadBuildInfo

// String is the long form printed by `foodlens version`. VCS stamps fill in
// whatever ldflags left at their defaults.
func String() string {
	currentCommit := commit
	currentDate := buildTime

	if info, ok := buildInfoReader(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && commit == "123abc" {
				currentCommit = setting.Value
			}
			if setting.Key == "vcs.time" && buildTime == "now" {
				currentDate = setting.Value
			}
		}
	}

	return fmt.Sprintf(template, tag, currentCommit, currentDate, tag)
}

// UserAgent identifies foodlens to Open Food Facts and other upstreams
func UserAgent() string {
	return fmt.Sprintf("foodlens/%s (https://github.com/noot-app/foodlens)", tag)
}
