package version

import "fmt"

var GitCommit string
var GitTag string
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("netstack/%s+%s", GitTag, GitCommit)
}

// String describes the build for humans. Untagged builds report "dev".
func String() string {
	tag := GitTag
	if tag == "" {
		tag = "dev"
	}
	if GitCommit == "" {
		return tag
	}
	return fmt.Sprintf("%s (%s)", tag, GitCommit)
}
