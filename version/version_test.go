package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	defer func(tag, commit string) {
		GitTag, GitCommit = tag, commit
	}(GitTag, GitCommit)

	GitTag, GitCommit = "", ""
	require.Equal(t, "dev", String())
	GitTag, GitCommit = "v0.3.0", "abc123"
	require.Equal(t, "v0.3.0 (abc123)", String())
}
