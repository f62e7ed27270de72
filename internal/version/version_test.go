package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePrefersLdflags(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })

	Version, Commit, BuildTime = "v1.2.3", "0123456789abcdef0123", "2026-01-02T03:04:05Z"
	info := Resolve()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "0123456789abcdef0123", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, String(), "v1.2.3 (0123456789ab")
}

func TestResolveFallsBack(t *testing.T) {
	oldV := Version
	t.Cleanup(func() { Version = oldV })

	Version = ""
	assert.NotEmpty(t, Resolve().Version)
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc", shortCommit("abc"))
	assert.Equal(t, "0123456789ab", shortCommit("0123456789abcdef"))
}
