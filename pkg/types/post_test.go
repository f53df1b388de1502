package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvalidPermalink(t *testing.T) {
	assert.True(t, IsInvalidPermalink(""))
	assert.True(t, IsInvalidPermalink("https://x.com/user/status/1/analytics"))
	assert.True(t, IsInvalidPermalink("https://x.com/user/status/1/analytics  "))
	assert.False(t, IsInvalidPermalink("https://x.com/user/status/1"))
	assert.False(t, IsInvalidPermalink("https://x.com/user/status/1?s=20"))
}
