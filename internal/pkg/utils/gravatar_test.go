package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarURL(t *testing.T) {
	// md5("myemailaddress@example.com") from the Gravatar docs.
	want := "https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?s=80&d=mp"
	assert.Equal(t, want, AvatarURL("  MyEmailAddress@example.com ", 0))
	assert.Contains(t, AvatarURL("a@x.com", 32), "s=32")
}
