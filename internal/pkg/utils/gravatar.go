package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

const defaultAvatarSize = 80

// AvatarURL returns the Gravatar image of an account email. Unknown emails
// fall back to the "mystery person" silhouette.
func AvatarURL(email string, size int) string {
	if size <= 0 {
		size = defaultAvatarSize
	}
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
