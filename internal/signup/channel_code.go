package signup

import (
	"fmt"
	"strings"
)

// ChannelCode builds a partner code from the first four letters of name,
// upper-cased and right-padded with X, followed by n (1000-9999).
func ChannelCode(name string, n int64) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if b.Len() == 4 {
			break
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	prefix := b.String() + strings.Repeat("X", 4-b.Len())
	return fmt.Sprintf("%s%04d", prefix, n)
}
