package catalog

import (
	"regexp"
	"strings"
)

var handleURLRegex = regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/@([a-zA-Z0-9_.-]+)`)

// NormalizeChannelRef reduces a channel reference to either an "@handle" or a
// raw channel ID. Accepted inputs: a bare ID, a bare handle, a handle URL
// (https://youtube.com/@Example) or a channel URL
// (https://youtube.com/channel/UCxxxx).
func NormalizeChannelRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if matches := handleURLRegex.FindStringSubmatch(ref); matches != nil {
		return "@" + matches[1]
	}
	if strings.Contains(ref, "youtube.com/channel/") {
		tail := ref[strings.Index(ref, "/channel/")+len("/channel/"):]
		if idx := strings.IndexAny(tail, "/?"); idx >= 0 {
			tail = tail[:idx]
		}
		return tail
	}
	return ref
}
