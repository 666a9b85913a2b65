package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	channelIDRegex = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
	handleRegex    = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,30}$`)
)

// ChannelRef identifies a channel either by id or by @handle.
type ChannelRef struct {
	ID     string
	Handle string
}

// String returns the id, or the handle with its @ prefix.
func (r ChannelRef) String() string {
	if r.Handle != "" {
		return "@" + r.Handle
	}
	return r.ID
}

// ParseChannelRef accepts a channel id, an @handle, or a youtube.com
// /channel/<id> or /@<handle> URL.
func ParseChannelRef(input string) (ChannelRef, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return ChannelRef{}, fmt.Errorf("%w: empty", ErrInvalidChannel)
	}

	if strings.Contains(s, "youtube.com/channel/") {
		if id := extractChannelIDFromURL(s); id != "" {
			return ChannelRef{ID: id}, nil
		}
		return ChannelRef{}, fmt.Errorf("%w: no channel id in %q", ErrInvalidChannel, input)
	}
	if strings.Contains(s, "youtube.com/@") {
		s = "@" + pathSegment(strings.SplitN(s, "youtube.com/@", 2)[1])
	}

	if strings.HasPrefix(s, "@") {
		handle := strings.TrimPrefix(s, "@")
		if !handleRegex.MatchString(handle) {
			return ChannelRef{}, fmt.Errorf("%w: bad handle %q", ErrInvalidChannel, input)
		}
		return ChannelRef{Handle: handle}, nil
	}

	if strings.ContainsAny(s, "/?# \t") {
		return ChannelRef{}, fmt.Errorf("%w: %q", ErrInvalidChannel, input)
	}
	return ChannelRef{ID: s}, nil
}

// extractChannelIDFromURL extracts the channel id from a /channel/ URL.
func extractChannelIDFromURL(url string) string {
	parts := strings.SplitN(url, "youtube.com/channel/", 2)
	if len(parts) < 2 {
		return ""
	}
	id := pathSegment(parts[1])
	if channelIDRegex.MatchString(id) {
		return id
	}
	return ""
}

// pathSegment returns s up to the first '/', '?', or '#'.
func pathSegment(s string) string {
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		return s[:i]
	}
	return s
}
