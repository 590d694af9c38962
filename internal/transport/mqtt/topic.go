package mqtt

import "strings"

// MatchTopic reports whether topic matches an MQTT filter with the + and #
// wildcards.
func MatchTopic(filter, topic string) bool {
	if filter == "#" {
		return !strings.HasPrefix(topic, "$")
	}
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")

	for i, f := range fl {
		if f == "#" {
			return i == len(fl)-1
		}
		if i >= len(tl) {
			return false
		}
		if f == "+" {
			continue
		}
		if f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}
