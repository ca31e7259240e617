package mqtt

import "strings"

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "sceneagent"

// Topics builds the agent's topic names under one prefix.
//
//	topics := mqtt.NewTopics("studio/agent")
//	topics.Event("dispatch") // "studio/agent/event/dispatch"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Surrounding slashes are trimmed
// and an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of the topic tree.
func (t Topics) Prefix() string {
	return t.prefix
}

// Status returns the retained online/offline topic, also used for the LWT.
func (t Topics) Status() string {
	return t.prefix + "/status"
}

// Event returns the topic for one event kind.
func (t Topics) Event(kind string) string {
	return t.prefix + "/event/" + kind
}

// AllEvents returns a wildcard matching every event topic.
func (t Topics) AllEvents() string {
	return t.prefix + "/event/+"
}

// Control returns the inbound control topic.
func (t Topics) Control() string {
	return t.prefix + "/control"
}
