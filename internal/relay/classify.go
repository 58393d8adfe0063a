// Package relay implements the chat-to-automation pipeline: it classifies
// inbound messages, builds the outbound event for the matching route,
// forwards it to the automation endpoint, and turns the response into a
// reply.
package relay

import (
	"strings"

	"github.com/taskrelayhq/taskrelay/internal/chat"
)

// Route is the terminal classification of one inbound message.
type Route string

const (
	RouteIgnored      Route = "ignored"
	RouteGroupMention Route = "group_mention"
	RouteDirect       Route = "direct_keyword"
)

// Classify decides, from the literal message body alone, which handling
// route applies. Group messages match when they contain any configured
// mention token (the canonical @<number> form or an alternate serialization
// of the same identity). Direct messages match on a case-insensitive
// trigger keyword. Everything else, including empty bodies, is ignored.
func Classify(msg chat.Message, mentionTokens []string, triggerKeyword string) Route {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return RouteIgnored
	}

	if msg.IsGroup {
		for _, token := range mentionTokens {
			if token != "" && strings.Contains(body, token) {
				return RouteGroupMention
			}
		}
		return RouteIgnored
	}

	if triggerKeyword != "" && strings.Contains(strings.ToUpper(body), strings.ToUpper(triggerKeyword)) {
		return RouteDirect
	}
	return RouteIgnored
}
