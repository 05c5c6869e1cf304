package notify

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/utils"
)

// slackAPI is the subset of the Slack client the notifier uses
type slackAPI interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	GetConversations(params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
}

// SlackNotifier posts incident open/close messages to a single channel.
// Delivery is best effort: a Slack failure is logged and dropped, it never
// propagates back into the poll cycle.
type SlackNotifier struct {
	client  slackAPI
	channel string

	mu         sync.Mutex
	resolvedID string
}

// NewSlackNotifier creates a notifier for the given bot token and channel.
// The channel may be a name ("#alerts", "alerts") or an ID (C01234567890).
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// IncidentOpened posts a problem notification
func (n *SlackNotifier) IncidentOpened(incident *database.Incident) {
	msg := fmt.Sprintf(":red_circle: *%s* is *%s*", entityLabel(incident), incident.State)
	if incident.PluginOutput != "" {
		msg += "\n> " + incident.PluginOutput
	}
	n.post(msg)
}

// IncidentClosed posts a recovery notification
func (n *SlackNotifier) IncidentClosed(incident *database.Incident) {
	ended := time.Now()
	if incident.EndedAt != nil {
		ended = *incident.EndedAt
	}
	msg := fmt.Sprintf(":large_green_circle: *%s* recovered to *%s* after %s",
		entityLabel(incident), incident.State, utils.FormatDuration(ended.Sub(incident.StartedAt)))
	n.post(msg)
}

func entityLabel(incident *database.Incident) string {
	if incident.IncidentType == database.IncidentTypeService {
		return incident.HostName + "/" + incident.ServiceDescription
	}
	return incident.HostName
}

func (n *SlackNotifier) post(text string) {
	channelID, err := n.channelID()
	if err != nil {
		log.Printf("SlackNotifier: %v", err)
		return
	}

	_, _, err = n.client.PostMessage(channelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("SlackNotifier: failed to post message: %v", err)
	}
}

// channelID resolves the configured channel name to an ID, caching the
// result for the lifetime of the process
func (n *SlackNotifier) channelID() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.resolvedID != "" {
		return n.resolvedID, nil
	}
	if n.channel == "" {
		return "", fmt.Errorf("no channel configured")
	}
	if isChannelID(n.channel) {
		n.resolvedID = n.channel
		return n.resolvedID, nil
	}

	name := strings.TrimPrefix(n.channel, "#")
	for _, kind := range []string{"public_channel", "private_channel"} {
		channels, _, err := n.client.GetConversations(&slack.GetConversationsParameters{
			ExcludeArchived: true,
			Limit:           1000,
			Types:           []string{kind},
		})
		if err != nil {
			return "", fmt.Errorf("failed to list %ss: %w", kind, err)
		}
		for _, ch := range channels {
			if ch.Name == name {
				n.resolvedID = ch.ID
				log.Printf("SlackNotifier: resolved channel '%s' to '%s'", name, ch.ID)
				return ch.ID, nil
			}
		}
	}

	return "", fmt.Errorf("channel '%s' not found", name)
}

// isChannelID checks if a string looks like a Slack channel ID.
// Channel IDs start with C followed by uppercase alphanumerics.
func isChannelID(s string) bool {
	if len(s) < 9 || len(s) > 15 {
		return false
	}
	if !strings.HasPrefix(s, "C") {
		return false
	}
	for _, c := range s[1:] {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
