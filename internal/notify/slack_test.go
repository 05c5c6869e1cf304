package notify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/statusboardhq/statusboard/internal/database"
)

type fakeSlack struct {
	channels []slack.Channel
	listErr  error

	posted      []string
	postedTo    []string
	postErr     error
	listCalls   int
	postAttempt int
}

func (f *fakeSlack) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	f.postAttempt++
	if f.postErr != nil {
		return "", "", f.postErr
	}
	f.postedTo = append(f.postedTo, channelID)
	// MsgOption payloads are opaque; recording the call is enough here
	f.posted = append(f.posted, channelID)
	return channelID, "123.456", nil
}

func (f *fakeSlack) GetConversations(params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	return f.channels, "", nil
}

func namedChannel(name, id string) slack.Channel {
	var ch slack.Channel
	ch.Name = name
	ch.ID = id
	return ch
}

func openIncident() *database.Incident {
	return &database.Incident{
		IncidentType: database.IncidentTypeHost,
		HostName:     "web01",
		State:        "DOWN",
		PluginOutput: "CRITICAL - host unreachable",
		StartedAt:    time.Now().Add(-30 * time.Minute),
	}
}

func TestIsChannelID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"C01234567890", true},
		{"C0ABC123DEF", true},
		{"C012345678901234", false},
		{"C1234567", false},
		{"D01234567890", false},
		{"#alerts", false},
		{"alerts", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isChannelID(tt.input); got != tt.want {
			t.Errorf("isChannelID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestChannelIDPassedThrough(t *testing.T) {
	api := &fakeSlack{}
	n := &SlackNotifier{client: api, channel: "C01234567890"}

	n.IncidentOpened(openIncident())

	if api.listCalls != 0 {
		t.Errorf("channel ID should not trigger a lookup, got %d list calls", api.listCalls)
	}
	if len(api.postedTo) != 1 || api.postedTo[0] != "C01234567890" {
		t.Errorf("unexpected post targets: %v", api.postedTo)
	}
}

func TestChannelNameResolvedOnce(t *testing.T) {
	api := &fakeSlack{channels: []slack.Channel{
		namedChannel("general", "C11111111111"),
		namedChannel("alerts", "C01234567890"),
	}}
	n := &SlackNotifier{client: api, channel: "#alerts"}

	incident := openIncident()
	n.IncidentOpened(incident)
	n.IncidentClosed(incident)

	if api.listCalls != 1 {
		t.Errorf("expected one lookup, got %d", api.listCalls)
	}
	if len(api.postedTo) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(api.postedTo))
	}
	for _, id := range api.postedTo {
		if id != "C01234567890" {
			t.Errorf("posted to wrong channel: %s", id)
		}
	}
}

func TestUnknownChannelIsDropped(t *testing.T) {
	api := &fakeSlack{channels: []slack.Channel{namedChannel("general", "C11111111111")}}
	n := &SlackNotifier{client: api, channel: "alerts"}

	n.IncidentOpened(openIncident())

	if api.postAttempt != 0 {
		t.Errorf("no post should happen for an unknown channel, got %d attempts", api.postAttempt)
	}
}

func TestPostFailureDoesNotPanic(t *testing.T) {
	api := &fakeSlack{postErr: fmt.Errorf("rate limited")}
	n := &SlackNotifier{client: api, channel: "C01234567890"}

	n.IncidentOpened(openIncident())
	n.IncidentClosed(openIncident())
}

func TestEntityLabel(t *testing.T) {
	host := openIncident()
	if got := entityLabel(host); got != "web01" {
		t.Errorf("host label = %q", got)
	}

	svc := &database.Incident{
		IncidentType:       database.IncidentTypeService,
		HostName:           "web01",
		ServiceDescription: "HTTP",
	}
	if got := entityLabel(svc); !strings.Contains(got, "HTTP") {
		t.Errorf("service label = %q", got)
	}
}
