package rss

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/utils"
)

// rssEnvelope is the top-level RSS 2.0 document
type rssEnvelope struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	LastBuildDate string `xml:"lastBuildDate"`
	Items         []item `xml:"item"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        guid   `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Generator renders incident history as an RSS 2.0 feed
type Generator struct {
	title   string
	baseURL string
}

// NewGenerator creates a feed generator. baseURL is the externally
// reachable root of the status page, without a trailing slash.
func NewGenerator(title, baseURL string) *Generator {
	return &Generator{title: title, baseURL: baseURL}
}

// Render produces the RSS document for the given incidents, newest first
// as supplied by the caller
func (g *Generator) Render(description string, incidents []database.Incident, now time.Time) ([]byte, error) {
	ch := channel{
		Title:         g.title,
		Link:          g.baseURL,
		Description:   description,
		LastBuildDate: now.UTC().Format(time.RFC1123Z),
	}

	for _, incident := range incidents {
		ch.Items = append(ch.Items, g.incidentItem(incident, now))
	}

	doc := rssEnvelope{Version: "2.0", Channel: ch}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func (g *Generator) incidentItem(incident database.Incident, now time.Time) item {
	subject := incident.HostName
	if incident.IncidentType == database.IncidentTypeService {
		subject = incident.HostName + "/" + incident.ServiceDescription
	}

	// Plugin output can be long; feed readers want a short summary line
	output := utils.TruncateText(incident.PluginOutput, 300)

	var title, desc string
	if incident.IsActive() {
		title = fmt.Sprintf("[ONGOING] %s is %s", subject, incident.State)
		desc = fmt.Sprintf("%s. Ongoing for %s.",
			output, utils.FormatDuration(now.Sub(incident.StartedAt)))
	} else {
		title = fmt.Sprintf("[RESOLVED] %s", subject)
		desc = fmt.Sprintf("%s. Lasted %s.",
			output, utils.FormatDuration(incident.EndedAt.Sub(incident.StartedAt)))
	}

	return item{
		Title:       title,
		Link:        fmt.Sprintf("%s/incidents/%s", g.baseURL, incident.UUID),
		Description: desc,
		GUID:        guid{IsPermaLink: false, Value: incident.UUID},
		PubDate:     incident.StartedAt.UTC().Format(time.RFC1123Z),
	}
}
