package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"text/template"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
)

// Slack posts Block Kit messages to an incoming webhook.
type Slack struct {
	URL    string
	Server string
	Client *http.Client
	Now    func() time.Time

	title *template.Template
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type    string     `json:"type"`
	BlockID string     `json:"block_id,omitempty"`
	Text    *slackText `json:"text,omitempty"`
}

type slackAttachment struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackMessage struct {
	Blocks      []slackBlock      `json:"blocks"`
	Attachments []slackAttachment `json:"attachments"`
}

func NewSlack(url, server, title string, timeout time.Duration) (*Slack, error) {
	tpl, err := parseTitle(title)
	if err != nil {
		return nil, err
	}
	return &Slack{
		URL:    url,
		Server: server,
		Client: &http.Client{Timeout: timeout},
		Now:    time.Now,
		title:  tpl,
	}, nil
}

// Message builds the webhook payload: the title, a divider, the time of the
// notification and the full status as a collapsed attachment.
func (s *Slack) Message(status monitor.GlobalStatus) ([]byte, error) {
	tpl := s.title
	if tpl == nil {
		tpl = template.Must(parseTitle(DefaultTitle))
	}
	title, err := renderTitle(tpl, s.Server, status)
	if err != nil {
		return nil, errors.Wrap(err, "could not render notification title")
	}

	body, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, err
	}

	msg := slackMessage{
		Blocks: []slackBlock{
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: title}},
			{Type: "divider"},
			{Type: "section", BlockID: "timestamp", Text: &slackText{Type: "mrkdwn", Text: s.now().Local().Format(monitor.TimeLayout)}},
		},
		Attachments: []slackAttachment{{
			Blocks: []slackBlock{
				{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "```" + string(body) + "```"}},
			},
		}},
	}
	return json.Marshal(msg)
}

func (s *Slack) Notify(ctx context.Context, status monitor.GlobalStatus) error {
	payload, err := s.Message(status)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to post message to slack")
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return errors.Errorf("slack responded with status %d", res.StatusCode)
	}

	log.WithFields(log.Fields{"kind": "notify", "failing": status.Failing()}).Info("posted status to slack")
	return nil
}

func (s *Slack) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
