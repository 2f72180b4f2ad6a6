package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	longDateLayout = "Monday, 02 January 2006 at 15:04"
	dayLayout      = "Monday, 02 January"
	clockLayout    = "15:04"
)

// Rendered is the subject and both bodies of an email.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type linkTarget int

const (
	linkGame linkTarget = iota
	linkAddGame
	linkFindGame
)

type content struct {
	subject  string
	greeting string
	title    string
	text     *texttemplate.Template
	body     *htmltemplate.Template
	button   string
	link     linkTarget
}

type view struct {
	Greeting string
	Name     string
	GameName string
	When     string
	Day      string
	Clock    string
	Count    any
}

type layoutView struct {
	Title  string
	Body   htmltemplate.HTML
	Button string
	Link   string
	Footer string
}

func newContent(subject, greeting, title, text, body, button string, link linkTarget) content {
	return content{
		subject:  subject,
		greeting: greeting,
		title:    title,
		text:     texttemplate.Must(texttemplate.New(subject).Parse(text)),
		body:     htmltemplate.Must(htmltemplate.New(subject).Parse(body)),
		button:   button,
		link:     link,
	}
}

var contents = map[Kind]content{
	KindWelcome: newContent(
		"Welcome to PlayBud",
		"Hi there,",
		"You're in!",
		"{{.Greeting}}\n\nWelcome to PlayBud! You're now part of a community that loves organising and joining social games.\n"+
			"Jump into Find Game to book your next session or create one in Add Game.\n\nSee you on court!\nThe PlayBud Team",
		"{{.Greeting}}<br/>Thanks for joining the community. Here's what you can do next.",
		"Find games",
		linkFindGame,
	),
	KindOrganizerReview: newContent(
		"Your PlayBud organiser profile is under review",
		"Hi organiser,",
		"You're almost set",
		"{{.Greeting}}\n\nThanks for sharing your organiser details. Our team is reviewing everything to keep games safe "+
			"and trusted on PlayBud. We'll let you know as soon as you're approved.\n\n"+
			"You can always update your info from the organiser dashboard.",
		"{{.Greeting}}<br/>We're taking a quick look at your organiser profile. Expect an update from us soon.",
		"View organiser hub",
		linkAddGame,
	),
	KindBookingConfirmation: newContent(
		"You're in for the game",
		"Hi player,",
		"You're booked in",
		"{{.Greeting}}\n\nYou're confirmed for '{{.GameName}}' on {{.When}}.\n"+
			"Arrive 10 minutes early and bring the right kit.\n\nSee you soon!",
		"{{.Greeting}}<br/>You're confirmed for <strong>{{.GameName}}</strong> on <strong>{{.Day}}</strong> at <strong>{{.Clock}}</strong>.",
		"View details",
		linkGame,
	),
	KindGameReminder: newContent(
		"Your game starts in 6 hours",
		"Hi,",
		"Game starts soon",
		"{{.Greeting}}\n\nReminder: '{{.GameName}}' starts at {{.Clock}} today.\n"+
			"Please let the organiser know if anything changes.",
		"{{.Greeting}}<br/>This is a reminder that <strong>{{.GameName}}</strong> starts at <strong>{{.Clock}}</strong> today.",
		"View game",
		linkGame,
	),
	KindGameHalfFull: newContent(
		"Your PlayBud game is halfway booked",
		"",
		"Halfway there",
		"Hi {{with .Name}}{{.}}{{else}}organiser{{end}},\n\n"+
			"\"{{.GameName}}\" on {{.When}} has reached {{.Count}} players, halfway to capacity.\n"+
			"Keep sharing the link so it fills up fast.",
		"<strong>{{.GameName}}</strong> now has {{.Count}} players booked. Give it a final push!",
		"Share listing",
		linkGame,
	),
	KindGameFull: newContent(
		"Your PlayBud game is full",
		"",
		"Fully booked",
		"Hi {{with .Name}}{{.}}{{else}}organiser{{end}},\n\n"+
			"Great news: \"{{.GameName}}\" for {{.When}} just hit full capacity.\n"+
			"You can manage the roster and comms from your organiser dashboard.",
		"<strong>{{.GameName}}</strong> is full. Time to prep for a great session!",
		"View roster",
		linkGame,
	),
	KindGamePendingReview: newContent(
		"Thanks! Your game is pending approval",
		"",
		"We're reviewing your game",
		"Hi {{with .Name}}{{.}}{{else}}organiser{{end}},\n\n"+
			"We received your request to list \"{{.GameName}}\" on {{.When}}.\n"+
			"Our team is reviewing the details to keep listings trusted. We'll email you again once it's approved.",
		"Thanks for submitting <strong>{{.GameName}}</strong>. We'll confirm once it's ready for players.",
		"Track status",
		linkAddGame,
	),
	KindGameApproved: newContent(
		"Your PlayBud game is approved",
		"",
		"Your game is live",
		"Hi {{with .Name}}{{.}}{{else}}organiser{{end}},\n\n"+
			"Great news: \"{{.GameName}}\" has been approved and is now visible to players for {{.When}}.\n"+
			"Share your listing and get players booked in.",
		"<strong>{{.GameName}}</strong> is approved and ready to fill. Share it with your community and keep an eye on bookings.",
		"Manage game",
		linkGame,
	),
	KindGameRejected: newContent(
		"Your PlayBud game needs an update",
		"",
		"A quick tweak needed",
		"Hi {{with .Name}}{{.}}{{else}}organiser{{end}},\n\n"+
			"Your submission for \"{{.GameName}}\" on {{.When}} wasn't approved this time.\n"+
			"Give the details another look and resubmit when you're ready.",
		"This game wasn't approved yet. Tighten up the details and submit again. We're happy to take another look.",
		"Review listing",
		linkAddGame,
	),
}

var layout = htmltemplate.Must(htmltemplate.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>{{.Title}}</title>
  </head>
  <body style="margin:0;padding:0;background-color:#141414;font-family:'Helvetica Neue',Arial,sans-serif;color:#ffffff;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="background:#141414;padding:32px 16px;">
      <tr>
        <td align="center">
          <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background:#1c1c1c;border-radius:16px;overflow:hidden;">
            <tr>
              <td style="padding:32px;text-align:center;">
                <p style="margin:0;font-size:14px;letter-spacing:0.2em;text-transform:uppercase;color:#ffaa4d;">PlayBud</p>
                <h1 style="margin:16px 0 8px;font-size:28px;color:#ffffff;">{{.Title}}</h1>
                <p style="margin:0;color:#9ca3af;font-size:16px;line-height:1.5;">{{.Body}}</p>
              </td>
            </tr>
            <tr>
              <td style="padding:0 48px 32px;text-align:center;">
                <a href="{{.Link}}" style="display:inline-block;background:#ff4800;color:#ffffff;text-decoration:none;padding:14px 32px;border-radius:999px;font-weight:600;">{{.Button}}</a>
              </td>
            </tr>
            <tr>
              <td style="padding:16px 32px;background:#111111;text-align:center;color:#6b7280;font-size:12px;">{{.Footer}}</td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`))

// Render builds the email for msg. Push-only kinds have no email content.
func Render(msg Message, baseURL string, now time.Time) (Rendered, error) {
	c, ok := contents[msg.Kind]
	if !ok {
		return Rendered{}, fmt.Errorf("no email content for %q", msg.Kind)
	}

	v := view{
		Greeting: c.greeting,
		Name:     msg.Recipient.Name,
	}
	if msg.Recipient.Name != "" && c.greeting != "" {
		v.Greeting = "Hi " + msg.Recipient.Name + ","
	}
	if msg.Game != nil {
		start := msg.Game.EventStart()
		v.GameName = msg.Game.Name
		v.When = start.Format(longDateLayout)
		v.Day = start.Format(dayLayout)
		v.Clock = start.Format(clockLayout)
	}
	if msg.Data != nil {
		v.Count = msg.Data["count"]
	}

	var text bytes.Buffer
	if err := c.text.Execute(&text, v); err != nil {
		return Rendered{}, fmt.Errorf("render text: %w", err)
	}

	var body bytes.Buffer
	if err := c.body.Execute(&body, v); err != nil {
		return Rendered{}, fmt.Errorf("render body: %w", err)
	}

	var html bytes.Buffer
	err := layout.Execute(&html, layoutView{
		Title:  c.title,
		Body:   htmltemplate.HTML(body.String()),
		Button: c.button,
		Link:   c.href(baseURL, msg),
		Footer: fmt.Sprintf("© %d PlayBud.", now.Year()),
	})
	if err != nil {
		return Rendered{}, fmt.Errorf("render layout: %w", err)
	}

	return Rendered{Subject: c.subject, Text: text.String(), HTML: html.String()}, nil
}

func (c content) href(baseURL string, msg Message) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case c.link == linkGame && msg.Game != nil:
		return base + "/games/" + msg.Game.ID.String()
	case c.link == linkFindGame:
		return base + "/find-game"
	default:
		return base + "/add-game"
	}
}
