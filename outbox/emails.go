package outbox

import (
	"fmt"
	"html"

	"github.com/Govind-619/LinkSphere/utils"
)

// Email event types
const (
	EmailWelcomePlan = "email.plan_welcome"
)

// WelcomeEmail is sent to workspace owners after a successful upgrade
func WelcomeEmail(to []string, workspaceName, plan string) EmailMessage {
	body := fmt.Sprintf(`
		<h2>Welcome to LinkSphere %s!</h2>
		<p>Your workspace <strong>%s</strong> has been upgraded. Your new limits are active right away.</p>
		<p>Thanks for supporting LinkSphere.</p>
	`, html.EscapeString(utils.Title(plan)), html.EscapeString(workspaceName))

	return EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Welcome to LinkSphere %s", utils.Title(plan)),
		HTML:    body,
	}
}
