package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/akinvite/internal/invite"
	"golang.org/x/net/html"
)

const (
	privateMessageSent = "I've sent you a private message with your invitation."
	deliveryFailedText = "Sorry, I couldn't send you a private message. Please try again later."
)

func helpText(prefix, name string) string {
	cmd := html.EscapeString(prefix + name)
	return strings.Join([]string{
		"<b>" + cmd + "</b>: do things with the Authentik API",
		"",
		cmd + " invite &lt;invitee&gt;: generate a new invitation link",
		cmd + " list: list all invites that have been generated",
		cmd + " status &lt;token&gt;: return the status of an invite token",
		cmd + " revoke &lt;token&gt;: disable an existing invite token",
	}, "<br />")
}

// errorText renders an invitation failure for the room.
func errorText(err error) string {
	var (
		authz     *invite.AuthorizationError
		upstream  *invite.UpstreamError
		malformed *invite.MalformedResponseError
	)
	switch {
	case errors.As(err, &authz):
		return invite.PermissionDenied
	case errors.As(err, &upstream):
		cause := upstream.Error()
		if upstream.Err != nil {
			cause = upstream.Err.Error()
		}
		return fmt.Sprintf("Uh oh! I got a %d response from your registration endpoint:<br />%s<br />which prompted me to produce this error:<br /><code>%s</code>",
			upstream.Status, html.EscapeString(upstream.Body), html.EscapeString(cause))
	case errors.As(err, &malformed):
		return "I got a bad response back, sorry, something is borked. \n" + html.EscapeString(malformed.Body)
	default:
		return requestFailed(err)
	}
}

func requestFailed(err error) string {
	return "request failed: " + html.EscapeString(err.Error())
}

func listText(names []string) string {
	raw, err := sonic.Marshal(names)
	if err != nil {
		return requestFailed(err)
	}
	return "<pre><code format=json>" + html.EscapeString(string(raw)) + "</code></pre>"
}

func statusText(st *invite.Status) string {
	raw, err := sonic.ConfigStd.MarshalIndent(st, "", "    ")
	if err != nil {
		return requestFailed(err)
	}
	return fmt.Sprintf("Status of token %s: \n<pre><code format=json>%s</code></pre>",
		html.EscapeString(st.Token), html.EscapeString(string(raw)))
}

func revokedText(token string) string {
	return "Invitation " + html.EscapeString(token) + " revoked."
}
