package chat

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Message is one m.room.message event seen by the bot.
type Message struct {
	ID      string
	RoomID  string
	Sender  string
	MsgType string
	Body    string
}

// SyncResult is the slice of a sync response the bot acts on.
type SyncResult struct {
	NextBatch string
	Invites   []string
	Messages  []Message
}

// Transport is the chat network the bot listens and answers on.
type Transport interface {
	Whoami(ctx context.Context) (string, error)
	Sync(ctx context.Context, since string, timeout time.Duration) (*SyncResult, error)
	JoinRoom(ctx context.Context, roomID string) error
	JoinedMembers(ctx context.Context, roomID string) ([]string, error)
	SendHTML(ctx context.Context, roomID, body string) (string, error)
	Reply(ctx context.Context, to Message, body string) (string, error)
	MarkRead(ctx context.Context, roomID, eventID string) error
	// DirectRoom returns a one-to-one room with userID, creating it if needed.
	DirectRoom(ctx context.Context, userID string) (string, error)
	// ForgetDirectRoom stops DirectRoom from handing out roomID for userID.
	ForgetDirectRoom(userID, roomID string)
}

// PlainText renders an HTML fragment as text for clients without HTML support.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br", "p", "pre":
				b.WriteByte('\n')
			}
		}
	}
}
