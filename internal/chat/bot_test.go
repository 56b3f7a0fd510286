package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/akinvite/internal/invite"
	"github.com/go-arcade/akinvite/internal/pkg/authentik"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	RoomID  string
	ReplyTo string
	Body    string
}

type fakeTransport struct {
	mu sync.Mutex

	members   map[string][]string
	dmRoom    string
	dmErr     error
	sendErrIn map[string]error

	syncs     []*SyncResult
	exhausted chan struct{}
	sinces    []string

	joined    []string
	read      []string
	sent      []sent
	forgotten []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		members:   map[string][]string{},
		sendErrIn: map[string]error{},
		exhausted: make(chan struct{}, 1),
	}
}

func (f *fakeTransport) Whoami(context.Context) (string, error) { return "@bot:x", nil }

func (f *fakeTransport) Sync(ctx context.Context, since string, _ time.Duration) (*SyncResult, error) {
	f.mu.Lock()
	f.sinces = append(f.sinces, since)
	if len(f.syncs) > 0 {
		res := f.syncs[0]
		f.syncs = f.syncs[1:]
		f.mu.Unlock()
		return res, nil
	}
	f.mu.Unlock()

	select {
	case f.exhausted <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTransport) JoinRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, roomID)
	return nil
}

func (f *fakeTransport) JoinedMembers(_ context.Context, roomID string) ([]string, error) {
	return f.members[roomID], nil
}

func (f *fakeTransport) SendHTML(_ context.Context, roomID, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErrIn[roomID]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, sent{RoomID: roomID, Body: body})
	return "$sent", nil
}

func (f *fakeTransport) Reply(_ context.Context, to Message, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{RoomID: to.RoomID, ReplyTo: to.ID, Body: body})
	return "$reply", nil
}

func (f *fakeTransport) MarkRead(_ context.Context, _, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, eventID)
	return nil
}

func (f *fakeTransport) DirectRoom(context.Context, string) (string, error) {
	return f.dmRoom, f.dmErr
}

func (f *fakeTransport) ForgetDirectRoom(userID, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, userID+" "+roomID)
}

func (f *fakeTransport) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type fakeProvider struct {
	calls      int
	invitation *authentik.Invitation
	page       *authentik.Page
	err        error
}

func (p *fakeProvider) CreateInvitation(context.Context, authentik.CreateRequest) (*authentik.Invitation, error) {
	p.calls++
	return p.invitation, p.err
}

func (p *fakeProvider) ListInvitations(context.Context) (*authentik.Page, error) {
	p.calls++
	return p.page, p.err
}

func (p *fakeProvider) GetInvitation(context.Context, string) (*authentik.Invitation, error) {
	p.calls++
	return p.invitation, p.err
}

func (p *fakeProvider) DeleteInvitation(context.Context, string) error {
	p.calls++
	return p.err
}

func okProvider() *fakeProvider {
	return &fakeProvider{invitation: &authentik.Invitation{
		Pk:      "T1",
		FlowObj: &authentik.Flow{Slug: "S1"},
	}}
}

func newTestBot(tr Transport, p invite.Provider, policy invite.Policy) *Bot {
	svc := invite.NewService(invite.Config{
		AkURL:          "https://sso.example.org",
		FlowID:         "flow",
		ExpirationDays: 7,
		Policy:         policy,
	}, p)
	return NewBot(BotConfig{Aliases: []string{"sso", "ak"}}, tr, svc)
}

func inviteMsg(room string) Message {
	return Message{ID: "$e1", RoomID: room, Sender: "@alice:x", MsgType: "m.text", Body: "!sso invite Bob"}
}

func TestBot_InviteInDirectRoom(t *testing.T) {
	tr := newFakeTransport()
	tr.members["!dm"] = []string{"@alice:x", "@bot:x"}
	bot := newTestBot(tr, okProvider(), invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!dm"), Command{Sub: "invite", Args: "Bob"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "!dm", msgs[0].RoomID)
	assert.Contains(t, msgs[0].Body, "https://sso.example.org/if/flow/S1/?itoken=T1")
	assert.Equal(t, []string{"$e1"}, tr.read)
}

func TestBot_InviteInSharedRoomGoesPrivate(t *testing.T) {
	tr := newFakeTransport()
	tr.members["!shared"] = []string{"@alice:x", "@bob:x", "@bot:x"}
	tr.dmRoom = "!private"
	bot := newTestBot(tr, okProvider(), invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!shared"), Command{Sub: "invite", Args: "Bob"})

	msgs := tr.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "!private", msgs[0].RoomID)
	assert.Contains(t, msgs[0].Body, "itoken=T1")
	assert.Equal(t, sent{RoomID: "!shared", ReplyTo: "$e1", Body: privateMessageSent}, msgs[1])
}

func TestBot_PrivateDeliveryFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.members["!shared"] = []string{"@alice:x", "@bob:x", "@bot:x"}
	tr.dmErr = errors.New("createRoom: forbidden")
	bot := newTestBot(tr, okProvider(), invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!shared"), Command{Sub: "invite", Args: "Bob"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "!shared", msgs[0].RoomID)
	assert.Equal(t, deliveryFailedText, msgs[0].Body)
	assert.NotContains(t, msgs[0].Body, "itoken")
}

func TestBot_PrivateSendFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.members["!shared"] = []string{"@alice:x", "@bob:x", "@bot:x"}
	tr.dmRoom = "!private"
	tr.sendErrIn["!private"] = errors.New("M_FORBIDDEN")
	bot := newTestBot(tr, okProvider(), invite.Policy{})

	err := bot.deliver(context.Background(), inviteMsg("!shared"), "secret")
	var de *invite.DeliveryError
	require.ErrorAs(t, err, &de)

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, deliveryFailedText, msgs[0].Body)
	assert.Equal(t, []string{"@alice:x !private"}, tr.forgotten)
}

func TestBot_InviteWithoutInvitee(t *testing.T) {
	tr := newFakeTransport()
	p := okProvider()
	bot := newTestBot(tr, p, invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!dm"), Command{Sub: "invite"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "$e1", msgs[0].ReplyTo)
	assert.Equal(t, "please tell me who this invite is for", msgs[0].Body)
	assert.Zero(t, p.calls)
}

func TestBot_Denied(t *testing.T) {
	tr := newFakeTransport()
	p := okProvider()
	bot := newTestBot(tr, p, invite.Policy{Disallowed: []string{"@alice:x"}})

	bot.Handle(context.Background(), inviteMsg("!dm"), Command{Sub: "invite", Args: "Bob"})
	bot.Handle(context.Background(), inviteMsg("!dm"), Command{Sub: "list"})

	msgs := tr.messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, invite.PermissionDenied, m.Body)
	}
	assert.Zero(t, p.calls)
}

func TestBot_UpstreamError(t *testing.T) {
	tr := newFakeTransport()
	p := &fakeProvider{err: &authentik.StatusError{Status: 403, Body: `{"detail":"denied"}`}}
	bot := newTestBot(tr, p, invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!dm"), Command{Sub: "invite", Args: "Bob"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Body, "Uh oh! I got a 403 response from your registration endpoint:<br />"))
	assert.Contains(t, msgs[0].Body, "{&#34;detail&#34;:&#34;denied&#34;}")
	assert.Contains(t, msgs[0].Body, "<code>")
}

func TestBot_MalformedResponse(t *testing.T) {
	tr := newFakeTransport()
	p := &fakeProvider{invitation: &authentik.Invitation{Raw: `{"oops":1}`}}
	bot := newTestBot(tr, p, invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!dm"), Command{Sub: "invite", Args: "Bob"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Body, "I got a bad response back, sorry, something is borked."))
	assert.Contains(t, msgs[0].Body, "oops")
}

func TestBot_List(t *testing.T) {
	tr := newFakeTransport()
	results := []authentik.Invitation{{Name: "a"}, {Name: "b"}}
	bot := newTestBot(tr, &fakeProvider{page: &authentik.Page{Results: &results}}, invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!room"), Command{Sub: "list"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, `<pre><code format=json>[&#34;a&#34;,&#34;b&#34;]</code></pre>`, msgs[0].Body)
	assert.Equal(t, `["a","b"]`, PlainText(msgs[0].Body))
}

func TestBot_ListFailure(t *testing.T) {
	tr := newFakeTransport()
	bot := newTestBot(tr, &fakeProvider{err: errors.New("dial tcp: refused")}, invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!room"), Command{Sub: "list"})

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Body, "request failed: "))
}

func TestBot_StatusAndRevoke(t *testing.T) {
	tr := newFakeTransport()
	p := &fakeProvider{invitation: &authentik.Invitation{Pk: "T1", Name: "bob", SingleUse: true}}
	bot := newTestBot(tr, p, invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!room"), Command{Sub: "status", Args: "T1"})
	bot.Handle(context.Background(), inviteMsg("!room"), Command{Sub: "revoke", Args: "T1"})
	bot.Handle(context.Background(), inviteMsg("!room"), Command{Sub: "revoke"})

	msgs := tr.messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].Body, "Status of token T1")
	assert.Contains(t, PlainText(msgs[0].Body), `"name": "bob"`)
	assert.Equal(t, "Invitation T1 revoked.", msgs[1].Body)
	assert.Equal(t, "you must supply a token to revoke", msgs[2].Body)
}

func TestBot_Help(t *testing.T) {
	tr := newFakeTransport()
	bot := newTestBot(tr, okProvider(), invite.Policy{})

	bot.Handle(context.Background(), inviteMsg("!room"), Command{})
	bot.Handle(context.Background(), inviteMsg("!room"), Command{Sub: "frobnicate"})

	msgs := tr.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Body, "!sso invite &lt;invitee&gt;")
	assert.Equal(t, msgs[0].Body, msgs[1].Body)
	assert.Equal(t, "sso", bot.Name())
}

func TestBot_RunSkipsBacklogAndOwnMessages(t *testing.T) {
	tr := newFakeTransport()
	tr.members["!dm"] = []string{"@alice:x", "@bot:x"}
	tr.syncs = []*SyncResult{
		{
			NextBatch: "s1",
			Invites:   []string{"!new"},
			Messages:  []Message{inviteMsg("!dm")},
		},
		{
			NextBatch: "s2",
			Messages: []Message{
				{ID: "$own", RoomID: "!dm", Sender: "@bot:x", MsgType: "m.text", Body: "!sso list"},
				{ID: "$notice", RoomID: "!dm", Sender: "@alice:x", MsgType: "m.notice", Body: "!sso list"},
				{ID: "$chat", RoomID: "!dm", Sender: "@alice:x", MsgType: "m.text", Body: "hello"},
				{ID: "$cmd", RoomID: "!dm", Sender: "@alice:x", MsgType: "m.text", Body: "!AK invite Carol"},
			},
		},
	}
	bot := newTestBot(tr, okProvider(), invite.Policy{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	select {
	case <-tr.exhausted:
	case <-time.After(5 * time.Second):
		t.Fatal("sync was never drained")
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"", "s1", "s2"}, tr.sinces)
	assert.Equal(t, []string{"!new"}, tr.joined)
	assert.Equal(t, []string{"$cmd"}, tr.read)

	msgs := tr.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "itoken=T1")
}
