// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/akinvite/internal/pkg/auth"
	"github.com/go-arcade/akinvite/pkg/id"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-resty/resty/v2"
)

const clientAPI = "/_matrix/client/v3"

// syncFilter keeps sync responses down to room messages and invites.
const syncFilter = `{"presence":{"types":[]},"account_data":{"types":[]},"room":{"state":{"types":[]},"ephemeral":{"types":[]},"account_data":{"types":[]},"timeline":{"types":["m.room.message"]}}}`

// MatrixError is a non-2xx reply from the homeserver.
type MatrixError struct {
	Status  int    `json:"-"`
	ErrCode string `json:"errcode"`
	Message string `json:"error"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %d %s: %s", e.Status, e.ErrCode, e.Message)
}

// MatrixTransport speaks the Matrix client-server API.
type MatrixTransport struct {
	baseURL      string
	authProvider auth.IAuthProvider
	client       *resty.Client

	mu     sync.Mutex
	userID string

	// dmMu serializes DirectRoom so one user never gets two new rooms.
	dmMu   sync.Mutex
	direct map[string]string
	stale  map[string]struct{}
}

func NewMatrixTransport(conf *MatrixConf) *MatrixTransport {
	client := resty.New().
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &MatrixTransport{
		baseURL:      strings.TrimRight(conf.Homeserver, "/") + clientAPI,
		authProvider: auth.NewBearerAuth(conf.AccessToken),
		client:       client,
		userID:       conf.UserID,
		direct:       make(map[string]string),
		stale:        make(map[string]struct{}),
	}
}

func (m *MatrixTransport) request(ctx context.Context) *resty.Request {
	return auth.Apply(m.client.R().SetContext(ctx), m.authProvider)
}

func (m *MatrixTransport) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, m.baseURL+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		merr := &MatrixError{}
		_ = sonic.Unmarshal(resp.Body(), merr)
		merr.Status = resp.StatusCode()
		return merr
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Whoami returns the bot's user id, asking the homeserver once if it was not configured.
func (m *MatrixTransport) Whoami(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userID != "" {
		return m.userID, nil
	}

	var out struct {
		UserID string `json:"user_id"`
	}
	if err := m.do(m.request(ctx), http.MethodGet, "/account/whoami", &out); err != nil {
		return "", err
	}
	if out.UserID == "" {
		return "", errors.New("whoami returned an empty user_id")
	}
	m.userID = out.UserID
	return m.userID, nil
}

type syncEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	Sender  string `json:"sender"`
	Content struct {
		MsgType string `json:"msgtype"`
		Body    string `json:"body"`
	} `json:"content"`
}

type syncResponse struct {
	NextBatch string `json:"next_batch"`
	Rooms     struct {
		Join map[string]struct {
			Timeline struct {
				Events []syncEvent `json:"events"`
			} `json:"timeline"`
		} `json:"join"`
		Invite map[string]any `json:"invite"`
	} `json:"rooms"`
}

func (m *MatrixTransport) Sync(ctx context.Context, since string, timeout time.Duration) (*SyncResult, error) {
	req := m.request(ctx).
		SetQueryParam("timeout", strconv.FormatInt(timeout.Milliseconds(), 10)).
		SetQueryParam("filter", syncFilter)
	if since != "" {
		req.SetQueryParam("since", since)
	}

	var resp syncResponse
	if err := m.do(req, http.MethodGet, "/sync", &resp); err != nil {
		return nil, err
	}

	res := &SyncResult{NextBatch: resp.NextBatch}
	for roomID := range resp.Rooms.Invite {
		res.Invites = append(res.Invites, roomID)
	}
	slices.Sort(res.Invites)

	for roomID, room := range resp.Rooms.Join {
		for _, ev := range room.Timeline.Events {
			if ev.Type != "m.room.message" {
				continue
			}
			res.Messages = append(res.Messages, Message{
				ID:      ev.EventID,
				RoomID:  roomID,
				Sender:  ev.Sender,
				MsgType: ev.Content.MsgType,
				Body:    ev.Content.Body,
			})
		}
	}
	return res, nil
}

func (m *MatrixTransport) JoinRoom(ctx context.Context, roomID string) error {
	req := m.request(ctx).SetBody(map[string]any{})
	return m.do(req, http.MethodPost, "/join/"+url.PathEscape(roomID), nil)
}

func (m *MatrixTransport) JoinedMembers(ctx context.Context, roomID string) ([]string, error) {
	var out struct {
		Joined map[string]any `json:"joined"`
	}
	path := "/rooms/" + url.PathEscape(roomID) + "/joined_members"
	if err := m.do(m.request(ctx), http.MethodGet, path, &out); err != nil {
		return nil, err
	}

	members := make([]string, 0, len(out.Joined))
	for userID := range out.Joined {
		members = append(members, userID)
	}
	slices.Sort(members)
	return members, nil
}

func (m *MatrixTransport) SendHTML(ctx context.Context, roomID, body string) (string, error) {
	return m.send(ctx, roomID, htmlContent(body))
}

func (m *MatrixTransport) Reply(ctx context.Context, to Message, body string) (string, error) {
	content := htmlContent(body)
	content["m.relates_to"] = map[string]any{
		"m.in_reply_to": map[string]string{"event_id": to.ID},
	}
	return m.send(ctx, to.RoomID, content)
}

func htmlContent(body string) map[string]any {
	return map[string]any{
		"msgtype":        "m.notice",
		"body":           PlainText(body),
		"format":         "org.matrix.custom.html",
		"formatted_body": body,
	}
}

func (m *MatrixTransport) send(ctx context.Context, roomID string, content map[string]any) (string, error) {
	var out struct {
		EventID string `json:"event_id"`
	}
	path := "/rooms/" + url.PathEscape(roomID) + "/send/m.room.message/" + id.GetULID()
	if err := m.do(m.request(ctx).SetBody(content), http.MethodPut, path, &out); err != nil {
		return "", err
	}
	return out.EventID, nil
}

func (m *MatrixTransport) MarkRead(ctx context.Context, roomID, eventID string) error {
	path := "/rooms/" + url.PathEscape(roomID) + "/receipt/m.read/" + url.PathEscape(eventID)
	return m.do(m.request(ctx).SetBody(map[string]any{}), http.MethodPost, path, nil)
}

// DirectRoom reuses the newest room listed for userID in m.direct, or creates a
// trusted private chat and records it there.
func (m *MatrixTransport) DirectRoom(ctx context.Context, userID string) (string, error) {
	m.dmMu.Lock()
	defer m.dmMu.Unlock()

	if roomID, ok := m.direct[userID]; ok {
		return roomID, nil
	}

	self, err := m.Whoami(ctx)
	if err != nil {
		return "", err
	}
	accountPath := "/user/" + url.PathEscape(self) + "/account_data/m.direct"

	direct := map[string][]string{}
	if err := m.do(m.request(ctx), http.MethodGet, accountPath, &direct); err != nil {
		var merr *MatrixError
		if !errors.As(err, &merr) || merr.Status != http.StatusNotFound {
			return "", err
		}
		direct = map[string][]string{}
	}

	rooms := direct[userID]
	for i := len(rooms) - 1; i >= 0; i-- {
		if _, ok := m.stale[rooms[i]]; ok {
			continue
		}
		m.direct[userID] = rooms[i]
		return rooms[i], nil
	}

	var created struct {
		RoomID string `json:"room_id"`
	}
	req := m.request(ctx).SetBody(map[string]any{
		"is_direct": true,
		"invite":    []string{userID},
		"preset":    "trusted_private_chat",
	})
	if err := m.do(req, http.MethodPost, "/createRoom", &created); err != nil {
		return "", err
	}
	log.Infow("created direct room", "user", userID, "room", created.RoomID)

	direct[userID] = append(direct[userID], created.RoomID)
	if err := m.do(m.request(ctx).SetBody(direct), http.MethodPut, accountPath, nil); err != nil {
		log.Warnw("failed to record direct room", "user", userID, "room", created.RoomID, "error", err)
	}

	m.direct[userID] = created.RoomID
	return created.RoomID, nil
}

// ForgetDirectRoom drops roomID from the cache and skips it in m.direct until
// restart, so the next DirectRoom opens a fresh room.
func (m *MatrixTransport) ForgetDirectRoom(userID, roomID string) {
	m.dmMu.Lock()
	defer m.dmMu.Unlock()

	if m.direct[userID] == roomID {
		delete(m.direct, userID)
	}
	m.stale[roomID] = struct{}{}
}
