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
	"sync"
	"time"

	"github.com/go-arcade/akinvite/internal/invite"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/go-arcade/akinvite/pkg/safe"
)

const (
	minSyncBackoff = time.Second
	maxSyncBackoff = 30 * time.Second
)

// BotConfig is the command surface the bot answers to.
type BotConfig struct {
	Aliases     []string
	Prefix      string
	SyncTimeout time.Duration
}

// Bot turns chat commands into invitation operations.
type Bot struct {
	cfg       BotConfig
	transport Transport
	svc       *invite.Service

	userID string
	wg     sync.WaitGroup
}

func NewBot(cfg BotConfig, transport Transport, svc *invite.Service) *Bot {
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	return &Bot{
		cfg:       cfg,
		transport: transport,
		svc:       svc,
	}
}

// Name is the primary command name.
func (b *Bot) Name() string {
	if len(b.cfg.Aliases) == 0 {
		return ""
	}
	return b.cfg.Aliases[0]
}

// Run syncs until ctx is done, then waits for in-flight commands.
// Messages already in the timeline at startup are skipped.
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	userID, err := b.transport.Whoami(ctx)
	if err != nil {
		return err
	}
	b.userID = userID

	since := ""
	backoff := minSyncBackoff
	initial := true
	log.Infow("chat bot started", "user", userID, "command", b.cfg.Prefix+b.Name())

	for ctx.Err() == nil {
		timeout := b.cfg.SyncTimeout
		if initial {
			timeout = 0
		}

		res, err := b.transport.Sync(ctx, since, timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warnw("sync failed", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxSyncBackoff)
			continue
		}
		backoff = minSyncBackoff

		b.joinInvites(ctx, res.Invites)
		if !initial {
			b.dispatch(ctx, res.Messages)
		}
		since = res.NextBatch
		initial = false
	}

	log.Info("chat bot stopped")
	return nil
}

func (b *Bot) joinInvites(ctx context.Context, rooms []string) {
	for _, roomID := range rooms {
		if err := b.transport.JoinRoom(ctx, roomID); err != nil {
			log.Warnw("failed to join room", "room", roomID, "error", err)
			continue
		}
		log.Infow("joined room", "room", roomID)
	}
}

func (b *Bot) dispatch(ctx context.Context, msgs []Message) {
	for _, msg := range msgs {
		if msg.Sender == b.userID || msg.MsgType != "m.text" {
			continue
		}
		cmd, ok := ParseCommand(msg.Body, b.cfg.Prefix, b.cfg.Aliases)
		if !ok {
			continue
		}

		b.wg.Add(1)
		safe.Go(func() {
			defer b.wg.Done()
			b.Handle(ctx, msg, cmd)
		})
	}
}

// Handle runs one command and answers in msg's room.
func (b *Bot) Handle(ctx context.Context, msg Message, cmd Command) {
	if err := b.transport.MarkRead(ctx, msg.RoomID, msg.ID); err != nil {
		log.Debugw("failed to mark message read", "room", msg.RoomID, "event", msg.ID, "error", err)
	}
	log.Debugw("handling command", "sender", msg.Sender, "room", msg.RoomID, "sub", cmd.Sub)

	switch cmd.Sub {
	case "invite":
		b.invite(ctx, msg, cmd.Args)
	case "list":
		b.list(ctx, msg)
	case "status":
		b.status(ctx, msg, cmd.Args)
	case "revoke":
		b.revoke(ctx, msg, cmd.Args)
	default:
		b.respond(ctx, msg, helpText(b.cfg.Prefix, b.Name()))
	}
}

func (b *Bot) invite(ctx context.Context, msg Message, label string) {
	res, err := b.svc.Generate(ctx, msg.Sender, label)
	if err == nil {
		err = b.deliver(ctx, msg, res.Message)
	} else {
		b.respondError(ctx, msg, err)
	}
	metrics.ObserveInvitation("chat", invite.Outcome(err))
}

// deliver sends text to the caller, privately when the room is shared.
func (b *Bot) deliver(ctx context.Context, msg Message, text string) error {
	members, err := b.transport.JoinedMembers(ctx, msg.RoomID)
	if err != nil {
		return b.deliveryFailed(ctx, msg, err)
	}

	if len(members) <= 2 {
		if _, err := b.transport.SendHTML(ctx, msg.RoomID, text); err != nil {
			log.Errorw("failed to send invitation", "room", msg.RoomID, "error", err)
			return &invite.DeliveryError{Err: err}
		}
		return nil
	}

	roomID, err := b.transport.DirectRoom(ctx, msg.Sender)
	if err != nil {
		return b.deliveryFailed(ctx, msg, err)
	}
	if _, err := b.transport.SendHTML(ctx, roomID, text); err != nil {
		b.transport.ForgetDirectRoom(msg.Sender, roomID)
		return b.deliveryFailed(ctx, msg, err)
	}
	b.reply(ctx, msg, privateMessageSent)
	return nil
}

func (b *Bot) deliveryFailed(ctx context.Context, msg Message, err error) error {
	log.Errorw("failed to deliver invitation privately", "sender", msg.Sender, "room", msg.RoomID, "error", err)
	b.reply(ctx, msg, deliveryFailedText)
	return &invite.DeliveryError{Err: err}
}

func (b *Bot) list(ctx context.Context, msg Message) {
	names, err := b.svc.List(ctx, msg.Sender)
	if err != nil {
		var denied *invite.AuthorizationError
		if errors.As(err, &denied) {
			b.respondError(ctx, msg, err)
			return
		}
		b.respond(ctx, msg, requestFailed(err))
		return
	}
	b.respond(ctx, msg, listText(names))
}

func (b *Bot) status(ctx context.Context, msg Message, token string) {
	st, err := b.svc.Status(ctx, msg.Sender, token)
	if err != nil {
		b.respondError(ctx, msg, err)
		return
	}
	b.respond(ctx, msg, statusText(st))
}

func (b *Bot) revoke(ctx context.Context, msg Message, token string) {
	if err := b.svc.Revoke(ctx, msg.Sender, token); err != nil {
		b.respondError(ctx, msg, err)
		return
	}
	b.respond(ctx, msg, revokedText(token))
}

// respondError renders err per its kind. Validation errors reply to the message.
func (b *Bot) respondError(ctx context.Context, msg Message, err error) {
	var validation *invite.ValidationError
	if errors.As(err, &validation) {
		b.reply(ctx, msg, validation.Msg)
		return
	}
	b.respond(ctx, msg, errorText(err))
}

func (b *Bot) respond(ctx context.Context, msg Message, text string) {
	if _, err := b.transport.SendHTML(ctx, msg.RoomID, text); err != nil {
		log.Errorw("failed to send message", "room", msg.RoomID, "error", err)
	}
}

func (b *Bot) reply(ctx context.Context, msg Message, text string) {
	if _, err := b.transport.Reply(ctx, msg, text); err != nil {
		log.Errorw("failed to send reply", "room", msg.RoomID, "event", msg.ID, "error", err)
	}
}
