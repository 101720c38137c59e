package ws

import (
	"context"
	"errors"
	"time"

	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/types"
)

// routeMessage is the fan-out path for one inbound chat message: persist,
// then broadcast the canonical persisted form to every session in the room,
// sender included. A message that failed to persist is never broadcast; the
// failure is reported to the originating session only. The responder is
// consulted strictly after the user's broadcast has been queued, so a slow or
// failing assistant never delays anyone's message.
func (g *Gateway) routeMessage(c *Client, roomId, content string) {
	ctx, cancel := opCtx()
	defer cancel()
	msg, err := g.store.CreateMessage(ctx, c.user.Id, roomId, content)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			c.sendError("message content must not be empty")
		} else {
			globals.AppLogger.Error("could not persist message", "room", roomId, "error", err)
			c.sendError("could not store message")
		}
		return
	}

	data, err := types.MarshalEvent(types.EventMessage, types.NewWireMessage(msg, c.user))
	if err != nil {
		globals.AppLogger.Error("could not marshal message", "error", err)
		return
	}
	g.getHub(roomId).Broadcast(data)

	go g.botFollowUp(roomId, content, c.user.DisplayName())
}

// botFollowUp produces at most one assistant reply per inbound message:
// command dispatch when the body is command-prefixed, the greeting matcher
// otherwise. The reply is persisted under the sentinel bot identity and
// broadcast like any user message. Responder faults have already been
// converted to canned replies by the chatbot and never surface here.
func (g *Gateway) botFollowUp(roomId, content, senderName string) {
	var reply string
	if g.chatbot.IsCommand(content) {
		timeout := time.Duration(g.cfg.BotConfig.TimeoutSeconds) * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply = g.chatbot.HandleCommand(ctx, content, senderName)
	} else {
		var ok bool
		reply, ok = g.chatbot.AutoResponse(content)
		if !ok {
			return
		}
	}

	ctx, cancel := opCtx()
	defer cancel()
	msg, err := g.store.CreateMessage(ctx, types.BotUserId, roomId, reply)
	if err != nil {
		globals.AppLogger.Error("could not persist bot reply", "room", roomId, "error", err)
		return
	}
	data, err := types.MarshalEvent(types.EventMessage, types.NewWireMessage(msg, g.botUser))
	if err != nil {
		return
	}
	g.getHub(roomId).Broadcast(data)
}
