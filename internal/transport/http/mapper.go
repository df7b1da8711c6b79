package http

import (
	"github.com/vellum-social/vellum-server/internal/presence"
	"github.com/vellum-social/vellum-server/internal/proto"
)

func outboundFromEvent(event presence.Event) proto.Outbound {
	switch event.Kind {
	case presence.EventNewMessage:
		msg := event.Message
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessageName,
			Data: proto.EventNewMessage{
				ID:             msg.ID,
				ConversationID: msg.ConversationID,
				SenderID:       msg.SenderID,
				Text:           msg.Text,
				AttachmentURL:  msg.AttachmentURL,
				TS:             msg.CreatedAt.Unix(),
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
