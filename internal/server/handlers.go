package server

import (
	"errors"
	"fmt"
	"log"

	"zonegraph/internal/protocol"
	"zonegraph/pkg/zones"
)

// Handlers processes incoming messages.
type Handlers struct {
	hub *Hub
}

// NewHandlers creates a new handler set.
func NewHandlers(hub *Hub) *Handlers {
	return &Handlers{hub: hub}
}

// Handle routes a message to the appropriate handler.
func (h *Handlers) Handle(client *Client, msg *protocol.Message) {
	var err error

	switch msg.Type {
	case protocol.TypePing:
		h.reply(client, msg.ID, protocol.TypePong, struct{}{})
	case protocol.TypeProcessMap:
		err = h.handleProcessMap(client, msg)
	case protocol.TypeListMaps:
		h.reply(client, msg.ID, protocol.TypeMapList, protocol.MapListPayload{Maps: mapInfos()})
	case protocol.TypeListLayouts:
		err = h.handleListLayouts(client, msg)
	default:
		err = errors.New("unknown message type: " + string(msg.Type))
		h.sendError(client, msg.ID, protocol.ErrCodeInvalidMessage, err)
		return
	}

	if err != nil {
		h.sendError(client, msg.ID, errorCode(err), err)
	}
}

// handleProcessMap processes a map, streaming a progress message after
// every step and finishing with the result.
func (h *Handlers) handleProcessMap(client *Client, msg *protocol.Message) error {
	var payload protocol.ProcessMapPayload
	if err := msg.ParsePayload(&payload); err != nil {
		h.sendError(client, msg.ID, protocol.ErrCodeInvalidMessage, err)
		return nil
	}

	res, err := h.hub.server.process(payload, func(p zones.Progress) {
		h.reply(client, msg.ID, protocol.TypeProgress, protocol.ProgressPayload{
			State:    p.State.String(),
			Zones:    p.Zones,
			Gateways: p.Gateways,
			Message:  p.Message,
		})
	})
	if err != nil {
		return err
	}

	result, err := resultPayload(res)
	if err != nil {
		return err
	}
	if res.Layout != nil {
		log.Printf("Stored layout %s (%s)", res.Layout.ID, res.Layout.ShareCode)
	}

	resp, err := protocol.NewMessage(protocol.TypeProcessResult, result)
	if err != nil {
		return err
	}
	resp.ID = msg.ID
	if size, limit := len(resp.Payload), h.hub.server.maxResultSize(); size > limit {
		text := fmt.Sprintf("result for map %s is %d bytes, over the %d byte message limit", result.MapID, size, limit)
		if res.Layout != nil {
			text += fmt.Sprintf("; fetch it from /api/layouts/%s", res.Layout.ID)
		}
		log.Printf("Refusing to send oversized result: %s", text)
		h.sendError(client, msg.ID, protocol.ErrCodeResultTooLarge, errors.New(text))
		return nil
	}
	client.Send(resp)
	return nil
}

// handleListLayouts sends the stored layouts.
func (h *Handlers) handleListLayouts(client *Client, msg *protocol.Message) error {
	layouts, err := h.hub.server.db.ListLayouts()
	if err != nil {
		return err
	}

	payload := protocol.LayoutListPayload{Layouts: make([]protocol.LayoutInfo, 0, len(layouts))}
	for _, l := range layouts {
		payload.Layouts = append(payload.Layouts, layoutInfo(l))
	}
	h.reply(client, msg.ID, protocol.TypeLayoutList, payload)
	return nil
}

// reply sends a message tagged with the ID of the request it answers.
func (h *Handlers) reply(client *Client, msgID string, msgType protocol.MessageType, payload interface{}) {
	resp, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		log.Printf("Failed to build %s message: %v", msgType, err)
		return
	}
	resp.ID = msgID
	client.Send(resp)
}

// sendError sends an error message to a client.
func (h *Handlers) sendError(client *Client, msgID string, code protocol.ErrorCode, err error) {
	payload := protocol.ErrorPayload{
		Code:    code,
		Message: err.Error(),
	}
	msg, _ := protocol.NewMessage(protocol.TypeError, payload)
	msg.ID = msgID
	client.Send(msg)
}
