package client

import (
	"context"
	"errors"
	"fmt"

	"zonegraph/internal/protocol"
)

// ErrDisconnected is returned when the server goes away mid request.
var ErrDisconnected = errors.New("disconnected from server")

// RemoteError is an error reported by the server.
type RemoteError struct {
	Code    protocol.ErrorCode
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// ProcessRemote connects to a server, asks it to process a map and waits
// for the result. onProgress, if set, sees every progress message.
func ProcessRemote(ctx context.Context, serverAddr string, req protocol.ProcessMapPayload, onProgress func(protocol.ProgressPayload)) (*protocol.ProcessResultPayload, error) {
	nc := NewNetworkClient()
	replies := make(chan *protocol.Message, 16)
	gone := make(chan error, 1)

	nc.OnMessage = func(msg *protocol.Message) {
		select {
		case replies <- msg:
		case <-ctx.Done():
		}
	}
	nc.OnDisconnect = func(err error) {
		select {
		case gone <- err:
		default:
		}
	}

	if err := nc.Connect(ctx, serverAddr); err != nil {
		return nil, err
	}
	defer nc.Disconnect()

	sent, err := nc.SendPayload(protocol.TypeProcessMap, req)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err := <-gone:
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDisconnected, err)
			}
			return nil, ErrDisconnected

		case msg := <-replies:
			if msg.ID != sent.ID {
				continue // welcome and other unsolicited messages
			}
			switch msg.Type {
			case protocol.TypeProgress:
				var p protocol.ProgressPayload
				if err := msg.ParsePayload(&p); err != nil {
					return nil, err
				}
				if onProgress != nil {
					onProgress(p)
				}
			case protocol.TypeProcessResult:
				var res protocol.ProcessResultPayload
				if err := msg.ParsePayload(&res); err != nil {
					return nil, err
				}
				return &res, nil
			case protocol.TypeError:
				var perr protocol.ErrorPayload
				if err := msg.ParsePayload(&perr); err != nil {
					return nil, err
				}
				return nil, &RemoteError{Code: perr.Code, Message: perr.Message}
			}
		}
	}
}
