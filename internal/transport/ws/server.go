// Package ws is the websocket gateway: chat frontends connect, identify with
// HELLO, then stream MESSAGE and INTERACTION events and receive REPLYs.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"guildhall.gg/internal/commands"
	"guildhall.gg/internal/protocol"
)

const outQueue = 16

type Server struct {
	handler       *commands.Handler
	catalogDigest string
	log           *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h *commands.Handler, catalogDigest string, logger *log.Logger) *Server {
	return &Server{
		handler:       h,
		catalogDigest: catalogDigest,
		log:           logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, bot, out := s.handshake(conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeMessage:
				s.onMessage(ctx, playerID, bot, msg, out)
			case protocol.TypeInteraction:
				s.onInteraction(ctx, playerID, msg, out)
			}
		}
	}
}

func (s *Server) onMessage(ctx context.Context, playerID string, bot bool, msg []byte, out chan []byte) {
	var m protocol.MessageMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return
	}
	if m.ProtocolVersion != protocol.Version {
		return
	}
	reply, err := s.handler.HandleMessage(ctx, commands.Event{
		PlayerID:  playerID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Mentions:  m.Mentions,
		Bot:       bot,
	})
	if err != nil {
		s.log.Printf("message from %s: %v", playerID, err)
		s.send(out, internalReply(m.ChannelID))
		return
	}
	if reply == nil {
		return
	}
	s.send(out, renderReply(reply, m.ChannelID, ""))
}

func (s *Server) onInteraction(ctx context.Context, playerID string, msg []byte, out chan []byte) {
	var m protocol.InteractionMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return
	}
	if m.ProtocolVersion != protocol.Version || m.CustomID == "" {
		return
	}
	reply, err := s.handler.HandleInteraction(ctx, playerID, m.CustomID)
	if err != nil {
		s.log.Printf("interaction %s from %s: %v", m.CustomID, playerID, err)
		s.send(out, internalReply(m.ChannelID))
		return
	}
	if reply == nil {
		return
	}
	// Updates re-use the id of the message holding the buttons so the
	// frontend edits in place.
	replyID := ""
	if reply.Update {
		replyID = m.ReplyID
	}
	s.send(out, renderReply(reply, m.ChannelID, replyID))
}

func (s *Server) send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Drop on a full queue rather than stall the reader.
	select {
	case out <- b:
	default:
		s.log.Printf("ws: outbound queue full, dropping reply")
	}
}

func renderReply(r *commands.Reply, channelID, replyID string) protocol.ReplyMsg {
	if replyID == "" {
		replyID = uuid.NewString()
	}
	return protocol.ReplyMsg{
		Type:            protocol.TypeReply,
		ProtocolVersion: protocol.Version,
		ReplyID:         replyID,
		ChannelID:       channelID,
		Content:         r.Content,
		Components:      r.Components,
		Update:          r.Update,
		Ephemeral:       r.Ephemeral,
		Code:            r.Code,
	}
}

func internalReply(channelID string) protocol.ReplyMsg {
	return protocol.ReplyMsg{
		Type:            protocol.TypeReply,
		ProtocolVersion: protocol.Version,
		ReplyID:         uuid.NewString(),
		ChannelID:       channelID,
		Content:         "Something went wrong, try again shortly.",
		Ephemeral:       true,
		Code:            protocol.ErrInternal,
	}
}

func (s *Server) handshake(conn *websocket.Conn) (playerID string, bot bool, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return "", false, nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return "", false, nil
	}
	playerID = strings.TrimSpace(hello.PlayerID)
	if playerID == "" {
		closePolicy(conn, "missing player_id")
		return "", false, nil
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		PlayerID:        playerID,
		CatalogDigest:   s.catalogDigest,
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return "", false, nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", false, nil
	}

	return playerID, hello.Bot, make(chan []byte, outQueue)
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second),
	)
}
