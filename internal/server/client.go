package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/navigreat/navigreat-server/internal/database"
	"github.com/navigreat/navigreat-server/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096

	// storageTimeout bounds every store call made on the chat path so
	// a stalled database never wedges a connection.
	storageTimeout = 5 * time.Second
)

// Client is the state machine for one live connection. It starts
// Connected, becomes Joined once a join event binds it to the user's
// room, and terminates on disconnect.
type Client struct {
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	joined     bool
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		conn:       conn,
		chatServer: cs,
		log:        l,
		user:       user,
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1, ""))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		switch {
		case msg.Join != nil:
			c.handleJoin(&msg)
		case msg.Publish != nil:
			c.handlePublish(&msg)
		case msg.Typing != nil:
			c.handleTyping(&msg, msg.Typing.RoomId, true)
		case msg.StopTyping != nil:
			c.handleTyping(&msg, msg.StopTyping.RoomId, false)
		default:
			c.queueMessage(ErrInvalidMessage(msg.Id, ""))
		}
	}
}

// handleJoin moves the connection to the Joined state. The join payload
// names a user id; it must match the authenticated user, so one user
// cannot bind to another's inbox room.
func (c *Client) handleJoin(msg *ClientMessage) {
	if msg.Join.UserId != c.user.Id {
		c.queueMessage(ErrPermissionDenied(msg.Id))
		return
	}

	c.chatServer.JoinUser(c)
	c.joined = true
	c.queueMessage(NoErrOK(msg.Id, nil))
}

// handlePublish validates, persists and fans out one message. The
// persisted record (with server-assigned id and timestamp) is emitted
// to the receiver's room and echoed to the sender's room; the echo is
// the sender's confirmation that the message is durable.
func (c *Client) handlePublish(msg *ClientMessage) {
	if !c.joined {
		c.queueMessage(ErrNotJoined(msg.Id))
		return
	}

	if err := ValidatePublish(msg.Publish); err != nil {
		c.queueMessage(ErrInvalidMessage(msg.Id, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	saved, err := c.chatServer.db.CreateMessage(ctx, database.CreateMessageParams{
		SenderId:    c.user.Id,
		ReceiverId:  msg.Publish.ReceiverId,
		Content:     msg.Publish.Content,
		MessageType: msg.Publish.MessageType,
		AudioUrl:    msg.Publish.AudioUrl,
	})
	if err != nil {
		c.log.Println("error saving message:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	c.chatServer.stats.Incr(statNumMessagesSent)
	c.queueMessage(NoErrAccepted(msg.Id))

	record := &types.Message{
		Id:          saved.Id,
		SenderId:    saved.SenderId,
		ReceiverId:  saved.ReceiverId,
		Content:     saved.Content,
		MessageType: saved.MessageType,
		AudioUrl:    saved.AudioUrl,
		Read:        saved.Read,
		Timestamp:   saved.CreatedAt,
	}

	c.chatServer.Broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: saved.CreatedAt},
		Message:     record,
		UserId:      saved.ReceiverId,
	})

	if saved.ReceiverId != saved.SenderId {
		c.chatServer.Broadcast(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: saved.CreatedAt},
			Message:     record,
			UserId:      saved.SenderId,
		})
	}
}

// handleTyping relays a transient typing signal to the other party in
// the conversation room. The sender must be a member of the room.
func (c *Client) handleTyping(msg *ClientMessage, roomId string, typing bool) {
	if !c.joined {
		c.queueMessage(ErrNotJoined(msg.Id))
		return
	}

	userA, userB, err := ParsePairRoomId(roomId)
	if err != nil {
		c.queueMessage(ErrInvalidMessage(msg.Id, "invalid room id"))
		return
	}

	senderId := msg.GetUserId()
	if senderId != userA && senderId != userB {
		c.queueMessage(ErrPermissionDenied(msg.Id))
		return
	}

	c.chatServer.stats.Incr(statNumTypingEvents)
	c.chatServer.BroadcastToPeer(roomId, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: msg.Timestamp},
		Notification: &Notification{
			Typing: &TypingNotification{
				RoomId: roomId,
				UserId: senderId,
				Typing: typing,
			},
		},
		SkipClient: c,
	})
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.chatServer.DeRegisterClient(c)
	c.stopClient()
}
