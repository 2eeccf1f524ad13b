package server

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/navigreat/navigreat-server/internal/database"
	"github.com/navigreat/navigreat-server/internal/stats"
	"github.com/navigreat/navigreat-server/internal/testutil"
	"github.com/navigreat/navigreat-server/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
	user := types.User{Id: 1, Username: "testuser"}

	client := NewClient(user, nil, cs, testutil.TestLogger(t))
	assert.Equal(t, user, client.user, "expected user to be set")
	assert.Equal(t, cs, client.chatServer, "expected chat server to be set")
	assert.NotNil(t, client.send, "expected send channel to be initialized")
	assert.NotNil(t, client.stop, "expected stop channel to be initialized")
	assert.False(t, client.joined, "expected client to start unjoined")
}

func TestClient_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		client := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		msg := &ServerMessage{}
		ok := client.queueMessage(msg)
		assert.True(t, ok, "expected message to be queued")
		assert.Len(t, client.send, 1, "expected 1 message in send channel")
	})

	t.Run("queue full", func(t *testing.T) {
		client := &Client{
			send: make(chan *ServerMessage),
			log:  testutil.TestLogger(t),
		}

		ok := client.queueMessage(&ServerMessage{})
		assert.False(t, ok, "expected queue to fail when channel is full")
	})
}

func TestClient_handleJoin(t *testing.T) {
	t.Run("successful join", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", "NumJoinedUsers").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, su)
		client := &Client{
			user:       types.User{Id: 1, Username: "testuser"},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
		}

		client.handleJoin(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Join:        &Join{UserId: 1},
		})

		assert.True(t, client.joined, "expected client to be joined")
		assert.Contains(t, cs.userMap[1], client, "expected client in user's room")

		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, 1, msg.Id, "expected response id to match join message id")
			assert.Equal(t, http.StatusOK, msg.Response.ResponseCode, "expected 200 response code")
		default:
			t.Error("expected join ack to be queued")
		}
	})

	t.Run("join as another user is denied", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 1, Username: "testuser"},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
		}

		client.handleJoin(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Join:        &Join{UserId: 2},
		})

		assert.False(t, client.joined, "expected client to remain unjoined")
		assert.NotContains(t, cs.userMap, 2, "expected no room binding for other user")

		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, http.StatusForbidden, msg.Response.ResponseCode, "expected 403 response code")
		default:
			t.Error("expected error response to be queued")
		}
	})
}

func TestClient_handlePublish(t *testing.T) {
	t.Run("successful publish", func(t *testing.T) {
		db := &database.MockNaviGreatRepository{}
		defer db.AssertExpectations(t)

		saved := database.Message{
			Id:          10,
			SenderId:    1,
			ReceiverId:  2,
			Content:     "hello",
			MessageType: types.MessageTypeText,
			CreatedAt:   time.Now().UTC(),
		}
		db.On("CreateMessage", database.CreateMessageParams{
			SenderId:    1,
			ReceiverId:  2,
			Content:     "hello",
			MessageType: types.MessageTypeText,
		}).Return(saved, nil).Once()

		su := &stats.MockStatsUpdater{}
		su.On("Incr", "NumMessagesSent").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, db, su)
		client := &Client{
			user:       types.User{Id: 1, Username: "testuser"},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}

		client.handlePublish(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Publish: &Publish{
				ReceiverId:  2,
				Content:     "hello",
				MessageType: types.MessageTypeText,
			},
		})

		// the ack confirms the message is durable
		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, 1, msg.Id, "expected response id to match publish message id")
			assert.Equal(t, http.StatusAccepted, msg.Response.ResponseCode, "expected 202 response code")
		default:
			t.Error("expected ack to be queued")
		}

		// one event for the receiver's room, one echo for the sender's
		assert.Len(t, cs.broadcastChan, 2, "expected 2 broadcasts queued")

		receiverMsg := <-cs.broadcastChan
		assert.Equal(t, 2, receiverMsg.UserId, "expected first broadcast targeted at receiver")
		assert.NotNil(t, receiverMsg.Message, "expected message payload")
		assert.Equal(t, saved.Id, receiverMsg.Message.Id, "expected server-assigned id")
		assert.False(t, receiverMsg.Message.Read, "expected message to start unread")

		senderMsg := <-cs.broadcastChan
		assert.Equal(t, 1, senderMsg.UserId, "expected echo targeted at sender")
		assert.Equal(t, receiverMsg.Message, senderMsg.Message, "expected identical payload in echo")
	})

	t.Run("self message is echoed once", func(t *testing.T) {
		db := &database.MockNaviGreatRepository{}
		defer db.AssertExpectations(t)

		saved := database.Message{
			Id:          11,
			SenderId:    1,
			ReceiverId:  1,
			Content:     "note to self",
			MessageType: types.MessageTypeText,
			CreatedAt:   time.Now().UTC(),
		}
		db.On("CreateMessage", database.CreateMessageParams{
			SenderId:    1,
			ReceiverId:  1,
			Content:     "note to self",
			MessageType: types.MessageTypeText,
		}).Return(saved, nil).Once()

		su := &stats.MockStatsUpdater{}
		su.On("Incr", "NumMessagesSent").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, db, su)
		client := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}

		client.handlePublish(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Publish: &Publish{
				ReceiverId:  1,
				Content:     "note to self",
				MessageType: types.MessageTypeText,
			},
		})

		assert.Len(t, cs.broadcastChan, 1, "expected single broadcast for self message")
	})

	t.Run("publish before join", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
		}

		client.handlePublish(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Publish: &Publish{
				ReceiverId:  2,
				Content:     "hello",
				MessageType: types.MessageTypeText,
			},
		})

		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, http.StatusConflict, msg.Response.ResponseCode, "expected 409 response code")
		default:
			t.Error("expected error response to be queued")
		}

		assert.Len(t, cs.broadcastChan, 0, "expected no broadcasts")
	})

	t.Run("invalid publish", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}

		client.handlePublish(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Publish: &Publish{
				ReceiverId:  2,
				MessageType: types.MessageTypeText,
			},
		})

		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode, "expected 400 response code")
			assert.Equal(t, ErrEmptyContent.Error(), msg.Response.Error, "expected validation reason in response")
		default:
			t.Error("expected error response to be queued")
		}

		assert.Len(t, cs.broadcastChan, 0, "expected no broadcasts")
	})

	t.Run("db error saving message", func(t *testing.T) {
		db := &database.MockNaviGreatRepository{}
		defer db.AssertExpectations(t)

		db.On("CreateMessage", database.CreateMessageParams{
			SenderId:    1,
			ReceiverId:  2,
			Content:     "hello",
			MessageType: types.MessageTypeText,
		}).Return(database.Message{}, errors.New("db error")).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}

		client.handlePublish(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Publish: &Publish{
				ReceiverId:  2,
				Content:     "hello",
				MessageType: types.MessageTypeText,
			},
		})

		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, http.StatusInternalServerError, msg.Response.ResponseCode, "expected 500 response code")
		default:
			t.Error("expected error response to be queued")
		}

		assert.Len(t, cs.broadcastChan, 0, "expected no broadcasts after db error")
	})
}

func TestClient_handleTyping(t *testing.T) {
	t.Run("relays typing to peer", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", "NumActiveClients").Once()
		su.On("Incr", "NumJoinedUsers").Twice()
		su.On("Incr", "NumTypingEvents").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, su)

		sender := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}
		cs.JoinUser(sender)

		peer := &Client{user: types.User{Id: 2}, send: make(chan *ServerMessage, 1)}
		cs.RegisterClient(peer)
		cs.JoinUser(peer)

		sender.handleTyping(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Typing:      &Typing{RoomId: PairRoomId(1, 2)},
			UserId:      1,
		}, PairRoomId(1, 2), true)

		assert.Len(t, sender.send, 0, "expected no typing echo to sender")

		select {
		case msg := <-peer.send:
			assert.NotNil(t, msg.Notification, "expected notification message")
			assert.NotNil(t, msg.Notification.Typing, "expected typing notification")
			assert.Equal(t, PairRoomId(1, 2), msg.Notification.Typing.RoomId, "expected room id to match")
			assert.Equal(t, 1, msg.Notification.Typing.UserId, "expected typing user id to match sender")
			assert.True(t, msg.Notification.Typing.Typing, "expected typing to be true")
		default:
			t.Error("expected typing notification to be queued to peer")
		}
	})

	t.Run("relays stop typing", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", "NumActiveClients").Once()
		su.On("Incr", "NumJoinedUsers").Twice()
		su.On("Incr", "NumTypingEvents").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, su)

		sender := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}
		cs.JoinUser(sender)

		peer := &Client{user: types.User{Id: 2}, send: make(chan *ServerMessage, 1)}
		cs.RegisterClient(peer)
		cs.JoinUser(peer)

		sender.handleTyping(&ClientMessage{
			BaseMessage: BaseMessage{Id: 2, Timestamp: Now()},
			StopTyping:  &StopTyping{RoomId: PairRoomId(1, 2)},
			client:      sender,
		}, PairRoomId(1, 2), false)

		select {
		case msg := <-peer.send:
			assert.NotNil(t, msg.Notification.Typing, "expected typing notification")
			assert.False(t, msg.Notification.Typing.Typing, "expected typing to be false")
		default:
			t.Error("expected stop typing notification to be queued to peer")
		}
	})

	t.Run("typing before join", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
		}

		client.handleTyping(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Typing:      &Typing{RoomId: PairRoomId(1, 2)},
		}, PairRoomId(1, 2), true)

		select {
		case msg := <-client.send:
			assert.Equal(t, http.StatusConflict, msg.Response.ResponseCode, "expected 409 response code")
		default:
			t.Error("expected error response to be queued")
		}
	})

	t.Run("invalid room id", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 1},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}

		client.handleTyping(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Typing:      &Typing{RoomId: "bogus"},
		}, "bogus", true)

		select {
		case msg := <-client.send:
			assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode, "expected 400 response code")
		default:
			t.Error("expected error response to be queued")
		}
	})

	t.Run("typing in a room the user is not a member of", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
		client := &Client{
			user:       types.User{Id: 3},
			chatServer: cs,
			send:       make(chan *ServerMessage, 1),
			log:        cs.log,
			joined:     true,
		}

		client.handleTyping(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			Typing:      &Typing{RoomId: PairRoomId(1, 2)},
			client:      client,
		}, PairRoomId(1, 2), true)

		select {
		case msg := <-client.send:
			assert.Equal(t, http.StatusForbidden, msg.Response.ResponseCode, "expected 403 response code")
		default:
			t.Error("expected error response to be queued")
		}
	})
}

func TestClient_stopClient(t *testing.T) {
	cs := newTestChatServer(t, &database.MockNaviGreatRepository{}, &stats.MockStatsUpdater{})
	client := NewClient(types.User{Id: 1}, nil, cs, cs.log)

	client.stopClient()
	client.stopClient() // second stop must be a no-op

	select {
	case <-client.stop:
		// ok, stop channel closed
	default:
		t.Error("expected stop channel to be closed")
	}
}
