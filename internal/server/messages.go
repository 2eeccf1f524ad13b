package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/navigreat/navigreat-server/internal/types"
)

var (
	ErrEmptyContent    = errors.New("content is required for text messages")
	ErrEmptyAudioUrl   = errors.New("audio url is required for audio messages")
	ErrUnknownType     = errors.New("unknown message type")
	ErrInvalidReceiver = errors.New("receiver is required")
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for every client-to-server event.
// Exactly one of the event fields is set.
type ClientMessage struct {
	BaseMessage
	Join       *Join       `json:"join,omitempty"`
	Publish    *Publish    `json:"publish,omitempty"`
	Typing     *Typing     `json:"typing,omitempty"`
	StopTyping *StopTyping `json:"stop_typing,omitempty"`
	UserId     int         `json:"-"`
	client     *Client     `json:"-"`
}

func (cm *ClientMessage) GetUserId() int {
	if cm.UserId != 0 {
		return cm.UserId
	}

	if cm.client != nil {
		return cm.client.user.Id
	}

	return 0
}

// Join binds the connection to the user's inbox room.
type Join struct {
	UserId int `json:"user_id"`
}

type Publish struct {
	ReceiverId  int    `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	AudioUrl    string `json:"audio_url"`
}

type Typing struct {
	RoomId string `json:"room_id"`
}

type StopTyping struct {
	RoomId string `json:"room_id"`
}

type ServerMessage struct {
	BaseMessage
	Response     *Response      `json:"response,omitempty"`
	Message      *types.Message `json:"message,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	UserId       int            `json:"-"`
	SkipClient   *Client        `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type Notification struct {
	Typing *TypingNotification `json:"typing,omitempty"`
}

// TypingNotification relays a transient typing signal; Typing false
// means the peer stopped typing. No state is retained server-side.
type TypingNotification struct {
	RoomId string `json:"room_id"`
	UserId int    `json:"user_id"`
	Typing bool   `json:"typing"`
}

// ValidatePublish enforces the per-type required field: text messages
// need content, audio messages need an audio url.
func ValidatePublish(p *Publish) error {
	if p.ReceiverId <= 0 {
		return ErrInvalidReceiver
	}

	switch p.MessageType {
	case types.MessageTypeText:
		if strings.TrimSpace(p.Content) == "" {
			return ErrEmptyContent
		}
	case types.MessageTypeAudio:
		if strings.TrimSpace(p.AudioUrl) == "" {
			return ErrEmptyAudioUrl
		}
	default:
		return ErrUnknownType
	}

	return nil
}

// PairRoomId derives the conversation room id for a pair of users. The
// id is order-independent: both users address the same room.
func PairRoomId(userA, userB int) string {
	if userB < userA {
		userA, userB = userB, userA
	}

	return fmt.Sprintf("p%d-%d", userA, userB)
}

func ParsePairRoomId(roomId string) (int, int, error) {
	trimmed, ok := strings.CutPrefix(roomId, "p")
	if !ok {
		return 0, 0, fmt.Errorf("invalid room id %q", roomId)
	}

	lowStr, highStr, ok := strings.Cut(trimmed, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid room id %q", roomId)
	}

	low, err := strconv.Atoi(lowStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid room id %q", roomId)
	}

	high, err := strconv.Atoi(highStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid room id %q", roomId)
	}

	if low <= 0 || high <= 0 || low > high {
		return 0, 0, fmt.Errorf("invalid room id %q", roomId)
	}

	return low, high, nil
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func ErrNotJoined(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusConflict,
			Error:        "join required",
		},
	}
}

func ErrPermissionDenied(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        "permission denied",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int, reason string) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message",
		},
	}

	if reason != "" {
		msg.Response.Error = reason
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
