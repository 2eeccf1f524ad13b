package types

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
)

const (
	MessageTypeText  = "text"
	MessageTypeAudio = "audio"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	Role         string    `json:"role,omitempty"`
	College      string    `json:"college,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id          int       `json:"id"`
	SenderId    int       `json:"sender_id"`
	ReceiverId  int       `json:"receiver_id"`
	Content     string    `json:"content,omitempty"`
	MessageType string    `json:"message_type"`
	AudioUrl    string    `json:"audio_url,omitempty"`
	Read        bool      `json:"read"`
	Timestamp   time.Time `json:"timestamp"`
}

type Booking struct {
	Id         int       `json:"id"`
	ExternalId string    `json:"external_id"`
	StudentId  int       `json:"student_id"`
	MentorId   int       `json:"mentor_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

type Lecture struct {
	Id          int       `json:"id"`
	MentorId    int       `json:"mentor_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type Review struct {
	Id        int       `json:"id"`
	MentorId  int       `json:"mentor_id"`
	StudentId int       `json:"student_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Contact is one entry in a user's contact list: the counterpart's
// profile, the most recent message exchanged (nil if none yet), and
// how many of the counterpart's messages the viewer has not read.
type Contact struct {
	User        User     `json:"user"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}
