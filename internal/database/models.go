package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	College      string
	Branch       string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	Id          int
	SenderId    int
	ReceiverId  int
	Content     string
	MessageType string
	AudioUrl    string
	Read        bool
	CreatedAt   time.Time
}

type Booking struct {
	Id         int
	ExternalId string
	StudentId  int
	MentorId   int
	Status     string
	CreatedAt  time.Time
}

type Lecture struct {
	Id          int
	MentorId    int
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	MeetingLink string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Review struct {
	Id        int
	MentorId  int
	StudentId int
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	College      string
	Branch       string
	Image        string
}

type UpdateAccountParams struct {
	UserId       int
	Username     string
	PasswordHash string
	College      string
	Branch       string
	Image        string
}

type CreateMessageParams struct {
	SenderId    int
	ReceiverId  int
	Content     string
	MessageType string
	AudioUrl    string
}

type CreateBookingParams struct {
	ExternalId string
	StudentId  int
	MentorId   int
	Status     string
}

type CreateLectureParams struct {
	MentorId    int
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	MeetingLink string
}

type CreateReviewParams struct {
	MentorId  int
	StudentId int
	Rating    int
	Comment   string
}
