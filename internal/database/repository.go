package database

import "context"

type NaviGreatRepository interface {
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error)
	GetAccountById(ctx context.Context, accountId int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	ListMentors(ctx context.Context) ([]User, error)

	CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error)
	ListBookingsByStudentId(ctx context.Context, studentId int) ([]Booking, error)
	ListBookingsByMentorId(ctx context.Context, mentorId int) ([]Booking, error)

	CreateLecture(ctx context.Context, params CreateLectureParams) (Lecture, error)
	ListLecturesByMentorId(ctx context.Context, mentorId int) ([]Lecture, error)

	CreateReview(ctx context.Context, params CreateReviewParams) (Review, error)
	ListReviewsByMentorId(ctx context.Context, mentorId int) ([]Review, error)

	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	GetConversation(ctx context.Context, userA, userB int) ([]Message, error)
	MarkConversationRead(ctx context.Context, fromUserId, toUserId int) error
	UnreadCount(ctx context.Context, fromUserId, toUserId int) (int, error)
	ListConversationPartnerIds(ctx context.Context, userId int) ([]int, error)
	GetLatestMessage(ctx context.Context, userA, userB int) (Message, error)
}
