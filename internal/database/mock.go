package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockNaviGreatRepository struct {
	mock.Mock
}

func (m *MockNaviGreatRepository) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockNaviGreatRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockNaviGreatRepository) UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockNaviGreatRepository) GetAccountById(ctx context.Context, accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockNaviGreatRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockNaviGreatRepository) ListMentors(ctx context.Context) ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockNaviGreatRepository) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	args := m.Called(params)
	return args.Get(0).(Booking), args.Error(1)
}
func (m *MockNaviGreatRepository) ListBookingsByStudentId(ctx context.Context, studentId int) ([]Booking, error) {
	args := m.Called(studentId)
	return args.Get(0).([]Booking), args.Error(1)
}
func (m *MockNaviGreatRepository) ListBookingsByMentorId(ctx context.Context, mentorId int) ([]Booking, error) {
	args := m.Called(mentorId)
	return args.Get(0).([]Booking), args.Error(1)
}
func (m *MockNaviGreatRepository) CreateLecture(ctx context.Context, params CreateLectureParams) (Lecture, error) {
	args := m.Called(params)
	return args.Get(0).(Lecture), args.Error(1)
}
func (m *MockNaviGreatRepository) ListLecturesByMentorId(ctx context.Context, mentorId int) ([]Lecture, error) {
	args := m.Called(mentorId)
	return args.Get(0).([]Lecture), args.Error(1)
}
func (m *MockNaviGreatRepository) CreateReview(ctx context.Context, params CreateReviewParams) (Review, error) {
	args := m.Called(params)
	return args.Get(0).(Review), args.Error(1)
}
func (m *MockNaviGreatRepository) ListReviewsByMentorId(ctx context.Context, mentorId int) ([]Review, error) {
	args := m.Called(mentorId)
	return args.Get(0).([]Review), args.Error(1)
}
func (m *MockNaviGreatRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockNaviGreatRepository) GetConversation(ctx context.Context, userA, userB int) ([]Message, error) {
	args := m.Called(userA, userB)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockNaviGreatRepository) MarkConversationRead(ctx context.Context, fromUserId, toUserId int) error {
	args := m.Called(fromUserId, toUserId)
	return args.Error(0)
}
func (m *MockNaviGreatRepository) UnreadCount(ctx context.Context, fromUserId, toUserId int) (int, error) {
	args := m.Called(fromUserId, toUserId)
	return args.Int(0), args.Error(1)
}
func (m *MockNaviGreatRepository) ListConversationPartnerIds(ctx context.Context, userId int) ([]int, error) {
	args := m.Called(userId)
	return args.Get(0).([]int), args.Error(1)
}
func (m *MockNaviGreatRepository) GetLatestMessage(ctx context.Context, userA, userB int) (Message, error) {
	args := m.Called(userA, userB)
	return args.Get(0).(Message), args.Error(1)
}
