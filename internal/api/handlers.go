package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/navigreat/navigreat-server/internal/database"
	"github.com/navigreat/navigreat-server/internal/types"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	College  string `json:"college"`
	Branch   string `json:"branch"`
	Image    string `json:"image"`
}

type UpdateAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	College  string `json:"college"`
	Branch   string `json:"branch"`
	Image    string `json:"image"`
}

type CreateBookingRequest struct {
	MentorId int `json:"mentor_id"`
}

type CreateLectureRequest struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateReviewRequest struct {
	MentorId int    `json:"mentor_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

func (s *NaviGreatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func userFromAccount(a database.User) types.User {
	return types.User{
		Id:           a.Id,
		Username:     a.Username,
		EmailAddress: a.EmailAddress,
		Role:         a.Role,
		College:      a.College,
		Branch:       a.Branch,
		Image:        a.Image,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (s *NaviGreatApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Role == "" {
		req.Role = types.RoleStudent
	}
	if req.Role != types.RoleStudent && req.Role != types.RoleMentor {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
		Role:         req.Role,
		College:      req.College,
		Branch:       req.Branch,
		Image:        req.Image,
	}

	newUser, err := s.db.CreateAccount(r.Context(), params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// a new mentor changes the mentor directory
	if newUser.Role == types.RoleMentor {
		s.cache.Flush()
	}

	s.writeJson(w, http.StatusCreated, userFromAccount(newUser))
}

func (s *NaviGreatApp) account(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userId, ok := UserId(r.Context())
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		user, err := s.db.GetAccountById(r.Context(), userId)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, userFromAccount(user))
	case http.MethodPut:
		userId, ok := UserId(r.Context())
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		curUser, err := s.db.GetAccountById(r.Context(), userId)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		var updateAccountReq UpdateAccountRequest
		err = json.NewDecoder(r.Body).Decode(&updateAccountReq)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if updateAccountReq.Username == "" || updateAccountReq.Password == "" {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		pwdHash, err := hashPassword(updateAccountReq.Password)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		params := database.UpdateAccountParams{
			UserId:       curUser.Id,
			Username:     updateAccountReq.Username,
			PasswordHash: pwdHash,
			College:      updateAccountReq.College,
			Branch:       updateAccountReq.Branch,
			Image:        updateAccountReq.Image,
		}

		dbUser, err := s.db.UpdateAccount(r.Context(), params)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if dbUser.Role == types.RoleMentor {
			s.cache.Flush()
		}

		s.writeJson(w, http.StatusOK, userFromAccount(dbUser))
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *NaviGreatApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userFromAccount(user))
}

func (s *NaviGreatApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(r.Context(), lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, userFromAccount(dbUser))
}

func (s *NaviGreatApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *NaviGreatApp) getMentors(w http.ResponseWriter, r *http.Request) {
	dbMentors, err := s.db.ListMentors(r.Context())
	if err != nil {
		s.log.Println("list mentors:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var mentors []types.User
	for _, m := range dbMentors {
		mentors = append(mentors, userFromAccount(m))
	}

	s.writeJson(w, http.StatusOK, mentors)
}

func (s *NaviGreatApp) getMentor(w http.ResponseWriter, r *http.Request) {
	mentorId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	mentor, err := s.db.GetAccountById(r.Context(), mentorId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if mentor.Role != types.RoleMentor {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userFromAccount(mentor))
}

func (s *NaviGreatApp) createBooking(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.MentorId <= 0 || req.MentorId == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	student, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	mentor, err := s.db.GetAccountById(r.Context(), req.MentorId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if mentor.Role != types.RoleMentor {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateBookingParams{
		ExternalId: sid,
		StudentId:  userId,
		MentorId:   mentor.Id,
		Status:     "confirmed",
	}

	newBooking, err := s.db.CreateBooking(r.Context(), params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// mail must not hold up the response
	go func() {
		subject := "Booking confirmed: " + newBooking.ExternalId
		body := fmt.Sprintf("Your session with %s is confirmed. Reference: %s", mentor.Username, newBooking.ExternalId)
		if err := s.mailer.Send(student.EmailAddress, subject, body); err != nil {
			s.log.Println("send booking mail:", err)
		}

		subject = "New booking: " + newBooking.ExternalId
		body = fmt.Sprintf("%s booked a session with you. Reference: %s", student.Username, newBooking.ExternalId)
		if err := s.mailer.Send(mentor.EmailAddress, subject, body); err != nil {
			s.log.Println("send booking mail:", err)
		}
	}()

	s.writeJson(w, http.StatusCreated, types.Booking{
		Id:         newBooking.Id,
		ExternalId: newBooking.ExternalId,
		StudentId:  newBooking.StudentId,
		MentorId:   newBooking.MentorId,
		Status:     newBooking.Status,
		CreatedAt:  newBooking.CreatedAt,
	})
}

func (s *NaviGreatApp) getBookings(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var dbBookings []database.Booking
	if user.Role == types.RoleMentor {
		dbBookings, err = s.db.ListBookingsByMentorId(r.Context(), userId)
	} else {
		dbBookings, err = s.db.ListBookingsByStudentId(r.Context(), userId)
	}
	if err != nil {
		s.log.Println("list bookings:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var bookings []types.Booking
	for _, b := range dbBookings {
		bookings = append(bookings, types.Booking{
			Id:         b.Id,
			ExternalId: b.ExternalId,
			StudentId:  b.StudentId,
			MentorId:   b.MentorId,
			Status:     b.Status,
			CreatedAt:  b.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, bookings)
}

func (s *NaviGreatApp) createLecture(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if user.Role != types.RoleMentor {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateLectureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.StartTime.IsZero() || req.EndTime.IsZero() || !req.EndTime.After(req.StartTime) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateLectureParams{
		MentorId:    userId,
		Title:       req.Title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MeetingLink: "https://meet.navigreat.io/" + uuid.NewString(),
	}

	newLecture, err := s.db.CreateLecture(r.Context(), params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Lecture{
		Id:          newLecture.Id,
		MentorId:    newLecture.MentorId,
		Title:       newLecture.Title,
		StartTime:   newLecture.StartTime,
		EndTime:     newLecture.EndTime,
		MeetingLink: newLecture.MeetingLink,
		CreatedAt:   newLecture.CreatedAt,
		UpdatedAt:   newLecture.UpdatedAt,
	})
}

func (s *NaviGreatApp) getLectures(w http.ResponseWriter, r *http.Request) {
	mentorId, err := strconv.Atoi(r.PathValue("mentorId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbLectures, err := s.db.ListLecturesByMentorId(r.Context(), mentorId)
	if err != nil {
		s.log.Println("list lectures:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var lectures []types.Lecture
	for _, l := range dbLectures {
		lectures = append(lectures, types.Lecture{
			Id:          l.Id,
			MentorId:    l.MentorId,
			Title:       l.Title,
			StartTime:   l.StartTime,
			EndTime:     l.EndTime,
			MeetingLink: l.MeetingLink,
			CreatedAt:   l.CreatedAt,
			UpdatedAt:   l.UpdatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, lectures)
}

func (s *NaviGreatApp) createReview(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.MentorId <= 0 || req.Rating < 1 || req.Rating > 5 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	mentor, err := s.db.GetAccountById(r.Context(), req.MentorId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if mentor.Role != types.RoleMentor {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateReviewParams{
		MentorId:  mentor.Id,
		StudentId: userId,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	newReview, err := s.db.CreateReview(r.Context(), params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Review{
		Id:        newReview.Id,
		MentorId:  newReview.MentorId,
		StudentId: newReview.StudentId,
		Rating:    newReview.Rating,
		Comment:   newReview.Comment,
		CreatedAt: newReview.CreatedAt,
	})
}

func (s *NaviGreatApp) getReviews(w http.ResponseWriter, r *http.Request) {
	mentorId, err := strconv.Atoi(r.PathValue("mentorId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbReviews, err := s.db.ListReviewsByMentorId(r.Context(), mentorId)
	if err != nil {
		s.log.Println("list reviews:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var reviews []types.Review
	for _, rv := range dbReviews {
		reviews = append(reviews, types.Review{
			Id:        rv.Id,
			MentorId:  rv.MentorId,
			StudentId: rv.StudentId,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, reviews)
}
