package database

import (
	"context"
	"time"
)

const (
	accountColumns = "id, username, email, role, college, branch, image, created_at, updated_at"
	messageColumns = "id, sender_id, receiver_id, content, message_type, audio_url, read, created_at"

	// Messages between two users, in either direction. Ordered by
	// created_at with the serial id as tie-break so the ordering is
	// total and stable even for same-millisecond inserts.
	getConversationQuery = "SELECT " + messageColumns + " FROM messages " +
		"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1) " +
		"ORDER BY created_at ASC, id ASC"

	getLatestMessageQuery = "SELECT " + messageColumns + " FROM messages " +
		"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1) " +
		"ORDER BY created_at DESC, id DESC LIMIT 1"
)

func (db *PgNaviGreatRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO accounts (username, email, password_hash, role, college, branch, image, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING "+accountColumns,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		params.College,
		params.Branch,
		params.Image,
		time.Now().UTC(),
	)

	return scanAccount(res)
}

func (db *PgNaviGreatRepository) UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRowContext(ctx,
		"UPDATE accounts SET username = $2, password_hash = $3, college = $4, branch = $5, image = $6, updated_at = $7 "+
			"WHERE id = $1 RETURNING "+accountColumns,
		params.UserId,
		params.Username,
		params.PasswordHash,
		params.College,
		params.Branch,
		params.Image,
		time.Now().UTC(),
	)

	return scanAccount(res)
}

func (db *PgNaviGreatRepository) GetAccountById(ctx context.Context, accountId int) (User, error) {
	res := db.conn.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	return scanAccount(res)
}

func (db *PgNaviGreatRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	res := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, college, branch, image, created_at, updated_at "+
			"FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.Role,
		&u.College,
		&u.Branch,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgNaviGreatRepository) ListMentors(ctx context.Context) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE role = $1 ORDER BY username",
		"mentor",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mentors = make([]User, 0)
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Username, &u.EmailAddress, &u.Role, &u.College, &u.Branch, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}

		mentors = append(mentors, u)
	}

	return mentors, rows.Err()
}

func (db *PgNaviGreatRepository) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO bookings (external_id, student_id, mentor_id, status, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, external_id, student_id, mentor_id, status, created_at",
		params.ExternalId,
		params.StudentId,
		params.MentorId,
		params.Status,
		time.Now().UTC(),
	)

	var b Booking
	err := res.Scan(&b.Id, &b.ExternalId, &b.StudentId, &b.MentorId, &b.Status, &b.CreatedAt)

	return b, err
}

func (db *PgNaviGreatRepository) ListBookingsByStudentId(ctx context.Context, studentId int) ([]Booking, error) {
	return db.listBookings(ctx,
		"SELECT id, external_id, student_id, mentor_id, status, created_at FROM bookings "+
			"WHERE student_id = $1 ORDER BY created_at DESC",
		studentId,
	)
}

func (db *PgNaviGreatRepository) ListBookingsByMentorId(ctx context.Context, mentorId int) ([]Booking, error) {
	return db.listBookings(ctx,
		"SELECT id, external_id, student_id, mentor_id, status, created_at FROM bookings "+
			"WHERE mentor_id = $1 ORDER BY created_at DESC",
		mentorId,
	)
}

func (db *PgNaviGreatRepository) listBookings(ctx context.Context, query string, userId int) ([]Booking, error) {
	rows, err := db.conn.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings = make([]Booking, 0)
	for rows.Next() {
		var b Booking
		if err = rows.Scan(&b.Id, &b.ExternalId, &b.StudentId, &b.MentorId, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}

		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func (db *PgNaviGreatRepository) CreateLecture(ctx context.Context, params CreateLectureParams) (Lecture, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO lectures (mentor_id, title, start_time, end_time, meeting_link, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) "+
			"RETURNING id, mentor_id, title, start_time, end_time, meeting_link, created_at, updated_at",
		params.MentorId,
		params.Title,
		params.StartTime,
		params.EndTime,
		params.MeetingLink,
		time.Now().UTC(),
	)

	var l Lecture
	err := res.Scan(&l.Id, &l.MentorId, &l.Title, &l.StartTime, &l.EndTime, &l.MeetingLink, &l.CreatedAt, &l.UpdatedAt)

	return l, err
}

func (db *PgNaviGreatRepository) ListLecturesByMentorId(ctx context.Context, mentorId int) ([]Lecture, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, mentor_id, title, start_time, end_time, meeting_link, created_at, updated_at FROM lectures "+
			"WHERE mentor_id = $1 ORDER BY start_time ASC",
		mentorId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lectures = make([]Lecture, 0)
	for rows.Next() {
		var l Lecture
		if err = rows.Scan(&l.Id, &l.MentorId, &l.Title, &l.StartTime, &l.EndTime, &l.MeetingLink, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}

		lectures = append(lectures, l)
	}

	return lectures, rows.Err()
}

func (db *PgNaviGreatRepository) CreateReview(ctx context.Context, params CreateReviewParams) (Review, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO reviews (mentor_id, student_id, rating, comment, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, mentor_id, student_id, rating, comment, created_at",
		params.MentorId,
		params.StudentId,
		params.Rating,
		params.Comment,
		time.Now().UTC(),
	)

	var rv Review
	err := res.Scan(&rv.Id, &rv.MentorId, &rv.StudentId, &rv.Rating, &rv.Comment, &rv.CreatedAt)

	return rv, err
}

func (db *PgNaviGreatRepository) ListReviewsByMentorId(ctx context.Context, mentorId int) ([]Review, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, mentor_id, student_id, rating, comment, created_at FROM reviews "+
			"WHERE mentor_id = $1 ORDER BY created_at DESC",
		mentorId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews = make([]Review, 0)
	for rows.Next() {
		var rv Review
		if err = rows.Scan(&rv.Id, &rv.MentorId, &rv.StudentId, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}

		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}

// CreateMessage appends a message. The server assigns the id and
// timestamp; the returned record is the canonical persisted form.
func (db *PgNaviGreatRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, content, message_type, audio_url, read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, false, $6) RETURNING "+messageColumns,
		params.SenderId,
		params.ReceiverId,
		params.Content,
		params.MessageType,
		params.AudioUrl,
		time.Now().UTC(),
	)

	return scanMessage(res)
}

func (db *PgNaviGreatRepository) GetConversation(ctx context.Context, userA, userB int) ([]Message, error) {
	rows, err := db.conn.QueryContext(ctx, getConversationQuery, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0)
	for rows.Next() {
		var m Message
		if err = rows.Scan(&m.Id, &m.SenderId, &m.ReceiverId, &m.Content, &m.MessageType, &m.AudioUrl, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkConversationRead flips read on every unread message sent by
// fromUserId to toUserId. A single UPDATE, so it is atomic with respect
// to concurrent appends on the same pair.
func (db *PgNaviGreatRepository) MarkConversationRead(ctx context.Context, fromUserId, toUserId int) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE messages SET read = true WHERE sender_id = $1 AND receiver_id = $2 AND read = false",
		fromUserId,
		toUserId,
	)

	return err
}

func (db *PgNaviGreatRepository) UnreadCount(ctx context.Context, fromUserId, toUserId int) (int, error) {
	res := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE sender_id = $1 AND receiver_id = $2 AND read = false",
		fromUserId,
		toUserId,
	)

	var count int
	err := res.Scan(&count)

	return count, err
}

func (db *PgNaviGreatRepository) ListConversationPartnerIds(ctx context.Context, userId int) ([]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT DISTINCT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id "+
			"FROM messages WHERE sender_id = $1 OR receiver_id = $1",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partnerIds = make([]int, 0)
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}

		partnerIds = append(partnerIds, id)
	}

	return partnerIds, rows.Err()
}

func (db *PgNaviGreatRepository) GetLatestMessage(ctx context.Context, userA, userB int) (Message, error) {
	res := db.conn.QueryRowContext(ctx, getLatestMessageQuery, userA, userB)

	return scanMessage(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.College,
		&u.Branch,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	err := row.Scan(
		&m.Id,
		&m.SenderId,
		&m.ReceiverId,
		&m.Content,
		&m.MessageType,
		&m.AudioUrl,
		&m.Read,
		&m.CreatedAt,
	)

	return m, err
}
