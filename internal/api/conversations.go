package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/navigreat/navigreat-server/internal/database"
	"github.com/navigreat/navigreat-server/internal/types"
)

// buildContactList assembles the viewer's contact list: everyone they
// have exchanged messages with, plus the counterparts of their
// bookings. Each contact carries the latest message in the
// conversation (nil when only a booking links the pair) and the number
// of the contact's messages the viewer has not read. Contacts with a
// message sort newest-first; message-less contacts sort last.
func (s *NaviGreatApp) buildContactList(ctx context.Context, viewer types.User) ([]types.Contact, error) {
	partnerIds, err := s.db.ListConversationPartnerIds(ctx, viewer.Id)
	if err != nil {
		return nil, fmt.Errorf("list conversation partners: %w", err)
	}

	partnerSet := make(map[int]struct{}, len(partnerIds))
	for _, id := range partnerIds {
		partnerSet[id] = struct{}{}
	}

	var bookings []database.Booking
	if viewer.Role == types.RoleMentor {
		bookings, err = s.db.ListBookingsByMentorId(ctx, viewer.Id)
	} else {
		bookings, err = s.db.ListBookingsByStudentId(ctx, viewer.Id)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	for _, b := range bookings {
		counterpart := b.StudentId
		if viewer.Role != types.RoleMentor {
			counterpart = b.MentorId
		}
		partnerSet[counterpart] = struct{}{}
	}

	allPartnerIds := make([]int, 0, len(partnerSet))
	for id := range partnerSet {
		allPartnerIds = append(allPartnerIds, id)
	}
	sort.Ints(allPartnerIds)

	contacts := make([]types.Contact, 0, len(allPartnerIds))
	for _, partnerId := range allPartnerIds {
		partner, err := s.db.GetAccountById(ctx, partnerId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// dangling reference to a deleted account
				continue
			}
			return nil, fmt.Errorf("get account %d: %w", partnerId, err)
		}

		contact := types.Contact{
			User: types.User{
				Id:       partner.Id,
				Username: partner.Username,
				Role:     partner.Role,
				College:  partner.College,
				Branch:   partner.Branch,
				Image:    partner.Image,
			},
		}

		latest, err := s.db.GetLatestMessage(ctx, viewer.Id, partnerId)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get latest message: %w", err)
		}
		if err == nil {
			contact.LastMessage = &types.Message{
				Id:          latest.Id,
				SenderId:    latest.SenderId,
				ReceiverId:  latest.ReceiverId,
				Content:     latest.Content,
				MessageType: latest.MessageType,
				AudioUrl:    latest.AudioUrl,
				Read:        latest.Read,
				Timestamp:   latest.CreatedAt,
			}
		}

		unread, err := s.db.UnreadCount(ctx, partnerId, viewer.Id)
		if err != nil {
			return nil, fmt.Errorf("unread count: %w", err)
		}
		contact.UnreadCount = unread

		contacts = append(contacts, contact)
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i].LastMessage, contacts[j].LastMessage
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Timestamp.After(b.Timestamp)
		}
	})

	return contacts, nil
}
