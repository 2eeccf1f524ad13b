package server

import (
	"context"
	"log"
	"sync"

	"github.com/navigreat/navigreat-server/internal/database"
	"github.com/navigreat/navigreat-server/internal/stats"
)

const (
	statNumActiveClients = "NumActiveClients"
	statNumJoinedUsers   = "NumJoinedUsers"
	statNumMessagesSent  = "NumMessagesSent"
	statNumTypingEvents  = "NumTypingEvents"
)

type stopRequest struct {
	done chan struct{}
}

// ChatServer routes server-side events to live connections. Each user
// id owns a room: the set of that user's current connections. Delivery
// is best-effort; a user with no connections simply misses the event
// and reconciles from the message store on the next history pull.
type ChatServer struct {
	log   *log.Logger
	db    database.NaviGreatRepository
	stats stats.StatsProvider

	clients     map[*Client]struct{}
	userMap     map[int]map[*Client]struct{}
	clientsLock sync.RWMutex

	broadcastChan chan *ServerMessage
	stop          chan stopRequest
}

func NewChatServer(logger *log.Logger, db database.NaviGreatRepository, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:           logger,
		db:            db,
		stats:         su,
		clients:       make(map[*Client]struct{}),
		userMap:       make(map[int]map[*Client]struct{}),
		broadcastChan: make(chan *ServerMessage, 512),
		stop:          make(chan stopRequest),
	}

	for _, metric := range []string{
		statNumActiveClients,
		statNumJoinedUsers,
		statNumMessagesSent,
		statNumTypingEvents,
	} {
		su.RegisterMetric(metric)
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case msg := <-cs.broadcastChan:
			cs.handleBroadcast(msg)
		case req := <-cs.stop:
			cs.stopAllClients()
			close(req.done)
			return
		}
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := stopRequest{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) RegisterClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	cs.clients[c] = struct{}{}
	cs.stats.Incr(statNumActiveClients)
}

// JoinUser adds the connection to its user's room. Idempotent: joining
// twice on the same connection is harmless, and a user may hold any
// number of concurrent connections.
func (cs *ChatServer) JoinUser(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if cs.userMap[c.user.Id] == nil {
		cs.userMap[c.user.Id] = make(map[*Client]struct{})
		cs.stats.Incr(statNumJoinedUsers)
	}
	cs.userMap[c.user.Id][c] = struct{}{}
}

// DeRegisterClient removes the connection from the client set and from
// whatever room it joined. No explicit leave message is required.
func (cs *ChatServer) DeRegisterClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if _, ok := cs.clients[c]; !ok {
		return
	}

	delete(cs.clients, c)
	cs.stats.Decr(statNumActiveClients)

	if userClients, ok := cs.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(cs.userMap, c.user.Id)
			cs.stats.Decr(statNumJoinedUsers)
		}
	}
}

func (cs *ChatServer) getClients(userId int) []*Client {
	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	clients := make([]*Client, 0, len(cs.userMap[userId]))
	for c := range cs.userMap[userId] {
		clients = append(clients, c)
	}

	return clients
}

// Broadcast queues a user-targeted message for delivery by the Run
// loop. The send never blocks the caller; if the fanout queue is full
// the event is dropped, since the store remains the durable record.
func (cs *ChatServer) Broadcast(msg *ServerMessage) {
	select {
	case cs.broadcastChan <- msg:
	default:
		cs.log.Printf("broadcast channel full, dropping event for user %d", msg.UserId)
	}
}

// handleBroadcast delivers msg to every connection in the target
// user's room, skipping msg.SkipClient. Delivery failures on one
// connection never affect the others, and a user with no connections
// is not an error.
func (cs *ChatServer) handleBroadcast(msg *ServerMessage) {
	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	for c := range cs.userMap[msg.UserId] {
		if c == msg.SkipClient {
			continue
		}

		c.queueMessage(msg)
	}
}

// BroadcastToPeer delivers msg to every connection in a conversation
// room except msg.SkipClient. The room is addressed by pair id; its
// members are the two users named by the id.
func (cs *ChatServer) BroadcastToPeer(roomId string, msg *ServerMessage) error {
	userA, userB, err := ParsePairRoomId(roomId)
	if err != nil {
		return err
	}

	members := []int{userA, userB}
	if userA == userB {
		members = members[:1]
	}

	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	for _, userId := range members {
		for c := range cs.userMap[userId] {
			if c == msg.SkipClient {
				continue
			}

			c.queueMessage(msg)
		}
	}

	return nil
}

func (cs *ChatServer) stopAllClients() {
	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	cs.log.Printf("stopping %d client(s)", len(cs.clients))
	for c := range cs.clients {
		c.stopClient()
	}
}
