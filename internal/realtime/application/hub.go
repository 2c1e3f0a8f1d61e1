// Package application implements the real-time fan-out Hub: room
// membership, participant/supervisor authorization, and a backpressure
// policy that drops non-critical events before critical ones when a
// subscriber is slow. Connection lifecycle and transport framing
// are left to internal/realtime/infrastructure/ws; this package only knows
// about rooms, subscribers, and envelopes.
package application

import (
	"context"
	"sync"
	"time"

	"github.com/rnrl/tradecore/internal/realtime/domain"
	"github.com/wyfcoding/pkg/logging"
)

const (
	// criticalBufferSize bounds offer/status backlog per subscriber. When a
	// subscriber's buffer is full its send waits up to sendTimeout, then the
	// envelope is dropped for that subscriber; subscribers are sent to one
	// after another, so that wait delays delivery to the ones after it.
	criticalBufferSize = 64
	// nonCriticalBufferSize is small and lossy by design: typing
	// indicators are stale the instant a newer one arrives.
	nonCriticalBufferSize = 4
	sendTimeout           = 250 * time.Millisecond
)

// Subscription is handed to the transport layer on a successful Join; it
// exposes exactly what a connection pump needs: the outbound channels to
// drain and a way to leave.
type Subscription struct {
	Critical    <-chan domain.Envelope
	NonCritical <-chan domain.Envelope
	ActorID     string
	Role        domain.Role
	leave       func()
}

func (s *Subscription) Leave() { s.leave() }

type subscriber struct {
	connID      string
	actorID     string
	role        domain.Role
	critical    chan domain.Envelope
	nonCritical chan domain.Envelope
}

type Hub struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]map[string]*subscriber
	checkers map[domain.RoomKind]ParticipantChecker
	super    SupervisorAuthorizer
	bus      Bus

	nextConnID uint64
}

func NewHub(checkers map[domain.RoomKind]ParticipantChecker, super SupervisorAuthorizer, bus Bus) *Hub {
	h := &Hub{
		rooms:    make(map[domain.RoomID]map[string]*subscriber),
		checkers: checkers,
		super:    super,
		bus:      bus,
	}
	if bus != nil {
		go func() {
			if err := bus.Subscribe(context.Background(), h.deliverLocal); err != nil {
				logging.Error(context.Background(), "realtime bus subscribe failed", "error", err)
			}
		}()
	}
	return h
}

// SetCheckers installs the per-room-kind participant checkers. Composition
// at cmd/tradecore/main.go constructs the Hub before the negotiation/
// availability/requirement contexts' adapters exist (the Fanout adapter
// those contexts' commands need is itself built from the Hub), so the
// checker map arrives in a second step rather than through the constructor.
func (h *Hub) SetCheckers(checkers map[domain.RoomKind]ParticipantChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = checkers
}

// Join enforces the room's connection-authorization rule: it
// rejects connections whose actor is neither a participant of the
// underlying aggregate nor an authorized supervisor.
func (h *Hub) Join(ctx context.Context, roomID domain.RoomID, actorPartnerID string) (*Subscription, error) {
	kind, aggregateID, ok := roomID.Split()
	if !ok {
		return nil, errInvalidRoom()
	}

	role := domain.RoleParticipant
	h.mu.RLock()
	checker, hasChecker := h.checkers[kind]
	h.mu.RUnlock()
	isParticipant := false
	if hasChecker {
		var err error
		isParticipant, err = checker.IsParticipant(ctx, aggregateID, actorPartnerID)
		if err != nil {
			return nil, err
		}
	}
	if !isParticipant {
		if h.super == nil {
			return nil, errNotAuthorized()
		}
		authorized, err := h.super.IsAuthorizedSupervisor(ctx, roomID, actorPartnerID)
		if err != nil {
			return nil, err
		}
		if !authorized {
			return nil, errNotAuthorized()
		}
		role = domain.RoleSupervisor
	}

	h.mu.Lock()
	h.nextConnID++
	connID := actorPartnerID + "#" + itoa(h.nextConnID)
	sub := &subscriber{
		connID: connID, actorID: actorPartnerID, role: role,
		critical:    make(chan domain.Envelope, criticalBufferSize),
		nonCritical: make(chan domain.Envelope, nonCriticalBufferSize),
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*subscriber)
	}
	h.rooms[roomID][connID] = sub
	h.mu.Unlock()

	leave := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if members, ok := h.rooms[roomID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	return &Subscription{Critical: sub.critical, NonCritical: sub.nonCritical, ActorID: actorPartnerID, Role: role, leave: leave}, nil
}

// Publish fans an envelope out to every local room subscriber and forwards
// it over the cross-instance bus. Supervisors never
// publish; that is enforced by the HTTP/WS layer rejecting writes from a
// RoleSupervisor connection, not here.
func (h *Hub) Publish(ctx context.Context, roomID domain.RoomID, msgType domain.MessageType, payload any, correlationID string) error {
	env := domain.Envelope{RoomID: roomID, Type: msgType, Payload: payload, CorrelationID: correlationID, OccurredAt: time.Now().UTC()}
	h.deliverLocal(env)
	if h.bus != nil {
		if err := h.bus.Publish(ctx, env); err != nil {
			logging.Warn(ctx, "realtime bus publish failed", "roomId", roomID, "error", err)
		}
	}
	return nil
}

// deliverLocal fans an envelope (local or received from the cross-instance
// bus) out to this instance's subscribers of the envelope's room,
// dropping non-critical sends that would otherwise block.
func (h *Hub) deliverLocal(env domain.Envelope) {
	h.mu.RLock()
	members := h.rooms[env.RoomID]
	subs := make([]*subscriber, 0, len(members))
	for _, s := range members {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		ch := s.critical
		timeout := sendTimeout
		if domain.PriorityOf(env.Type) == domain.PriorityNonCritical {
			ch = s.nonCritical
			timeout = 0
		}
		select {
		case ch <- env:
		default:
			if timeout > 0 {
				t := time.NewTimer(timeout)
				select {
				case ch <- env:
					t.Stop()
				case <-t.C:
				}
			}
			// non-critical: dropped silently, by design.
		}
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
