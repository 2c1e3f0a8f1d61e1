package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/rnrl/tradecore/internal/realtime/application"
	"github.com/rnrl/tradecore/internal/realtime/domain"
)

type fakeChecker struct {
	participants map[string]bool
}

func (f fakeChecker) IsParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error) {
	return f.participants[aggregateID+"#"+actorPartnerID], nil
}

type fakeSupervisor struct{ authorized bool }

func (f fakeSupervisor) IsAuthorizedSupervisor(ctx context.Context, room domain.RoomID, actorPartnerID string) (bool, error) {
	return f.authorized, nil
}

func TestHub_JoinRejectsNonParticipantNonSupervisor(t *testing.T) {
	checkers := map[domain.RoomKind]application.ParticipantChecker{
		domain.RoomNegotiation: fakeChecker{participants: map[string]bool{"NEG-1#BUYER": true}},
	}
	hub := application.NewHub(checkers, fakeSupervisor{authorized: false}, nil)

	_, err := hub.Join(context.Background(), domain.NewRoomID(domain.RoomNegotiation, "NEG-1"), "STRANGER")
	if err == nil {
		t.Fatalf("expected non-participant, non-supervisor join to be rejected")
	}
}

func TestHub_JoinAllowsParticipant(t *testing.T) {
	checkers := map[domain.RoomKind]application.ParticipantChecker{
		domain.RoomNegotiation: fakeChecker{participants: map[string]bool{"NEG-1#BUYER": true}},
	}
	hub := application.NewHub(checkers, fakeSupervisor{authorized: false}, nil)

	sub, err := hub.Join(context.Background(), domain.NewRoomID(domain.RoomNegotiation, "NEG-1"), "BUYER")
	if err != nil {
		t.Fatalf("expected participant join to succeed, got %v", err)
	}
	if sub.Role != domain.RoleParticipant {
		t.Fatalf("expected RoleParticipant, got %v", sub.Role)
	}
}

func TestHub_JoinAllowsAuthorizedSupervisor(t *testing.T) {
	hub := application.NewHub(nil, fakeSupervisor{authorized: true}, nil)

	sub, err := hub.Join(context.Background(), domain.NewRoomID(domain.RoomNegotiation, "NEG-1"), "SUPERVISOR-1")
	if err != nil {
		t.Fatalf("expected supervisor join to succeed, got %v", err)
	}
	if sub.Role != domain.RoleSupervisor {
		t.Fatalf("expected RoleSupervisor, got %v", sub.Role)
	}
}

func TestHub_SetCheckersInstallsCheckersAfterConstruction(t *testing.T) {
	hub := application.NewHub(nil, fakeSupervisor{authorized: false}, nil)

	roomID := domain.NewRoomID(domain.RoomNegotiation, "NEG-2")
	if _, err := hub.Join(context.Background(), roomID, "BUYER"); err == nil {
		t.Fatalf("expected join to fail before checkers are installed")
	}

	hub.SetCheckers(map[domain.RoomKind]application.ParticipantChecker{
		domain.RoomNegotiation: fakeChecker{participants: map[string]bool{"NEG-2#BUYER": true}},
	})

	if _, err := hub.Join(context.Background(), roomID, "BUYER"); err != nil {
		t.Fatalf("expected join to succeed after SetCheckers installs the participant checker, got %v", err)
	}
}

func TestHub_PublishDeliversToRoomSubscribers(t *testing.T) {
	checkers := map[domain.RoomKind]application.ParticipantChecker{
		domain.RoomNegotiation: fakeChecker{participants: map[string]bool{"NEG-3#BUYER": true}},
	}
	hub := application.NewHub(checkers, fakeSupervisor{authorized: false}, nil)
	roomID := domain.NewRoomID(domain.RoomNegotiation, "NEG-3")

	sub, err := hub.Join(context.Background(), roomID, "BUYER")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := hub.Publish(context.Background(), roomID, domain.MessageOfferCreated, map[string]string{"hello": "world"}, "corr-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case env := <-sub.Critical:
		if env.Type != domain.MessageOfferCreated || env.CorrelationID != "corr-1" {
			t.Fatalf("unexpected envelope delivered: %+v", env)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected the critical channel to receive the published envelope")
	}
}

func TestHub_PublishDropsNonCriticalWhenSubscriberBufferIsFull(t *testing.T) {
	checkers := map[domain.RoomKind]application.ParticipantChecker{
		domain.RoomNegotiation: fakeChecker{participants: map[string]bool{"NEG-4#BUYER": true}},
	}
	hub := application.NewHub(checkers, fakeSupervisor{authorized: false}, nil)
	roomID := domain.NewRoomID(domain.RoomNegotiation, "NEG-4")

	sub, err := hub.Join(context.Background(), roomID, "BUYER")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	// Saturate the small non-critical buffer without draining it; the next
	// typing indicator publish must be dropped rather than block Publish.
	for i := 0; i < 8; i++ {
		if err := hub.Publish(context.Background(), roomID, domain.MessageTypingIndicator, nil, ""); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got, limit := len(sub.NonCritical), cap(sub.NonCritical); got != limit || limit >= 8 {
		t.Fatalf("expected the non-critical buffer to hold %d envelopes with the rest dropped, got %d", limit, got)
	}
}
