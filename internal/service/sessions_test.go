package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xtding233/enhance-sim/internal/catalog"
	"github.com/xtding233/enhance-sim/internal/enhance"
)

func TestSessionFlow(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, CreateSessionRequest{Fixed: []int{14}, Seed: ptr(uint64(6))})
	if err != nil {
		t.Fatal(err)
	}
	if v.Grade != 1 || v.Fixed != 1 || v.MaxGrade != 6 || !v.CanEnhance {
		t.Fatalf("new session %+v", v)
	}

	v, err = svc.Enhance(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Grade != 3 || len(v.Acquired) != 2 || v.LastStep == nil || v.LastStep.Draw == nil {
		t.Fatalf("after enhance %+v", v)
	}
	v, _ = svc.Enhance(v.ID)
	if v.Grade != 6 || v.CanEnhance || !v.LastStep.Complete {
		t.Fatalf("session must complete at grade 6: %+v", v)
	}

	v, err = svc.UseCarrier(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Grade != 0 || v.Carriers != 1 || len(v.Acquired) != 0 || len(v.Pool) != 12 {
		t.Fatalf("after carrier %+v", v)
	}
	if !v.CarrierCost.Equal(decimal.Zero) {
		t.Fatalf("default profile has no retry cost, got %s", v.CarrierCost)
	}

	v, _ = svc.ResetSession(v.ID)
	if v.Carriers != 0 {
		t.Fatalf("reset must clear carriers")
	}

	if err := svc.DeleteSession(v.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Session(v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted session: %v", err)
	}
	if err := svc.DeleteSession(v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: %v", err)
	}
}

func TestCreateSessionRejectsBadFixed(t *testing.T) {
	svc := newTestService(t, Options{})
	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{Fixed: []int{14, 14}})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, enhance.ErrDuplicateFixed) {
		t.Fatalf("duplicate fixed: %v", err)
	}
	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{Fixed: []int{int(catalog.Accel1), 8, 6}})
	if !errors.Is(err, ErrTooManyFixed) || !errors.Is(err, enhance.ErrFixedLimit) {
		t.Fatalf("too many fixed: %v", err)
	}
	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{Fixed: []int{23}})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, enhance.ErrUncodedFixed) {
		t.Fatalf("uncoded fixed: %v", err)
	}
}

func TestSessionLimit(t *testing.T) {
	svc := newTestService(t, Options{MaxSessions: 1})
	if _, err := svc.CreateSession(context.Background(), CreateSessionRequest{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateSession(context.Background(), CreateSessionRequest{}); !errors.Is(err, ErrTooMany) {
		t.Fatalf("want ErrTooMany, got %v", err)
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	svc := newTestService(t, Options{MaxSessions: 2, SessionTTL: time.Minute})
	now := time.Now()
	svc.sessions.now = func() time.Time { return now }

	idle, err := svc.CreateSession(context.Background(), CreateSessionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	busy, err := svc.CreateSession(context.Background(), CreateSessionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateSession(context.Background(), CreateSessionRequest{}); !errors.Is(err, ErrTooMany) {
		t.Fatalf("want ErrTooMany while both are fresh, got %v", err)
	}

	now = now.Add(45 * time.Second)
	if _, err := svc.Enhance(busy.ID); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Second)

	if _, err := svc.Session(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("idle session must expire, got %v", err)
	}
	if _, err := svc.Session(busy.ID); err != nil {
		t.Fatalf("recently used session expired: %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), CreateSessionRequest{}); err != nil {
		t.Fatalf("expired slot not reclaimed: %v", err)
	}
}
