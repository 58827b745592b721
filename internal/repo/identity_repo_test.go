package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

func TestFindAuthorizedUser_Whitelist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := FindAuthorizedUser(ctx, db, "5491122334455"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty whitelist: err = %v want ErrNotFound", err)
	}

	db.Create(&domain.AuthorizedUser{CustomerID: 1, Phone: "+5491122334455", Active: true})
	u, err := FindAuthorizedUser(ctx, db, "5491122334455")
	if err != nil {
		t.Fatalf("plus-prefixed variant should match: %v", err)
	}
	if u.CustomerID != 1 {
		t.Fatalf("unexpected row: %+v", u)
	}
}

func TestFindAuthorizedUser_InactiveIgnored(t *testing.T) {
	db := newTestDB(t)
	// Active carries a default:true tag, so GORM drops the zero value from
	// the INSERT; force the column to false after creating the row.
	u := domain.AuthorizedUser{CustomerID: 1, Phone: "5491100000001", Active: false}
	db.Create(&u)
	db.Model(&u).Update("active", false)
	if _, err := FindAuthorizedUser(context.Background(), db, "5491100000001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive row must not authorize: err = %v", err)
	}
}

func TestFindAuthorizedUser_Ambiguous(t *testing.T) {
	db := newTestDB(t)
	db.Create(&domain.AuthorizedUser{CustomerID: 1, Phone: "5491100000002", Active: true})
	db.Create(&domain.AuthorizedUser{CustomerID: 2, Phone: "+5491100000002", Active: true})

	if _, err := FindAuthorizedUser(context.Background(), db, "5491100000002"); !errors.Is(err, ErrAmbiguousIdentity) {
		t.Fatalf("two active rows: err = %v want ErrAmbiguousIdentity", err)
	}
}

func TestUpsertChannelIdentity_PreservesVerifiedAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := UpsertChannelIdentity(ctx, db, "549110001", 7, 3, now); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := MarkIdentityVerified(ctx, db, "549110001", now); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	later := now.Add(time.Hour)
	if err := UpsertChannelIdentity(ctx, db, "549110001", 7, 3, later); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	id, err := GetChannelIdentity(ctx, db, "549110001")
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if id.VerifiedAt == nil {
		t.Fatal("upsert must not clear verified_at")
	}
	if !id.LastSeenAt.After(now) {
		t.Fatalf("last_seen_at not refreshed: %v", id.LastSeenAt)
	}
}

func TestMarkIdentityVerified_Missing(t *testing.T) {
	db := newTestDB(t)
	if err := MarkIdentityVerified(context.Background(), db, "ghost", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v want ErrNotFound", err)
	}
}

func TestOneTimeCode_LatestWinsAndSingleUse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	exp := time.Now().Add(10 * time.Minute)

	old, err := CreateOneTimeCode(ctx, db, "549110002", "hash-old", exp)
	if err != nil {
		t.Fatalf("create old: %v", err)
	}
	fresh, err := CreateOneTimeCode(ctx, db, "549110002", "hash-new", exp)
	if err != nil {
		t.Fatalf("create new: %v", err)
	}

	latest, err := LatestOneTimeCode(ctx, db, "549110002")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != fresh.ID || latest.CodeHash != "hash-new" {
		t.Fatalf("latest row is not the newest: %+v", latest)
	}
	_ = old

	if err := IncrementOTPAttempts(ctx, db, latest.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	latest, _ = LatestOneTimeCode(ctx, db, "549110002")
	if latest.Attempts != 1 {
		t.Fatalf("attempts = %d want 1", latest.Attempts)
	}

	if err := ConsumeOneTimeCode(ctx, db, latest.ID, time.Now()); err != nil {
		t.Fatalf("consume: %v", err)
	}
	// Second consumption of the same row must lose.
	if err := ConsumeOneTimeCode(ctx, db, latest.ID, time.Now()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second consume: err = %v want ErrDuplicate", err)
	}
}

func TestMarkMessageProcessed_FirstInsertWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := MarkMessageProcessed(ctx, db, "wamid.1", "549110003"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := MarkMessageProcessed(ctx, db, "wamid.1", "549110003"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("redelivery: err = %v want ErrDuplicate", err)
	}
	// A different message id is unaffected.
	if err := MarkMessageProcessed(ctx, db, "wamid.2", "549110003"); err != nil {
		t.Fatalf("second id: %v", err)
	}
}
