package convention

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestRepository_Integration connects to a real PostgreSQL via DATABASE_URL
// and verifies the optimistic-concurrency contract plus the transactional
// outbox against live SQL.
func TestRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "conventions") || !tableExists(ctx, t, pool, "agencies") || !tableExists(ctx, t, pool, "outbox") {
		t.Skip("database schema missing; apply migrations/ first")
	}

	var agencyID string
	if err := pool.QueryRow(ctx,
		`INSERT INTO agencies (name, kind) VALUES ($1, 'mission_locale') RETURNING id`,
		"Agence Integration "+uuid.NewString()).Scan(&agencyID); err != nil {
		t.Fatalf("seed agency: %v", err)
	}

	conventionID := uuid.NewString()
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM outbox WHERE payload->>'convention_id' = $1`, conventionID)
		pool.Exec(ctx2, `DELETE FROM conventions WHERE id = $1`, conventionID)
		pool.Exec(ctx2, `DELETE FROM agencies WHERE id = $1`, agencyID)
	})

	repo := NewRepository(pool)
	created, err := repo.Create(ctx, Convention{
		ID:       conventionID,
		AgencyID: agencyID,
		Signatories: Signatories{
			Beneficiary:                 Signatory{Role: RoleBeneficiary, Email: "bene@example.com", Phone: "+33612345678"},
			EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative, Email: "rep@acme.example.com"},
		},
		EstablishmentTutor: Tutor{Email: "tutor@acme.example.com"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != StatusReadyToSign {
		t.Fatalf("expected ready_to_sign, got %s", created.Status)
	}

	loaded, err := repo.GetByID(ctx, conventionID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if loaded.Signatories.Beneficiary.Email != "bene@example.com" {
		t.Errorf("expected signatories round-tripped, got %+v", loaded.Signatories)
	}

	// Successful update under the correct precondition, with the event
	// enqueued in the same transaction.
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	locked, err := repo.GetForUpdate(ctx, tx, conventionID)
	if err != nil {
		t.Fatalf("get for update: %v", err)
	}
	expected := locked.UpdatedAt
	now := time.Now().UTC()
	locked.Status = StatusPartiallySigned
	locked.Signatories.Beneficiary.SignedAt = &now
	locked.UpdatedAt = now

	updated, err := repo.Update(ctx, tx, locked, expected)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusPartiallySigned {
		t.Fatalf("expected partially_signed, got %s", updated.Status)
	}
	if err := NewOutbox().Enqueue(ctx, tx, TopicPartiallySigned, map[string]any{
		"convention_id": conventionID,
		"agency_id":     agencyID,
		"status":        string(StatusPartiallySigned),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var events int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM outbox WHERE topic = $1 AND payload->>'convention_id' = $2`,
		TopicPartiallySigned, conventionID).Scan(&events); err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one outbox event, got %d", events)
	}

	// The stale precondition must fail typed, not silently.
	tx2, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx2.Rollback(ctx)
	stale := updated
	stale.Status = StatusInReview
	stale.UpdatedAt = time.Now().UTC()
	if _, err := repo.Update(ctx, tx2, stale, expected); !errors.Is(err, ErrStaleUpdate) {
		t.Fatalf("expected ErrStaleUpdate, got %v", err)
	}

	ghost := updated
	ghost.ID = uuid.NewString()
	if _, err := repo.Update(ctx, tx2, ghost, updated.UpdatedAt); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	tx2.Rollback(ctx)

	// The read model carries the agency join.
	view, err := NewQueries(pool).GetConventionByID(ctx, conventionID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.AgencyID != agencyID || view.AgencyHasDelegation {
		t.Errorf("unexpected view agency fields: %+v", view)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
