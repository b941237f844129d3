package river_test

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	riveradapter "github.com/hostfabriek/orderdesk/internal/adapter/river"
	"github.com/hostfabriek/orderdesk/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func setupClient(t *testing.T, db *sql.DB) *riveradapter.Client {
	t.Helper()

	// Workers are registered but the client is never started, so the
	// fulfillment service behind them is not needed here.
	client, err := riveradapter.Setup(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	return client
}

func insertedJobs(t *testing.T, db *sql.DB) map[string]int {
	t.Helper()

	rows, err := db.Query("SELECT kind, max_attempts FROM river_job ORDER BY id")
	if err != nil {
		t.Fatalf("querying jobs: %v", err)
	}
	defer rows.Close()

	jobs := make(map[string]int)
	for rows.Next() {
		var kind string
		var maxAttempts int
		if err := rows.Scan(&kind, &maxAttempts); err != nil {
			t.Fatalf("scanning job row: %v", err)
		}
		jobs[kind] = maxAttempts
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating job rows: %v", err)
	}
	return jobs
}

func TestEnqueuer_InsertsOneJobPerTask(t *testing.T) {
	db := setupTestDB(t)
	client := setupClient(t, db)
	ctx := context.Background()

	enq := riveradapter.NewEnqueuer(client)
	plan := domain.FulfillmentPlan(domain.OrderAggregate{
		Order:    domain.Order{ID: "ord-1", CustomerID: "cust-1", PackageID: "pkg-premium"},
		Customer: domain.Customer{ID: "cust-1"},
		Domains:  []domain.Domain{{ID: "dom-1", Name: "jansbakkerij.nl", Register: true}},
	})

	if err := enq.Enqueue(ctx, plan); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	jobs := insertedJobs(t, db)
	if len(jobs) != 4 {
		t.Fatalf("inserted %d job kinds, want 4: %v", len(jobs), jobs)
	}
	for _, kind := range []string{
		"fulfillment.sync_customer",
		"fulfillment.provision_hosting",
		"fulfillment.register_domain",
		"fulfillment.create_invoice",
	} {
		maxAttempts, ok := jobs[kind]
		if !ok {
			t.Errorf("missing job kind %q", kind)
			continue
		}
		if maxAttempts != 3 {
			t.Errorf("job %q max_attempts = %d, want 3", kind, maxAttempts)
		}
	}
}

func TestEnqueuer_EmptyPlanIsNoop(t *testing.T) {
	db := setupTestDB(t)
	client := setupClient(t, db)

	enq := riveradapter.NewEnqueuer(client)
	if err := enq.Enqueue(context.Background(), nil); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if jobs := insertedJobs(t, db); len(jobs) != 0 {
		t.Errorf("expected no jobs, got %v", jobs)
	}
}

func TestEnqueuer_UnknownKindIsRejected(t *testing.T) {
	db := setupTestDB(t)
	client := setupClient(t, db)

	enq := riveradapter.NewEnqueuer(client)
	err := enq.Enqueue(context.Background(), []domain.FulfillmentTask{
		{Kind: "send_fax", OrderID: "ord-1"},
	})
	if err == nil {
		t.Fatal("expected error for unknown task kind")
	}
}
