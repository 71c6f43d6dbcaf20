package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/srthuanan/stockhold/internal/app"
	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/domain"
	"github.com/srthuanan/stockhold/internal/testutil"
)

func TestVehicleRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewVehicleRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("GetVehicle returns row and ErrVehicleNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{
			VIN:           "AAA111",
			Model:         "VF8",
			Version:       "Plus",
			ExteriorColor: "Deep Ocean",
			Status:        domain.StatusAvailable,
		})

		v, err := repo.GetVehicle(ctx, "AAA111")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v.VIN != "AAA111" || v.Model != "VF8" || v.Status != domain.StatusAvailable {
			t.Fatalf("unexpected vehicle: %+v", v)
		}

		if _, err := repo.GetVehicle(ctx, "MISSING"); err != domain.ErrVehicleNotFound {
			t.Fatalf("expected ErrVehicleNotFound, got %v", err)
		}
	})

	t.Run("UpdateReservation round-trips hold fields", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{VIN: "AAA111", Status: domain.StatusAvailable})

		holder := "alice"
		expires := time.Now().UTC().Add(30 * time.Minute).Truncate(time.Microsecond)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			v, err := repo.GetVehicleForUpdate(txCtx, "AAA111")
			if err != nil {
				return err
			}
			v.Status = domain.StatusHeld
			v.Holder = &holder
			v.HoldExpiresAt = &expires
			v.UpdatedAt = time.Now().UTC()
			return repo.UpdateReservation(txCtx, v)
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		v, err := repo.GetVehicle(ctx, "AAA111")
		if err != nil {
			t.Fatalf("get after update: %v", err)
		}
		if !v.HeldBy("alice") {
			t.Fatalf("expected hold persisted, got %+v", v)
		}
		if !v.HoldExpiresAt.Equal(expires) {
			t.Fatalf("expected expiry %v, got %v", expires, v.HoldExpiresAt)
		}
	})

	t.Run("ListDueVINs returns only lapsed holds", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		now := time.Now().UTC()
		alice, bob := "alice", "bob"
		past := now.Add(-1 * time.Minute)
		future := now.Add(30 * time.Minute)

		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{
			VIN: "DUE1", Status: domain.StatusHeld, Holder: &alice, HoldExpiresAt: &past,
		})
		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{
			VIN: "FRESH", Status: domain.StatusHeld, Holder: &bob, HoldExpiresAt: &future,
		})
		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{VIN: "FREE", Status: domain.StatusAvailable})

		vins, err := repo.ListDueVINs(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(vins) != 1 || vins[0] != "DUE1" {
			t.Fatalf("expected [DUE1], got %v", vins)
		}
	})

	t.Run("ListVehicles filters by status", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		holder := "alice"
		expires := time.Now().UTC().Add(10 * time.Minute)
		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{VIN: "AAA111", Status: domain.StatusAvailable})
		testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{
			VIN: "BBB222", Status: domain.StatusHeld, Holder: &holder, HoldExpiresAt: &expires,
		})

		all, err := repo.ListVehicles(ctx, nil)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 vehicles, got %d", len(all))
		}

		held := domain.StatusHeld
		onlyHeld, err := repo.ListVehicles(ctx, &held)
		if err != nil {
			t.Fatalf("list held: %v", err)
		}
		if len(onlyHeld) != 1 || onlyHeld[0].VIN != "BBB222" {
			t.Fatalf("expected [BBB222], got %+v", onlyHeld)
		}
	})

	t.Run("UpsertStock creates then preserves reservation on update", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		now := time.Now().UTC()
		v, created, err := repo.UpsertStock(ctx, domain.Vehicle{
			VIN: "NEW001", Model: "VF9", Status: domain.StatusAvailable, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		if !created {
			t.Fatal("expected first upsert to create")
		}
		if v.Status != domain.StatusAvailable {
			t.Fatalf("expected available, got %s", v.Status)
		}

		// Put a hold on the row directly, then re-ingest the VIN.
		holder := "alice"
		expires := now.Add(30 * time.Minute)
		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			row, err := repo.GetVehicleForUpdate(txCtx, "NEW001")
			if err != nil {
				return err
			}
			row.Status = domain.StatusHeld
			row.Holder = &holder
			row.HoldExpiresAt = &expires
			row.UpdatedAt = now
			return repo.UpdateReservation(txCtx, row)
		})
		if err != nil {
			t.Fatalf("hold setup: %v", err)
		}

		v2, created, err := repo.UpsertStock(ctx, domain.Vehicle{
			VIN: "NEW001", Model: "VF9 Eco", Status: domain.StatusAvailable, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		if created {
			t.Fatal("expected second upsert to update")
		}
		if v2.Model != "VF9 Eco" {
			t.Fatalf("expected model refreshed, got %q", v2.Model)
		}
		if !v2.HeldBy("alice") {
			t.Fatalf("expected reservation preserved, got %+v", v2)
		}
	})
}

// Concurrent holds on one available VIN must serialize on the row lock:
// exactly one contender wins, the rest see the vehicle as held.
func TestConcurrentHolds_SingleWinner(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewVehicleRepository(pool)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	testutil.InsertVehicle(t, ctx, pool, domain.Vehicle{VIN: "RACE01", Status: domain.StatusAvailable})

	svc := app.NewReservationService(repo, clock.NewSystem())

	const contenders = 8
	errs := make([]error, contenders)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Hold(ctx, "RACE01", domain.Actor{Name: fmt.Sprintf("consultant-%d", i)})
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch err {
		case nil:
			winners++
		case domain.ErrVehicleHeld:
		default:
			t.Fatalf("contender %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winning hold, got %d", winners)
	}

	v, err := repo.GetVehicle(ctx, "RACE01")
	if err != nil {
		t.Fatalf("get after race: %v", err)
	}
	if v.Status != domain.StatusHeld || v.Holder == nil || v.HoldExpiresAt == nil {
		t.Fatalf("expected a single consistent hold, got %+v", v)
	}
}

func TestConsultantRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewConsultantRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	c := domain.Consultant{Username: "alice", PasswordHash: "hash", Role: domain.RoleConsultant}
	if err := repo.CreateConsultant(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetConsultant(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "alice" || got.Role != domain.RoleConsultant {
		t.Fatalf("unexpected consultant: %+v", got)
	}

	if err := repo.CreateConsultant(ctx, c); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
}
