package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salondesk/libs/db"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
)

// setupRepo migrates DATABASE_URL and returns a repository on it.
func setupRepo(t *testing.T) (*AppointmentRepository, *db.Pool) {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx := context.Background()
	if err := Migrate(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	pool, err := db.Open(ctx, dsn, db.Options{MaxConns: 2})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewAppointmentRepository(pool), pool
}

func insertID(t *testing.T, pool *db.Pool, sql string, args ...any) int64 {
	t.Helper()
	var id int64
	if err := pool.QueryRow(context.Background(), sql+" RETURNING id", args...).Scan(&id); err != nil {
		t.Fatalf("seed %q: %v", sql, err)
	}
	return id
}

type salonFixture struct {
	tenant      int64
	otherTenant int64
	userID      string
	sato        int64
	mori        int64

	earliest        int64
	withNotes       int64
	foreignCustomer int64
	noCustomer      int64
	nullCustomer    int64
	decoy           int64
	otherTenantAppt int64
}

func seedSalon(t *testing.T, pool *db.Pool) salonFixture {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	var f salonFixture

	f.tenant = insertID(t, pool, `INSERT INTO tenants (name) VALUES ($1)`, "salon-"+suffix)
	f.otherTenant = insertID(t, pool, `INSERT INTO tenants (name) VALUES ($1)`, "other-"+suffix)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM tenants WHERE id IN ($1, $2)`, f.tenant, f.otherTenant)
	})

	f.userID = "user-" + suffix
	if _, err := pool.Exec(ctx, `INSERT INTO tenant_members (tenant_id, user_id) VALUES ($1, $2)`, f.tenant, f.userID); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	tanaka := insertID(t, pool, `INSERT INTO customers (tenant_id, first_name, last_name, phone, email) VALUES ($1, 'Yuki', 'Tanaka', '090-1111', 'yuki@example.com')`, f.tenant)
	ito := insertID(t, pool, `INSERT INTO customers (tenant_id, first_name, last_name, email) VALUES ($1, 'Ken', 'Ito', '50%off@example.com')`, f.tenant)
	blank := insertID(t, pool, `INSERT INTO customers (tenant_id) VALUES ($1)`, f.tenant)
	decoy := insertID(t, pool, `INSERT INTO customers (tenant_id, first_name, last_name, email) VALUES ($1, 'Rin', 'Abe', '500@example.com')`, f.tenant)
	foreign := insertID(t, pool, `INSERT INTO customers (tenant_id, first_name, last_name) VALUES ($1, 'Hana', 'Tanaka')`, f.otherTenant)

	f.sato = insertID(t, pool, `INSERT INTO staff (tenant_id, first_name, last_name) VALUES ($1, 'Ken', 'Sato')`, f.tenant)
	f.mori = insertID(t, pool, `INSERT INTO staff (tenant_id, first_name, last_name) VALUES ($1, 'Aiko', 'Mori')`, f.tenant)
	cut := insertID(t, pool, `INSERT INTO services (tenant_id, name, duration_minutes, price, color) VALUES ($1, 'Cut', 45, 40.00, '#ff0000')`, f.tenant)

	const appt = `INSERT INTO appointments (tenant_id, customer_id, service_id, staff_id, appointment_date, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5::text::date, $6::text::time, $7::text::time, $8, $9)`
	f.withNotes = insertID(t, pool, appt, f.tenant, tanaka, cut, f.sato, "2025-03-01", "14:00", "15:00", "scheduled", "vip")
	f.earliest = insertID(t, pool, appt, f.tenant, ito, cut, f.mori, "2025-03-01", "10:30", "11:00", "completed", nil)
	f.foreignCustomer = insertID(t, pool, appt, f.tenant, foreign, nil, nil, "2025-03-02", "09:00", "10:00", "scheduled", nil)
	f.noCustomer = insertID(t, pool, appt, f.tenant, nil, nil, f.sato, "2025-03-05", "09:00", "10:00", "scheduled", nil)
	f.nullCustomer = insertID(t, pool, appt, f.tenant, blank, nil, f.sato, "2025-03-10", "09:00", "10:00", "scheduled", nil)
	f.decoy = insertID(t, pool, appt, f.tenant, decoy, nil, f.mori, "2025-03-20", "09:00", "10:00", "scheduled", nil)
	insertID(t, pool, appt, f.tenant, tanaka, nil, f.sato, "2025-04-02", "09:00", "10:00", "scheduled", nil)
	f.otherTenantAppt = insertID(t, pool, appt, f.otherTenant, foreign, nil, nil, "2025-03-01", "09:00", "10:00", "scheduled", nil)
	return f
}

func ids(rows []model.Appointment) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func sameIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

var (
	march1  = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	march31 = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestListRange_AgainstPostgres(t *testing.T) {
	repo, pool := setupRepo(t)
	f := seedSalon(t, pool)
	ctx := context.Background()
	month := model.Filter{TenantID: f.tenant, Start: march1, End: march31}

	rows, err := repo.ListRange(ctx, month)
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	want := []int64{f.earliest, f.withNotes, f.foreignCustomer, f.noCustomer, f.nullCustomer, f.decoy}
	if !sameIDs(ids(rows), want) {
		t.Fatalf("expected %v in date/time order, got %v", want, ids(rows))
	}
	for _, r := range rows {
		if r.TenantID != f.tenant {
			t.Fatalf("row %d belongs to tenant %d", r.ID, r.TenantID)
		}
		if r.ID == f.foreignCustomer && r.CustomerLastName != "" {
			t.Fatalf("customer of another tenant leaked through the join: %+v", r)
		}
		if r.ID == f.withNotes && (r.Notes != "vip" || r.StartTime != "14:00:00" || r.ServiceDuration != 45 || r.StaffName != "Sato Ken") {
			t.Fatalf("unexpected full projection: %+v", r)
		}
	}

	cases := []struct {
		name   string
		filter model.Filter
		want   []int64
	}{
		{"search is case-insensitive", model.Filter{Search: "TANAKA"}, []int64{f.withNotes}},
		{"search wildcard is literal", model.Filter{Search: "50%"}, []int64{f.earliest}},
		{"search underscore is literal", model.Filter{Search: "o_f"}, nil},
		{"search by phone", model.Filter{Search: "090-11"}, []int64{f.withNotes}},
		{"staff and status", model.Filter{StaffID: &f.sato, Status: "scheduled"}, []int64{f.withNotes, f.noCustomer, f.nullCustomer}},
		{"status only", model.Filter{Status: "completed"}, []int64{f.earliest}},
	}
	for _, tc := range cases {
		filter := tc.filter
		filter.TenantID, filter.Start, filter.End = f.tenant, march1, march31
		rows, err := repo.ListRange(ctx, filter)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rows == nil {
			t.Fatalf("%s: expected a non-nil slice", tc.name)
		}
		if !sameIDs(ids(rows), tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, ids(rows))
		}
	}

	compact := month
	compact.ViewMode = model.ViewMonth
	rows, err = repo.ListRange(ctx, compact)
	if err != nil {
		t.Fatalf("ListRange month: %v", err)
	}
	if !sameIDs(ids(rows), want) {
		t.Fatalf("month view must return the same rows, got %v", ids(rows))
	}
	for _, r := range rows {
		if r.Notes != "" || r.ServiceDuration != 0 || r.StaffID != 0 {
			t.Fatalf("month view carried detail fields: %+v", r)
		}
	}
}

func TestMembershipStaffAndStatusAgainstPostgres(t *testing.T) {
	repo, pool := setupRepo(t)
	f := seedSalon(t, pool)
	ctx := context.Background()

	if ok, err := repo.IsMember(ctx, f.tenant, f.userID); err != nil || !ok {
		t.Fatalf("expected member, ok=%v err=%v", ok, err)
	}
	if ok, err := repo.IsMember(ctx, f.otherTenant, f.userID); err != nil || ok {
		t.Fatalf("expected non-member, ok=%v err=%v", ok, err)
	}

	staff, err := repo.ListStaff(ctx, f.tenant)
	if err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	if len(staff) != 2 || staff[0].ID != f.mori || staff[0].Name != "Mori Aiko" || staff[1].Name != "Sato Ken" {
		t.Fatalf("unexpected staff: %+v", staff)
	}

	if err := repo.UpdateStatus(ctx, f.tenant, f.withNotes, model.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.UpdateStatus(ctx, f.tenant, f.otherTenantAppt, model.StatusCancelled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another tenant's appointment, got %v", err)
	}
	rows, err := repo.ListRange(ctx, model.Filter{TenantID: f.tenant, Start: march1, End: march1, Status: model.StatusCancelled})
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if !sameIDs(ids(rows), []int64{f.withNotes}) {
		t.Fatalf("expected the cancelled appointment, got %v", ids(rows))
	}
}
