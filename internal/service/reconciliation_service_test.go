package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/platform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		MismatchDetectCents:   1,
		AutoCorrectMaxCents:   100,
		HighSeverityCents:     1000,
		DuplicateWindow:       5 * time.Minute,
		AlertDiscrepancyCount: 10,
		AlertRevenueCents:     10_000,
	}
}

func paidOrder(id string, cents int64, email string, at time.Time) domain.PlatformOrder {
	return domain.PlatformOrder{
		OrderID:          id,
		Status:           "paid",
		CustomerEmail:    email,
		Quantity:         1,
		TotalAmountCents: cents,
		Currency:         "AUD",
		CreatedAt:        at,
	}
}

func TestDetect(t *testing.T) {
	cfg := defaultReconcileConfig()
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	localSale := func(orderID string, cents int64) domain.TicketSale {
		return domain.TicketSale{
			ID:               "local-" + orderID,
			EventID:          "ev1",
			Platform:         domain.PlatformFake,
			PlatformOrderID:  orderID,
			TotalAmountCents: cents,
			Status:           "paid",
			RefundStatus:     domain.RefundStatusNone,
		}
	}
	buyerSale := func(orderID string, cents int64, email string, at time.Time) domain.TicketSale {
		s := localSale(orderID, cents)
		s.CustomerEmail = email
		s.PurchasedAt = at
		return s
	}

	t.Run("missing sales", func(t *testing.T) {
		orders := []domain.PlatformOrder{
			paidOrder("o-1", 5000, "a@x.com", base),
			paidOrder("o-2", 5000, "b@x.com", base),
			paidOrder("o-3", 5000, "c@x.com", base),
		}
		ds := Detect("r1", "ev1", domain.PlatformFake, nil, orders, cfg)
		if len(ds) != 3 {
			t.Fatalf("expected 3 discrepancies, got %d", len(ds))
		}
		for _, d := range ds {
			if d.Type != domain.DiscrepancyMissingSale {
				t.Errorf("type = %s, want missing_sale", d.Type)
			}
			if d.Severity != domain.SeverityHigh {
				t.Errorf("severity = %s, want high", d.Severity)
			}
			if d.PlatformCents == nil || *d.PlatformCents != 5000 {
				t.Errorf("platform cents not recorded")
			}
		}
	})

	t.Run("unpaid and refunded orders ignored", func(t *testing.T) {
		pending := paidOrder("o-1", 5000, "a@x.com", base)
		pending.Status = "pending"
		refunded := paidOrder("o-2", 5000, "b@x.com", base)
		refunded.Refunded = true
		ds := Detect("r1", "ev1", domain.PlatformFake, nil, []domain.PlatformOrder{pending, refunded}, cfg)
		if len(ds) != 0 {
			t.Fatalf("expected no discrepancies, got %d", len(ds))
		}
	})

	t.Run("amount mismatch thresholds", func(t *testing.T) {
		cases := []struct {
			name     string
			local    int64
			platform int64
			want     int
			severity domain.Severity
		}{
			{"exact match", 5000, 5000, 0, ""},
			{"one cent off is tolerated", 5001, 5000, 0, ""},
			{"two cents off is flagged", 5002, 5000, 1, domain.SeverityMedium},
			{"under high threshold", 5900, 5000, 1, domain.SeverityMedium},
			{"over high threshold", 6500, 5000, 1, domain.SeverityHigh},
			{"negative diff also flagged", 4000, 5000, 1, domain.SeverityMedium},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				locals := []domain.TicketSale{localSale("o-1", tc.local)}
				orders := []domain.PlatformOrder{paidOrder("o-1", tc.platform, "a@x.com", base)}
				ds := Detect("r1", "ev1", domain.PlatformFake, locals, orders, cfg)
				if len(ds) != tc.want {
					t.Fatalf("got %d discrepancies, want %d", len(ds), tc.want)
				}
				if tc.want == 1 {
					if ds[0].Type != domain.DiscrepancyAmountMismatch {
						t.Errorf("type = %s, want amount_mismatch", ds[0].Type)
					}
					if ds[0].Severity != tc.severity {
						t.Errorf("severity = %s, want %s", ds[0].Severity, tc.severity)
					}
				}
			})
		}
	})

	t.Run("local sale missing upstream", func(t *testing.T) {
		locals := []domain.TicketSale{localSale("o-9", 4500)}
		ds := Detect("r1", "ev1", domain.PlatformFake, locals, nil, cfg)
		if len(ds) != 1 {
			t.Fatalf("expected 1 discrepancy, got %d", len(ds))
		}
		if ds[0].Type != domain.DiscrepancyDataInconsistency {
			t.Errorf("type = %s, want data_inconsistency", ds[0].Type)
		}
	})

	t.Run("refunded local sale not compared", func(t *testing.T) {
		sale := localSale("o-9", 4500)
		sale.RefundStatus = domain.RefundStatusRefunded
		ds := Detect("r1", "ev1", domain.PlatformFake, []domain.TicketSale{sale}, nil, cfg)
		if len(ds) != 0 {
			t.Fatalf("expected no discrepancies for refunded sale, got %d", len(ds))
		}
	})

	t.Run("duplicate purchases inside window", func(t *testing.T) {
		orders := []domain.PlatformOrder{
			paidOrder("o-1", 5000, "dup@x.com", base),
			paidOrder("o-2", 5000, "dup@x.com", base.Add(2*time.Minute)),
		}
		locals := []domain.TicketSale{
			buyerSale("o-1", 5000, "dup@x.com", base),
			buyerSale("o-2", 5000, "dup@x.com", base.Add(2*time.Minute)),
		}
		ds := Detect("r1", "ev1", domain.PlatformFake, locals, orders, cfg)
		if len(ds) != 1 {
			t.Fatalf("expected 1 duplicate discrepancy, got %d", len(ds))
		}
		if ds[0].Type != domain.DiscrepancyDuplicateSale {
			t.Errorf("type = %s, want duplicate_sale", ds[0].Type)
		}
		if ds[0].PlatformOrderID != "o-2" {
			t.Errorf("flagged sale = %s, want the later one (o-2)", ds[0].PlatformOrderID)
		}
		if ds[0].LocalCents == nil || *ds[0].LocalCents != 5000 {
			t.Errorf("local cents not recorded on duplicate")
		}
	})

	t.Run("duplicate local entries with no upstream counterpart", func(t *testing.T) {
		// Two manual door sales for the same buyer: nothing on the platform
		// side, yet the double charge must still surface.
		locals := []domain.TicketSale{
			buyerSale("door-1", 5000, "dup@x.com", base),
			buyerSale("door-2", 5000, "dup@x.com", base.Add(2*time.Minute)),
		}
		ds := Detect("r1", "ev1", domain.PlatformFake, locals, nil, cfg)

		var dups, inconsistencies int
		for _, d := range ds {
			switch d.Type {
			case domain.DiscrepancyDuplicateSale:
				dups++
				if d.PlatformOrderID != "door-2" {
					t.Errorf("flagged sale = %s, want door-2", d.PlatformOrderID)
				}
			case domain.DiscrepancyDataInconsistency:
				inconsistencies++
			}
		}
		if dups != 1 || inconsistencies != 2 {
			t.Fatalf("got %d duplicates / %d inconsistencies, want 1 / 2", dups, inconsistencies)
		}
	})

	t.Run("duplicate purchases outside window", func(t *testing.T) {
		orders := []domain.PlatformOrder{
			paidOrder("o-1", 5000, "dup@x.com", base),
			paidOrder("o-2", 5000, "dup@x.com", base.Add(10*time.Minute)),
		}
		locals := []domain.TicketSale{
			buyerSale("o-1", 5000, "dup@x.com", base),
			buyerSale("o-2", 5000, "dup@x.com", base.Add(10*time.Minute)),
		}
		ds := Detect("r1", "ev1", domain.PlatformFake, locals, orders, cfg)
		if len(ds) != 0 {
			t.Fatalf("expected no discrepancies, got %d", len(ds))
		}
	})

	t.Run("different amounts are not duplicates", func(t *testing.T) {
		orders := []domain.PlatformOrder{
			paidOrder("o-1", 5000, "dup@x.com", base),
			paidOrder("o-2", 7500, "dup@x.com", base.Add(time.Minute)),
		}
		locals := []domain.TicketSale{
			buyerSale("o-1", 5000, "dup@x.com", base),
			buyerSale("o-2", 7500, "dup@x.com", base.Add(time.Minute)),
		}
		ds := Detect("r1", "ev1", domain.PlatformFake, locals, orders, cfg)
		if len(ds) != 0 {
			t.Fatalf("expected no discrepancies, got %d", len(ds))
		}
	})
}

func TestClassifyHealth(t *testing.T) {
	cases := []struct {
		name       string
		found      int
		localSales int
		localRev   int64
		platRev    int64
		want       domain.HealthStatus
	}{
		{"clean pass", 0, 20, 100_000, 100_000, domain.HealthHealthy},
		{"discrepancy rate at warning bound", 1, 20, 100_000, 100_000, domain.HealthHealthy},
		{"discrepancy rate over warning", 2, 20, 100_000, 100_000, domain.HealthWarning},
		{"discrepancy rate over critical", 3, 20, 100_000, 100_000, domain.HealthCritical},
		{"revenue drift over warning", 0, 20, 100_000, 103_000, domain.HealthWarning},
		{"revenue drift over critical", 0, 20, 100_000, 106_000, domain.HealthCritical},
		{"empty mirror with platform sales", 3, 0, 0, 15_000, domain.HealthCritical},
		{"both zero", 0, 0, 0, 0, domain.HealthHealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyHealth(tc.found, tc.localSales, tc.localRev, tc.platRev)
			if got != tc.want {
				t.Fatalf("ClassifyHealth(%d, %d, %d, %d) = %s, want %s",
					tc.found, tc.localSales, tc.localRev, tc.platRev, got, tc.want)
			}
		})
	}
}

// reconcileFixture wires a ReconciliationService over in-memory fakes with a
// single fake-platform link for event ev1.
type reconcileFixture struct {
	svc    *ReconciliationService
	client *fakeClient
	sales  *fakeSales
	events *fakeEvents
	disc   *fakeDiscrepancies
	audit  *fakeAudit
	alerts *fakeAlerter
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	client := &fakeClient{platform: domain.PlatformFake}
	f := &reconcileFixture{
		client: client,
		sales:  newFakeSales(),
		events: newFakeEvents("ev1"),
		disc:   newFakeDiscrepancies(),
		audit:  &fakeAudit{},
		alerts: &fakeAlerter{},
	}
	links := &fakeLinks{}
	if err := links.Create(context.Background(), domain.TicketPlatform{
		EventID:         "ev1",
		Platform:        domain.PlatformFake,
		ExternalEventID: "ext-1",
		SyncEnabled:     true,
	}); err != nil {
		t.Fatalf("seed link: %v", err)
	}
	f.svc = NewReconciliationService(
		platform.NewRegistry(client),
		f.sales, links, f.events, newFakeReports(), f.disc, f.audit,
		f.alerts, defaultReconcileConfig(), testLogger(),
	)
	return f
}

func TestReconcileEventAutoImportsMissingSales(t *testing.T) {
	ctx := context.Background()
	f := newReconcileFixture(t)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	f.client.orders = []domain.PlatformOrder{
		paidOrder("o-1", 5000, "a@x.com", base),
		paidOrder("o-2", 5000, "b@x.com", base),
		paidOrder("o-3", 5000, "c@x.com", base),
	}

	reports, err := f.svc.ReconcileEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("ReconcileEvent: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	rep := reports[0]
	if rep.Status != domain.ReportCompleted {
		t.Fatalf("report status = %s, want completed (error: %s)", rep.Status, rep.Error)
	}
	if rep.DiscrepanciesFound != 3 || rep.DiscrepanciesResolved != 3 {
		t.Errorf("found/resolved = %d/%d, want 3/3", rep.DiscrepanciesFound, rep.DiscrepanciesResolved)
	}
	if rep.Health != domain.HealthCritical {
		t.Errorf("health = %s, want critical (pre-resolution counts)", rep.Health)
	}
	if rep.PlatformRevenueCents != 15_000 || rep.LocalRevenueCents != 0 {
		t.Errorf("revenue = local %d / platform %d, want 0 / 15000",
			rep.LocalRevenueCents, rep.PlatformRevenueCents)
	}

	for _, id := range []string{"o-1", "o-2", "o-3"} {
		sale, err := f.sales.GetByOrderID(ctx, domain.PlatformFake, id)
		if err != nil {
			t.Fatalf("auto-imported sale %s missing: %v", id, err)
		}
		if !sale.AutoCorrected || !sale.ReconciliationImport {
			t.Errorf("sale %s provenance flags = %v/%v, want true/true",
				id, sale.AutoCorrected, sale.ReconciliationImport)
		}
	}

	ev, _ := f.events.GetByID(ctx, "ev1")
	if ev.ReconciliationStatus != domain.HealthCritical {
		t.Errorf("event stamped %s, want critical", ev.ReconciliationStatus)
	}
	if len(f.alerts.events) != 1 || f.alerts.events[0] != "reconciliation_alert" {
		t.Errorf("alerts = %v, want one reconciliation_alert", f.alerts.events)
	}
}

func TestReconcileEventSecondPassIsClean(t *testing.T) {
	ctx := context.Background()
	f := newReconcileFixture(t)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	f.client.orders = []domain.PlatformOrder{paidOrder("o-1", 5000, "a@x.com", base)}

	if _, err := f.svc.ReconcileEvent(ctx, "ev1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	reports, err := f.svc.ReconcileEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if reports[0].DiscrepanciesFound != 0 {
		t.Fatalf("second pass found %d discrepancies, want 0", reports[0].DiscrepanciesFound)
	}
	if reports[0].Health != domain.HealthHealthy {
		t.Fatalf("second pass health = %s, want healthy", reports[0].Health)
	}
}

func TestReconcileEventAutoCorrectsSmallMismatch(t *testing.T) {
	ctx := context.Background()
	f := newReconcileFixture(t)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	f.client.orders = []domain.PlatformOrder{paidOrder("o-1", 5000, "a@x.com", base)}
	if err := f.sales.Upsert(ctx, domain.TicketSale{
		ID:               "s-1",
		EventID:          "ev1",
		Platform:         domain.PlatformFake,
		PlatformOrderID:  "o-1",
		TotalAmountCents: 5050,
		Status:           "paid",
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	// First Update attempt loses the optimistic concurrency race.
	f.sales.fails["o-1"] = 1

	reports, err := f.svc.ReconcileEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("ReconcileEvent: %v", err)
	}
	if reports[0].DiscrepanciesResolved != 1 {
		t.Fatalf("resolved = %d, want 1", reports[0].DiscrepanciesResolved)
	}

	sale, err := f.sales.GetByOrderID(ctx, domain.PlatformFake, "o-1")
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.TotalAmountCents != 5000 {
		t.Errorf("amount = %d, want corrected to 5000", sale.TotalAmountCents)
	}
	if !sale.AutoCorrected {
		t.Errorf("AutoCorrected = false, want true")
	}

	ds, _ := f.disc.ListByReport(ctx, reports[0].ID)
	if len(ds) != 1 || ds[0].Resolution != domain.ResolutionAutoCorrected {
		t.Fatalf("discrepancy resolution = %v, want auto_corrected", ds)
	}
}

func TestReconcileEventEscalatesLargeMismatch(t *testing.T) {
	ctx := context.Background()
	f := newReconcileFixture(t)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	f.client.orders = []domain.PlatformOrder{paidOrder("o-1", 5000, "a@x.com", base)}
	if err := f.sales.Upsert(ctx, domain.TicketSale{
		ID:               "s-1",
		EventID:          "ev1",
		Platform:         domain.PlatformFake,
		PlatformOrderID:  "o-1",
		TotalAmountCents: 5500, // $5 over the $1 auto-correct ceiling
		Status:           "paid",
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	reports, err := f.svc.ReconcileEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("ReconcileEvent: %v", err)
	}
	if reports[0].DiscrepanciesResolved != 0 {
		t.Fatalf("resolved = %d, want 0", reports[0].DiscrepanciesResolved)
	}

	sale, _ := f.sales.GetByOrderID(ctx, domain.PlatformFake, "o-1")
	if sale.TotalAmountCents != 5500 {
		t.Errorf("amount = %d, large mismatch must not be auto-corrected", sale.TotalAmountCents)
	}

	ds, _ := f.disc.ListByReport(ctx, reports[0].ID)
	if len(ds) != 1 || ds[0].Resolution != domain.ResolutionManualReview {
		t.Fatalf("discrepancy resolution = %v, want manual_review", ds)
	}
}

func TestReconcileEventPlatformFailureYieldsFailedReport(t *testing.T) {
	ctx := context.Background()
	f := newReconcileFixture(t)
	f.client.ordersErr = errors.New("provider 503")

	reports, err := f.svc.ReconcileEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("ReconcileEvent: %v", err)
	}
	if reports[0].Status != domain.ReportFailed {
		t.Fatalf("status = %s, want failed", reports[0].Status)
	}
	// A failed pass must not stamp health on the event.
	ev, _ := f.events.GetByID(ctx, "ev1")
	if ev.ReconciliationStatus != "" {
		t.Errorf("event stamped %q after failed pass, want untouched", ev.ReconciliationStatus)
	}
}

func TestResolveDiscrepancy(t *testing.T) {
	ctx := context.Background()
	f := newReconcileFixture(t)
	seed := domain.Discrepancy{
		ID:       "d-1",
		ReportID: "r-1",
		EventID:  "ev1",
		Platform: domain.PlatformFake,
		Type:     domain.DiscrepancyDuplicateSale,
		Severity: domain.SeverityMedium,
	}
	if err := f.disc.InsertBatch(ctx, []domain.Discrepancy{seed}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	t.Run("rejects non-terminal resolution", func(t *testing.T) {
		_, err := f.svc.ResolveDiscrepancy(ctx, "d-1", domain.ResolutionAutoImported, "")
		if !errors.Is(err, domain.ErrBadPayload) {
			t.Fatalf("err = %v, want ErrBadPayload", err)
		}
	})

	t.Run("confirm resolves and audits", func(t *testing.T) {
		d, err := f.svc.ResolveDiscrepancy(ctx, "d-1", domain.ResolutionConfirmed, "real duplicate, refunded manually")
		if err != nil {
			t.Fatalf("ResolveDiscrepancy: %v", err)
		}
		if d.Resolution != domain.ResolutionConfirmed || d.ResolvedAt == nil {
			t.Fatalf("resolution = %s / resolvedAt = %v", d.Resolution, d.ResolvedAt)
		}
		last := f.audit.entries[len(f.audit.entries)-1]
		if last.Event != "discrepancy_resolved" {
			t.Errorf("audit event = %s, want discrepancy_resolved", last.Event)
		}
	})

	t.Run("cannot resolve twice", func(t *testing.T) {
		_, err := f.svc.ResolveDiscrepancy(ctx, "d-1", domain.ResolutionDismissed, "")
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.svc.ResolveDiscrepancy(ctx, "nope", domain.ResolutionConfirmed, "")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCreateManualAdjustment(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a reason", func(t *testing.T) {
		f := newReconcileFixture(t)
		err := f.svc.CreateManualAdjustment(ctx, "ev1", domain.PlatformFake, domain.Adjustment{Type: "add"})
		if !errors.Is(err, domain.ErrBadPayload) {
			t.Fatalf("err = %v, want ErrBadPayload", err)
		}
		if len(f.audit.entries) != 0 {
			t.Errorf("rejected adjustment must not be audited")
		}
	})

	t.Run("add creates a flagged sale", func(t *testing.T) {
		f := newReconcileFixture(t)
		err := f.svc.CreateManualAdjustment(ctx, "ev1", domain.PlatformFake, domain.Adjustment{
			Type:            "add",
			PlatformOrderID: "door-1",
			Data: map[string]any{
				"amount_cents":  float64(2500),
				"customer_name": "Walk Up",
				"quantity":      float64(2),
			},
			Reason: "door sale not on any platform",
		})
		if err != nil {
			t.Fatalf("CreateManualAdjustment: %v", err)
		}
		sale, err := f.sales.GetByOrderID(ctx, domain.PlatformFake, "door-1")
		if err != nil {
			t.Fatalf("sale not created: %v", err)
		}
		if !sale.ManualAdjustment || sale.TotalAmountCents != 2500 || sale.Quantity != 2 {
			t.Errorf("sale = %+v, want manual adjustment of 2500 cents x2", sale)
		}
		if f.audit.entries[0].Event != "manual_adjustment" {
			t.Errorf("audit event = %s, want manual_adjustment", f.audit.entries[0].Event)
		}
	})

	t.Run("update_amount rewrites the sale", func(t *testing.T) {
		f := newReconcileFixture(t)
		_ = f.sales.Upsert(ctx, domain.TicketSale{
			ID: "s-1", EventID: "ev1", Platform: domain.PlatformFake,
			PlatformOrderID: "o-1", TotalAmountCents: 5000, Status: "paid",
		})
		err := f.svc.CreateManualAdjustment(ctx, "ev1", domain.PlatformFake, domain.Adjustment{
			Type:            "update_amount",
			PlatformOrderID: "o-1",
			Data:            map[string]any{"amount_cents": float64(4500)},
			Reason:          "partial refund applied off-platform",
		})
		if err != nil {
			t.Fatalf("CreateManualAdjustment: %v", err)
		}
		sale, _ := f.sales.GetByOrderID(ctx, domain.PlatformFake, "o-1")
		if sale.TotalAmountCents != 4500 || !sale.ManualAdjustment {
			t.Errorf("sale = %+v, want amount 4500 with ManualAdjustment", sale)
		}
	})

	t.Run("remove deletes the sale", func(t *testing.T) {
		f := newReconcileFixture(t)
		_ = f.sales.Upsert(ctx, domain.TicketSale{
			ID: "s-1", EventID: "ev1", Platform: domain.PlatformFake,
			PlatformOrderID: "o-1", TotalAmountCents: 5000, Status: "paid",
		})
		err := f.svc.CreateManualAdjustment(ctx, "ev1", domain.PlatformFake, domain.Adjustment{
			Type:            "remove",
			PlatformOrderID: "o-1",
			Reason:          "test order placed by staff",
		})
		if err != nil {
			t.Fatalf("CreateManualAdjustment: %v", err)
		}
		if _, err := f.sales.GetByOrderID(ctx, domain.PlatformFake, "o-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("sale still present after remove: %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		f := newReconcileFixture(t)
		err := f.svc.CreateManualAdjustment(ctx, "ev1", domain.PlatformFake, domain.Adjustment{
			Type:   "merge",
			Reason: "why not",
		})
		if !errors.Is(err, domain.ErrBadPayload) {
			t.Fatalf("err = %v, want ErrBadPayload", err)
		}
	})
}
