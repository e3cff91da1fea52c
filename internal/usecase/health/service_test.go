package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

type mockCorpus struct {
	size int
}

func (m *mockCorpus) Size() int { return m.size }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockCorpus{size: 282})

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("expected %s, got %s", Healthy, report.Status)
	}
	if report.Routes != 282 {
		t.Errorf("expected 282 routes, got %d", report.Routes)
	}
	if report.Checks["corpus"] != CheckOK || report.Checks["store"] != CheckOK {
		t.Errorf("unexpected checks: %+v", report.Checks)
	}
}

func TestCheck_StoreDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockCorpus{size: 10})

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("expected %s, got %s", Degraded, report.Status)
	}
	if report.Checks["store"] != CheckError {
		t.Errorf("expected store check error, got %s", report.Checks["store"])
	}
	if report.Checks["corpus"] != CheckOK {
		t.Errorf("expected corpus ok, got %s", report.Checks["corpus"])
	}
}

func TestCheck_EmptyCorpusDegrades(t *testing.T) {
	svc := New(&mockPinger{}, &mockCorpus{size: 0})

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("expected %s, got %s", Degraded, report.Status)
	}
	if report.Checks["corpus"] != CheckError {
		t.Errorf("expected corpus check error, got %s", report.Checks["corpus"])
	}
}

func TestCheck_NilStoreSkipsPing(t *testing.T) {
	svc := New(nil, &mockCorpus{size: 5})

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("expected %s, got %s", Healthy, report.Status)
	}
	if _, ok := report.Checks["store"]; ok {
		t.Error("expected no store check when store is nil")
	}
}
