package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testServiceOptions() ServiceOptions {
	return ServiceOptions{
		MaxFileSize:   256,
		MaxConcurrent: 1,
		MaxWaitTime:   20 * time.Millisecond,
		Timeout:       time.Second,
	}
}

func TestService_ImportBusinesses(t *testing.T) {
	store := newFakeStore()
	store.categories = []Category{{ID: "c1", Name: "Health"}}
	svc := NewService(store, fakeHasher{}, testServiceOptions())

	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,email,admin_name,category\nAcme,a@x.com,Ann Owner,Health\nB,bad,C,\n")...)
	report, err := svc.ImportBusinesses(context.Background(), ImportRequest{FileName: "biz.CSV", Data: data})
	if err != nil {
		t.Fatalf("ImportBusinesses() error = %v", err)
	}

	if report.ImportID == "" {
		t.Error("ImportID is empty")
	}
	if report.Summary.Counts != (ImportCounts{Total: 1, Created: 1}) {
		t.Errorf("counts = %+v", report.Summary.Counts)
	}
	if len(report.Parse.Errors) == 0 || report.Parse.Errors[0].Row != 3 {
		t.Errorf("parse errors = %+v, want errors for row 3", report.Parse.Errors)
	}
	if c := store.createdBiz[0].CategoryID; c == nil || *c != "c1" {
		t.Errorf("category = %v, want c1", deref(c))
	}
	if svc.ImportLimiterStatus().Active != 0 {
		t.Error("import slot was not released")
	}
}

func TestService_ImportRejections(t *testing.T) {
	tests := []struct {
		name string
		req  ImportRequest
		want error
	}{
		{"no file", ImportRequest{}, ErrNoFile},
		{"wrong extension", ImportRequest{FileName: "biz.xlsx", Data: []byte("x")}, ErrNotCSV},
		{"too large", ImportRequest{FileName: "biz.csv", Data: make([]byte, 257)}, ErrFileTooLarge},
		{"no valid rows", ImportRequest{FileName: "biz.csv", Data: []byte("name,email\nA,b\n")}, ErrNoValidRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, fakeHasher{}, testServiceOptions())

			report, err := svc.ImportBusinesses(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if tt.want == ErrNoValidRows && (report == nil || len(report.Parse.Errors) == 0) {
				t.Error("ErrNoValidRows should come with the parse errors")
			}
			if store.withinRowCalls != 0 {
				t.Error("rejected import reached the store")
			}
		})
	}
}

func TestService_ImportLimiterSaturated(t *testing.T) {
	svc := NewService(newFakeStore(), fakeHasher{}, testServiceOptions())

	if err := svc.limiter.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer svc.limiter.Release()

	_, err := svc.ImportBusinesses(context.Background(), ImportRequest{
		FileName: "biz.csv",
		Data:     []byte("name,email,admin_name\nAcme,a@x.com,Ann Owner\n"),
	})
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("error = %v, want ErrTooManyImports", err)
	}
}

func TestService_PreviewImport(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, fakeHasher{}, testServiceOptions())

	res, err := svc.PreviewImport(ImportRequest{
		FileName: "biz.csv",
		Data:     []byte("name,email,admin_name\nAcme,a@x.com,Ann Owner\nX,bad,Y\n"),
	})
	if err != nil {
		t.Fatalf("PreviewImport() error = %v", err)
	}
	if res.Meta.RowCount != 1 || len(res.Errors) == 0 {
		t.Errorf("result = %+v", res)
	}
	if store.withinRowCalls != 0 {
		t.Error("preview reached the store")
	}
}

type historyStore struct {
	*fakeStore
	runs  []ImportRun
	limit int
}

func (h *historyStore) RecordImport(_ context.Context, run ImportRun) error {
	h.runs = append(h.runs, run)
	return nil
}

func (h *historyStore) ListImports(_ context.Context, limit int) ([]ImportRun, error) {
	h.limit = limit
	return h.runs, nil
}

func TestService_ImportHistory(t *testing.T) {
	hs := &historyStore{fakeStore: newFakeStore()}
	svc := NewService(hs, fakeHasher{}, testServiceOptions())

	report, err := svc.ImportBusinesses(context.Background(), ImportRequest{
		FileName: "biz.csv",
		Data:     []byte("name,email,admin_name\nAcme,a@x.com,Ann Owner\n"),
	})
	if err != nil {
		t.Fatalf("ImportBusinesses() error = %v", err)
	}
	if len(hs.runs) != 1 || hs.runs[0].ID != report.ImportID || hs.runs[0].Created != 1 {
		t.Fatalf("recorded runs = %+v", hs.runs)
	}

	if _, err := svc.ImportHistory(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if hs.limit != DefaultHistoryLimit {
		t.Errorf("limit = %d, want default %d", hs.limit, DefaultHistoryLimit)
	}
	svc.ImportHistory(context.Background(), 10_000)
	if hs.limit != MaxHistoryLimit {
		t.Errorf("limit = %d, want cap %d", hs.limit, MaxHistoryLimit)
	}

	plain := NewService(newFakeStore(), fakeHasher{}, testServiceOptions())
	runs, err := plain.ImportHistory(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Errorf("ImportHistory() without history store = %v, %v", runs, err)
	}
}
