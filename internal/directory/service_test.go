package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/barberbook/bookingkit/internal/api"
)

type mockLister struct {
	barbers    []api.Barber
	listErr    error
	listCalls  int
	getCalls   int
	lastGetID  string
	getBarber  *api.Barber
	getBarbErr error
}

func (m *mockLister) ListBarbers(_ context.Context) ([]api.Barber, error) {
	m.listCalls++
	return m.barbers, m.listErr
}

func (m *mockLister) GetBarber(_ context.Context, id string) (*api.Barber, error) {
	m.getCalls++
	m.lastGetID = id
	return m.getBarber, m.getBarbErr
}

func TestList_CachesWithinTTL(t *testing.T) {
	m := &mockLister{barbers: []api.Barber{{ID: "b1", Name: "Marco"}}}
	s := New(m, time.Minute, nil)

	for i := 0; i < 3; i++ {
		barbers, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(barbers) != 1 {
			t.Fatalf("len(barbers) = %d, want 1", len(barbers))
		}
	}
	if m.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1 (cached)", m.listCalls)
	}
}

func TestList_ErrorIsNotCached(t *testing.T) {
	m := &mockLister{listErr: errors.New("backend down")}
	s := New(m, time.Minute, nil)

	if _, err := s.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	m.listErr = nil
	m.barbers = []api.Barber{{ID: "b1"}}
	barbers, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() after recovery error = %v", err)
	}
	if len(barbers) != 1 {
		t.Fatalf("len(barbers) = %d, want 1", len(barbers))
	}
	if m.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2", m.listCalls)
	}
}

func TestRefresh_BypassesCache(t *testing.T) {
	m := &mockLister{barbers: []api.Barber{{ID: "b1"}}}
	s := New(m, time.Minute, nil)

	if _, err := s.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2 after refresh", m.listCalls)
	}
}

func TestGet_AlwaysHitsBackend(t *testing.T) {
	m := &mockLister{getBarber: &api.Barber{ID: "b1", Name: "Marco"}}
	s := New(m, time.Minute, nil)

	for i := 0; i < 2; i++ {
		barber, err := s.Get(context.Background(), "b1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if barber.Name != "Marco" {
			t.Errorf("name = %s", barber.Name)
		}
	}
	if m.getCalls != 2 {
		t.Errorf("getCalls = %d, want 2 (profiles are never cached)", m.getCalls)
	}
}

func TestTopRated(t *testing.T) {
	m := &mockLister{barbers: []api.Barber{
		{ID: "b1", Rating: 3.5},
		{ID: "b2", Rating: 4.9},
		{ID: "b3"}, // no rating reported, sorts last
		{ID: "b4", Rating: 4.1},
	}}
	s := New(m, time.Minute, nil)

	top, err := s.TopRated(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopRated() error = %v", err)
	}
	if len(top) != 2 || top[0].ID != "b2" || top[1].ID != "b4" {
		t.Errorf("top = %+v", top)
	}

	all, err := s.TopRated(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[3].ID != "b3" {
		t.Errorf("all = %+v", all)
	}
}
