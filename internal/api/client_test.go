package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barberbook/bookingkit/pkg/logging"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, token TokenSource, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, token, logging.Default(), nil)
}

func TestClient_GetBarber_Success(t *testing.T) {
	client := newTestClient(t, staticToken("tok-1"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/barbers/b1" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("Authorization = %q, want Bearer tok-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"barber":{"_id":"b1","name":"Marco","rating":4.8,"totalReviews":12,"services":[{"name":"Haircut","price":20,"duration":30}]}}}`))
	})

	barber, err := client.GetBarber(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetBarber() error = %v", err)
	}
	if barber.Name != "Marco" {
		t.Errorf("name = %s, want Marco", barber.Name)
	}
	if len(barber.Services) != 1 || barber.Services[0].Name != "Haircut" {
		t.Errorf("services = %+v", barber.Services)
	}
}

func TestClient_GetBarber_SuccessFalse(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	_, err := client.GetBarber(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestClient_GetBarber_HTTPError(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failed", http.StatusBadGateway)
	})

	_, err := client.GetBarber(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClient_GetAvailability_QueryShape(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointments/availability" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("barberId") != "b1" {
			t.Fatalf("barberId = %s", r.URL.Query().Get("barberId"))
		}
		if r.URL.Query().Get("date") != "2024-06-03" {
			t.Fatalf("date = %s, want 2024-06-03", r.URL.Query().Get("date"))
		}
		_, _ = w.Write([]byte(`{"data":{"slots":[{"time":"2024-06-03T14:00:00Z","display":"2:00 PM"}]}}`))
	})

	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	slots, err := client.GetAvailability(context.Background(), "b1", date)
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1", len(slots))
	}
	if slots[0].Display != "2:00 PM" {
		t.Errorf("display = %s", slots[0].Display)
	}
	if !slots[0].Time.Equal(time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("time = %v", slots[0].Time)
	}
}

func TestClient_GetAvailability_EmptyList(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"slots":[]}}`))
	})

	slots, err := client.GetAvailability(context.Background(), "b1", time.Now())
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("len(slots) = %d, want 0", len(slots))
	}
}

func TestClient_CreateAppointment_OmitsEmptyNotes(t *testing.T) {
	var raw map[string]json.RawMessage
	client := newTestClient(t, staticToken("tok-1"), func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	_, err := client.CreateAppointment(context.Background(), AppointmentRequest{
		BarberID:        "b1",
		Service:         Service{Name: "Haircut", Price: 20, Duration: 30},
		AppointmentDate: time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateAppointment() error = %v", err)
	}
	if _, present := raw["notes"]; present {
		t.Error("notes key must be omitted when empty")
	}
	if _, present := raw["barberId"]; !present {
		t.Error("barberId key missing from body")
	}

	var svc Service
	if err := json.Unmarshal(raw["service"], &svc); err != nil {
		t.Fatalf("service: %v", err)
	}
	if svc != (Service{Name: "Haircut", Price: 20, Duration: 30}) {
		t.Errorf("service = %+v", svc)
	}

	var instant string
	if err := json.Unmarshal(raw["appointmentDate"], &instant); err != nil {
		t.Fatalf("appointmentDate: %v", err)
	}
	if instant != "2024-06-03T14:00:00Z" {
		t.Errorf("appointmentDate = %s, want RFC 3339 UTC instant", instant)
	}
}

func TestClient_CreateAppointment_EmptyBodySynthesizesRecord(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := AppointmentRequest{
		BarberID:        "b1",
		Service:         Service{Name: "Haircut", Price: 20, Duration: 30},
		AppointmentDate: time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC),
		Notes:           "fade please",
	}
	appt, err := client.CreateAppointment(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateAppointment() error = %v", err)
	}
	if appt.Barber.ID != "b1" || appt.Notes != "fade please" {
		t.Errorf("appointment = %+v", appt)
	}
	if appt.Status != "pending" {
		t.Errorf("status = %s, want pending", appt.Status)
	}
}

func TestClient_ListBarbers(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/barbers/all" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"barbers":[{"_id":"b1","name":"Marco"},{"_id":"b2","name":"Lena"}]}}`))
	})

	barbers, err := client.ListBarbers(context.Background())
	if err != nil {
		t.Fatalf("ListBarbers() error = %v", err)
	}
	if len(barbers) != 2 {
		t.Fatalf("len(barbers) = %d, want 2", len(barbers))
	}
}

func TestClient_Register(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/register" || r.Method != http.MethodPost {
			t.Fatalf("%s %s", r.Method, r.URL.Path)
		}
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Email != "jane@example.com" {
			t.Fatalf("email = %s", req.Email)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"user":{"id":"u1","name":"Jane","email":"jane@example.com"},"token":"tok-xyz"}}`))
	})

	res, err := client.Register(context.Background(), RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token != "tok-xyz" || res.User.ID != "u1" {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_OpenChat_SuccessFalse(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("barberId") != "b1" {
			t.Fatalf("barberId = %s", r.URL.Query().Get("barberId"))
		}
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	_, err := client.OpenChat(context.Background(), "b1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestClient_GetMessages(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/c1/messages" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"chat":{"messages":[{"sender":"u1","senderType":"user","content":"hi","createdAt":"2024-06-01T10:00:00Z"}]}}}`))
	})

	msgs, err := client.GetMessages(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderType != "user" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"barbers":[`))
	})

	_, err := client.ListBarbers(context.Background())
	if err == nil {
		t.Fatal("expected JSON decode error, got nil")
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"data":{"barbers":[]}}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListBarbers(ctx)
	if err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
}

func TestClient_TimeoutOption(t *testing.T) {
	c := NewClient("http://example.invalid", nil, logging.Default(), nil, WithTimeout(3*time.Second))
	if got := c.httpClient.Timeout; got != 3*time.Second {
		t.Errorf("httpClient.Timeout = %v, want 3s", got)
	}

	// Zero and negative values keep the default.
	c = NewClient("http://example.invalid", nil, logging.Default(), nil, WithTimeout(0))
	if got := c.httpClient.Timeout; got != defaultTimeout {
		t.Errorf("httpClient.Timeout = %v, want default %v", got, defaultTimeout)
	}
}

func TestClient_NoTokenMeansNoAuthHeader(t *testing.T) {
	client := newTestClient(t, staticToken(""), func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("Authorization = %q, want unset", got)
		}
		_, _ = w.Write([]byte(`{"data":{"barbers":[]}}`))
	})

	if _, err := client.ListBarbers(context.Background()); err != nil {
		t.Fatalf("ListBarbers() error = %v", err)
	}
}
