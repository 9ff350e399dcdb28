package stubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/barberbook/bookingkit/internal/api"
)

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		respondError(w, http.StatusBadRequest, "email already registered")
		return
	}
	acct := &account{
		user: api.User{
			ID:            newID("u"),
			Name:          req.Name,
			Email:         req.Email,
			Phone:         req.Phone,
			LoyaltyPoints: 0,
			LoyaltyLevel:  "Bronze",
		},
		password: req.Password,
	}
	s.accounts[req.Email] = acct
	s.accountsByID[acct.user.ID] = acct
	s.mu.Unlock()

	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	s.logger.Info("account registered", "email", req.Email)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    api.AuthResult{User: acct.user, Token: token},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || acct.password != req.Password {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    api.AuthResult{User: acct.user, Token: token},
	})
}

func (s *Server) handleListBarbers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	barbers := append([]api.Barber(nil), s.barbers...)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"barbers": barbers},
	})
}

func (s *Server) handleGetBarber(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	barber, ok := s.findBarber(id)
	s.mu.Unlock()
	if !ok {
		// The mobile client keys off the success flag, not the status code.
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"barber": barber},
	})
}

// findBarber must be called with s.mu held.
func (s *Server) findBarber(id string) (api.Barber, bool) {
	for _, b := range s.barbers {
		if b.ID == id {
			return b, true
		}
	}
	return api.Barber{}, false
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	barberID := r.URL.Query().Get("barberId")
	dateStr := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil || barberID == "" {
		respondError(w, http.StatusBadRequest, "barberId and date (YYYY-MM-DD) are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findBarber(barberID); !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"slots": []api.Slot{}},
		})
		return
	}

	now := s.cfg.Now()
	slots := make([]api.Slot, 0, s.cfg.DayEnd-s.cfg.DayStart)
	for hour := s.cfg.DayStart; hour < s.cfg.DayEnd; hour++ {
		start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC)
		if !start.After(now) {
			continue
		}
		if _, taken := s.booked[slotKey(barberID, start)]; taken {
			continue
		}
		slots = append(slots, api.Slot{Time: start, Display: start.Format("3:04 PM")})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"slots": slots},
	})
}

func slotKey(barberID string, t time.Time) string {
	return barberID + "|" + t.UTC().Format(time.RFC3339)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	var req api.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BarberID == "" || req.Service.Name == "" || req.AppointmentDate.IsZero() {
		respondError(w, http.StatusBadRequest, "barberId, service and appointmentDate are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	barber, ok := s.findBarber(req.BarberID)
	if !ok {
		respondError(w, http.StatusNotFound, "barber not found")
		return
	}
	key := slotKey(req.BarberID, req.AppointmentDate)
	if _, taken := s.booked[key]; taken {
		respondError(w, http.StatusConflict, "slot no longer available")
		return
	}

	appt := api.Appointment{
		ID:              newID("appt"),
		Barber:          api.AppointmentBarber{ID: barber.ID, Name: barber.Name, ShopName: barber.ShopName},
		Service:         req.Service,
		AppointmentDate: req.AppointmentDate.UTC(),
		Status:          "pending",
		Notes:           req.Notes,
	}
	s.booked[key] = userID
	s.appointments[userID] = append(s.appointments[userID], appt)
	s.logger.Info("appointment booked", "barber_id", barber.ID, "user_id", userID)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"appointment": appt},
	})
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	s.mu.Lock()
	appts := append([]api.Appointment(nil), s.appointments[userID]...)
	s.mu.Unlock()
	sort.Slice(appts, func(i, j int) bool {
		return appts[i].AppointmentDate.Before(appts[j].AppointmentDate)
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"appointments": appts},
	})
}

func (s *Server) handleOpenChat(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	barberID := r.URL.Query().Get("barberId")

	s.mu.Lock()
	defer s.mu.Unlock()
	barber, ok := s.findBarber(barberID)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": false})
		return
	}

	acct := s.accountsByID[userID]
	for _, thread := range s.chats {
		if thread.userID == userID && thread.barberID == barberID {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"chat": thread.chat},
			})
			return
		}
	}

	chat := api.Chat{
		ID: newID("chat"),
		Participants: api.ChatParticipants{
			User:   &api.ChatUser{ID: userID, Name: acct.user.Name},
			Barber: &api.ChatBarber{ID: barber.ID, Name: barber.Name, ShopName: barber.ShopName},
		},
		UpdatedAt: s.cfg.Now(),
	}
	s.chats[chat.ID] = &chatThread{chat: chat, userID: userID, barberID: barberID}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"chat": chat},
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	s.mu.Lock()
	chats := make([]api.Chat, 0)
	for _, thread := range s.chats {
		if thread.userID == userID {
			c := thread.chat
			c.Messages = nil // list view carries previews only
			chats = append(chats, c)
		}
	}
	s.mu.Unlock()
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"chats": chats},
	})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	chatID := chi.URLParam(r, "id")

	s.mu.Lock()
	thread, ok := s.chats[chatID]
	if !ok || thread.userID != userID {
		s.mu.Unlock()
		respondError(w, http.StatusNotFound, "chat not found")
		return
	}
	messages := append([]api.Message(nil), thread.chat.Messages...)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"chat": map[string]interface{}{"messages": messages},
		},
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	var req struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.ChatID == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "chatId and content are required")
		return
	}

	s.mu.Lock()
	thread, ok := s.chats[req.ChatID]
	if !ok || thread.userID != userID {
		s.mu.Unlock()
		respondError(w, http.StatusNotFound, "chat not found")
		return
	}
	msg := api.Message{
		Sender:     userID,
		SenderType: "user",
		Content:    req.Content,
		CreatedAt:  s.cfg.Now(),
	}
	thread.chat.Messages = append(thread.chat.Messages, msg)
	thread.chat.LastMessage = &api.ChatPreview{Content: msg.Content, CreatedAt: msg.CreatedAt}
	thread.chat.UpdatedAt = msg.CreatedAt
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true})
}
