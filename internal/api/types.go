package api

import "time"

// Service is one offering on a barber's menu. Offerings carry no server-side
// identifier, only a name; price is in dollars, duration in minutes.
type Service struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
}

// Barber is a barber profile as returned by GET /barbers/{id}.
type Barber struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	ShopName     string    `json:"shopName,omitempty"`
	ShopAddress  string    `json:"shopAddress,omitempty"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"totalReviews"`
	Skills       []string  `json:"skills,omitempty"`
	Services     []Service `json:"services"`
}

// Slot is one bookable start time for a (barber, date) pair. Display is the
// server-rendered label, e.g. "2:00 PM".
type Slot struct {
	Time    time.Time `json:"time"`
	Display string    `json:"display"`
}

// AppointmentRequest is the body of POST /appointments. Notes must already be
// trimmed; an empty value is omitted from the wire body entirely.
type AppointmentRequest struct {
	BarberID        string    `json:"barberId"`
	Service         Service   `json:"service"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Notes           string    `json:"notes,omitempty"`
}

// AppointmentBarber is the embedded barber summary on an appointment record.
type AppointmentBarber struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	ShopName string `json:"shopName,omitempty"`
}

// Appointment is a booked appointment as returned by GET /appointments/user.
type Appointment struct {
	ID              string            `json:"_id"`
	Barber          AppointmentBarber `json:"barber"`
	Service         Service           `json:"service"`
	AppointmentDate time.Time         `json:"appointmentDate"`
	Status          string            `json:"status"`
	Notes           string            `json:"notes,omitempty"`
}

// User is the authenticated account profile.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	LoyaltyPoints int    `json:"loyaltyPoints"`
	LoyaltyLevel  string `json:"loyaltyLevel,omitempty"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// ChatParticipants names the two sides of a chat thread.
type ChatParticipants struct {
	User   *ChatUser   `json:"user,omitempty"`
	Barber *ChatBarber `json:"barber,omitempty"`
}

// ChatUser is the user side of a chat thread.
type ChatUser struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ChatBarber is the barber side of a chat thread.
type ChatBarber struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	ShopName string `json:"shopName,omitempty"`
}

// ChatPreview is the last-message summary shown on the chat list.
type ChatPreview struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is a chat thread between the user and a barber.
type Chat struct {
	ID           string           `json:"_id"`
	Participants ChatParticipants `json:"participants"`
	LastMessage  *ChatPreview     `json:"lastMessage,omitempty"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Messages     []Message        `json:"messages,omitempty"`
}

// Message is a single chat message. SenderType is "user", "barber" or "admin".
type Message struct {
	Sender     string    `json:"sender"`
	SenderType string    `json:"senderType"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
