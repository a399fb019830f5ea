package domain

import "time"

type Hotel struct {
	ID            int64
	Name          string
	Description   string
	Address       string
	City          string
	Stars         int // 1..5
	PricePerNight Cents
}

type Review struct {
	ID        int64
	HotelID   int64
	UserID    int64
	Content   string // >= 10 chars
	Rating    int    // 1..5
	CreatedAt time.Time
}

type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Subject   string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
