package domain

// Reservation is a row of the relational customers/reservations join.
// It is read-only.
type Reservation struct {
	ID           int    `json:"id"`
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	RoomNo       int    `json:"roomNo"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	Guests       int    `json:"guests"`
}
