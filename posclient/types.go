package posclient

type Table struct {
	ID          uint   `json:"id"`
	TableNumber int    `json:"table_number"`
	TableCode   string `json:"table_code"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
}

// TableValidation -> hasil validasi kode meja di kiosk
type TableValidation struct {
	TableCode string
	Valid     bool
	Offline   bool
	Table     *Table
}

// RefillItem -> satu item refill, quantity 0 diabaikan server
type RefillItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type RefillRequestInput struct {
	TableCode  string       `json:"table_code"`
	CustomerID *uint        `json:"customer_id,omitempty"`
	Items      []RefillItem `json:"items"`
	Notes      *string      `json:"notes,omitempty"`
}

type RefillRequest struct {
	ID          uint    `json:"id"`
	TableCode   string  `json:"table_code"`
	TableID     uint    `json:"table_id"`
	Status      string  `json:"status"`
	RequestType string  `json:"request_type"`
	Notes       *string `json:"notes"`
}

type Countdown struct {
	TableCode        string `json:"table_code"`
	Status           string `json:"status"`
	DeadlineMs       int64  `json:"deadline_ms"`
	DurationSeconds  int64  `json:"duration_seconds"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Display          string `json:"display"`
	LastRefillID     *uint  `json:"last_refill_id"`
	Source           string `json:"source"`
	Resumed          bool   `json:"resumed"`
}

type posTimer struct {
	RemainingSec *int64 `json:"remainingSec"`
	DurationSec  *int64 `json:"durationSec"`
}

type ReservationInput struct {
	CustomerName    string  `json:"customer_name"`
	Phone           string  `json:"phone"`
	Email           *string `json:"email,omitempty"`
	TableID         string  `json:"table_id"`
	Occasion        *string `json:"occasion,omitempty"`
	NumberOfGuests  int     `json:"number_of_guests"`
	ReservationDate string  `json:"reservation_date"`
	ReservationTime string  `json:"reservation_time"`
	Notes           *string `json:"notes,omitempty"`
}

type ReservationCreated struct {
	ID              uint   `json:"id"`
	ReservationCode string `json:"reservation_code"`
}
