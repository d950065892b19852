package entities

type BookingRequest struct {
	Category string   `json:"category"`
	Type     string   `json:"type"` // name sent by the web client
	Slots    []string `json:"slots"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
}

// CategoryName prefers "category" and falls back to "type".
func (r BookingRequest) CategoryName() string {
	if r.Category != "" {
		return r.Category
	}
	return r.Type
}

type BookingResult struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	BookingID   string        `json:"booking_id,omitempty"`
	BookedSlots []string      `json:"booked_slots,omitempty"`
	Pricing     *FeeBreakdown `json:"pricing,omitempty"`
}

// BookingReceipt is what the notifier sends to the customer.
type BookingReceipt struct {
	BookingID string
	Category  Category
	Slots     []string
	Pricing   FeeBreakdown
	Name      string
	Email     string
	Phone     string
}

func (r BookingReceipt) HasContact() bool {
	return r.Email != "" || r.Phone != ""
}
