package db

// CategoryRow is one row of parking_categories.
type CategoryRow struct {
	Name     string
	Position int
	Price    int
	Slots    []string
	Booked   []string
}
