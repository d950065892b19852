package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"parkslot/internal/entities"
	apperrors "parkslot/internal/errors"
	"parkslot/internal/lock"
	"parkslot/internal/metrics"
	"parkslot/internal/repository"
	"parkslot/internal/utils"
)

// The file and postgres stores rewrite every category on save, so bookings
// serialize on the whole ledger rather than on a single category.
const ledgerLockKey = "ledger"

type ParkingService struct {
	Repo     repository.LedgerRepository
	Locker   lock.Locker
	Notifier Notifier

	now         func() time.Time
	loc         *time.Location
	holdTimeout time.Duration
}

type Option func(*ParkingService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ParkingService) { s.now = now }
}

// WithLocation sets the zone the night window is read in.
func WithLocation(loc *time.Location) Option {
	return func(s *ParkingService) { s.loc = loc }
}

// WithLockHoldTimeout bounds the load-check-save section once the ledger lock is held.
// Keep it below the lock TTL so an expired lease cannot overlap a store call still in flight.
func WithLockHoldTimeout(d time.Duration) Option {
	return func(s *ParkingService) { s.holdTimeout = d }
}

func WithNotifier(n Notifier) Option {
	return func(s *ParkingService) { s.Notifier = n }
}

func NewParkingService(repo repository.LedgerRepository, locker lock.Locker, opts ...Option) *ParkingService {
	s := &ParkingService{
		Repo:   repo,
		Locker: locker,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ParkingService) currentTime() time.Time {
	return s.now().In(s.loc)
}

// Status returns the current ledger without modifying it.
func (s *ParkingService) Status(ctx context.Context) (entities.Ledger, error) {
	return s.load(ctx)
}

func (s *ParkingService) Occupancy(ctx context.Context) ([]entities.Occupancy, error) {
	ledger, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Occupancy(), nil
}

// Book commits every requested slot or none of them. The ledger lock is held
// from load to save, so two callers cannot both see a slot as free.
func (s *ParkingService) Book(ctx context.Context, req entities.BookingRequest) (*entities.BookingResult, error) {
	start := time.Now()
	category, ok := entities.ParseCategory(req.CategoryName())
	slots := utils.CleanSlotIDs(req.Slots)

	result, err := s.book(ctx, category, ok, slots)
	observeBooking(string(category), len(slots), start, err)
	if err != nil {
		return nil, err
	}

	log.Printf("Booking %s: %s %v, base %s, grand total %s", result.BookingID, category, slots,
		entities.FormatAmount(result.Pricing.BaseAmount), entities.FormatAmount(result.Pricing.GrandTotal))

	receipt := entities.BookingReceipt{
		BookingID: result.BookingID,
		Category:  category,
		Slots:     slots,
		Pricing:   *result.Pricing,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if s.Notifier != nil && receipt.HasContact() {
		s.Notifier.NotifyBooking(receipt)
	}
	return result, nil
}

func (s *ParkingService) book(ctx context.Context, category entities.Category, known bool, slots []string) (*entities.BookingResult, error) {
	if !known {
		return nil, fmt.Errorf("%w: unknown category", apperrors.ErrInvalidRequest)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no slots requested", apperrors.ErrInvalidRequest)
	}
	if dup, ok := utils.FirstDuplicate(slots); ok {
		return nil, fmt.Errorf("%w: slot %s requested twice", apperrors.ErrInvalidRequest, dup)
	}

	unlock, err := s.Locker.Lock(ctx, ledgerLockKey)
	if err != nil {
		return nil, fmt.Errorf("acquiring ledger lock: %w", err)
	}
	defer unlock()
	if s.holdTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.holdTimeout)
		defer cancel()
	}

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	state := ledger[category]
	for _, slot := range slots {
		if !state.HasSlot(slot) {
			return nil, fmt.Errorf("%w: %s is not a %s slot", apperrors.ErrInvalidRequest, slot, category)
		}
	}
	for _, slot := range slots {
		if state.IsBooked(slot) {
			return nil, &apperrors.SlotConflictError{Category: string(category), Slot: slot}
		}
	}

	state.Booked = append(state.Booked, slots...)
	if err := s.save(ctx, ledger); err != nil {
		return nil, err
	}
	metrics.SetOccupancy(ledger.Occupancy())

	pricing := TotalFees(float64(len(slots)*state.Price), s.currentTime().Hour())
	return &entities.BookingResult{
		Success:     true,
		Message:     fmt.Sprintf("Successfully booked %d slots", len(slots)),
		BookingID:   uuid.NewString(),
		BookedSlots: slots,
		Pricing:     &pricing,
	}, nil
}

// CalculateFees previews pricing for a base amount at the current hour.
func (s *ParkingService) CalculateFees(baseAmount float64) entities.FeeBreakdown {
	fees := TotalFees(baseAmount, s.currentTime().Hour())
	metrics.ObserveFeePreview(fees.IsNightTime)
	return fees
}

func (s *ParkingService) TimeInfo() entities.TimeInfo {
	now := s.currentTime()
	night := IsNightWindow(now.Hour())
	return entities.TimeInfo{
		CurrentHour:           now.Hour(),
		CurrentTime:           now.Format("15:04"),
		IsNightTime:           night,
		NightSurchargeApplies: night,
	}
}

func (s *ParkingService) load(ctx context.Context) (entities.Ledger, error) {
	start := time.Now()
	ledger, err := s.Repo.Load(ctx)
	metrics.ObserveStore("load", start, err)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	return ledger, nil
}

func (s *ParkingService) save(ctx context.Context, ledger entities.Ledger) error {
	start := time.Now()
	err := s.Repo.Save(ctx, ledger)
	metrics.ObserveStore("save", start, err)
	if err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}

func observeBooking(category string, slots int, start time.Time, err error) {
	result := metrics.ResultSuccess
	switch apperrors.HTTPStatus(err) {
	case http.StatusOK:
	case http.StatusBadRequest:
		result = metrics.ResultInvalid
	case http.StatusConflict:
		result = metrics.ResultConflict
	default:
		result = metrics.ResultError
	}
	metrics.ObserveBooking(category, result, slots, start)
}
