package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkslot/internal/entities"
	apperrors "parkslot/internal/errors"
	"parkslot/internal/lock"
	"parkslot/internal/repository"
)

func clockAt(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.October, 15, hour, minute, 0, 0, time.UTC)
	}
}

func newTestService(t *testing.T, hour int, opts ...Option) (*ParkingService, *repository.MemoryLedgerRepository) {
	t.Helper()
	repo := repository.NewMemoryLedgerRepository()
	opts = append([]Option{WithClock(clockAt(hour, 0)), WithLocation(time.UTC)}, opts...)
	return NewParkingService(repo, lock.NewMemoryLocker(), opts...), repo
}

type recordingNotifier struct {
	mu       sync.Mutex
	receipts []entities.BookingReceipt
}

func (n *recordingNotifier) NotifyBooking(r entities.BookingReceipt) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, r)
}

type failingRepo struct {
	loadErr error
	saveErr error
}

func (r failingRepo) Load(ctx context.Context) (entities.Ledger, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return entities.NewLedger(), nil
}

func (r failingRepo) Save(ctx context.Context, _ entities.Ledger) error {
	return r.saveErr
}

func TestBook_DaytimeVIP(t *testing.T) {
	svc, _ := newTestService(t, 14)

	res, err := svc.Book(context.Background(), entities.BookingRequest{Type: "vip", Slots: []string{"V1", "V2"}})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Successfully booked 2 slots", res.Message)
	assert.Equal(t, []string{"V1", "V2"}, res.BookedSlots)
	assert.NotEmpty(t, res.BookingID)
	assert.Equal(t, &entities.FeeBreakdown{
		BaseAmount:     1000,
		PlatformFee:    18,
		NightSurcharge: 0,
		TotalFees:      18,
		GrandTotal:     1018,
	}, res.Pricing)
}

func TestBook_NightSurcharge(t *testing.T) {
	svc, _ := newTestService(t, 2)

	res, err := svc.Book(context.Background(), entities.BookingRequest{Category: "vip", Slots: []string{"V1"}})
	require.NoError(t, err)

	assert.Equal(t, 500.0, res.Pricing.BaseAmount)
	assert.Equal(t, 12.0, res.Pricing.NightSurcharge)
	assert.Equal(t, 530.0, res.Pricing.GrandTotal)
	assert.True(t, res.Pricing.IsNightTime)
}

func TestBook_NightWindowUsesConfiguredLocation(t *testing.T) {
	// 21:00 UTC is 02:30 in Asia/Kolkata.
	kolkata := time.FixedZone("IST", 5*3600+1800)
	svc, _ := newTestService(t, 21, WithLocation(kolkata))

	info := svc.TimeInfo()
	assert.Equal(t, 2, info.CurrentHour)
	assert.Equal(t, "02:30", info.CurrentTime)
	assert.True(t, info.NightSurchargeApplies)
}

func TestBook_SecondBookingConflicts(t *testing.T) {
	svc, repo := newTestService(t, 10)
	ctx := context.Background()

	_, err := svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V1"}})
	require.NoError(t, err)
	before, err := repo.Load(ctx)
	require.NoError(t, err)
	saves := repo.Saves()

	_, err = svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V2", "V1", "V3"}})
	var conflict *apperrors.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "V1", conflict.Slot)
	assert.Equal(t, "vip", conflict.Category)

	after, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rejected booking must not touch the ledger")
	assert.Equal(t, saves, repo.Saves())
}

func TestBook_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  entities.BookingRequest
	}{
		{"unknown category", entities.BookingRequest{Type: "unknown", Slots: []string{"X1"}}},
		{"empty category", entities.BookingRequest{Slots: []string{"V1"}}},
		{"no slots", entities.BookingRequest{Type: "vip"}},
		{"blank slots", entities.BookingRequest{Type: "vip", Slots: []string{" ", ""}}},
		{"slot of another category", entities.BookingRequest{Type: "vip", Slots: []string{"N1"}}},
		{"repeated slot", entities.BookingRequest{Type: "normal", Slots: []string{"N1", "N1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t, 10)
			_, err := svc.Book(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

			ledger, err := repo.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, entities.NewLedger(), ledger)
		})
	}
}

func TestBook_OnlyTargetCategoryChanges(t *testing.T) {
	svc, _ := newTestService(t, 10)
	ctx := context.Background()

	before, err := svc.Status(ctx)
	require.NoError(t, err)

	_, err = svc.Book(ctx, entities.BookingRequest{Type: "Executive", Slots: []string{"E0305", "E0101"}})
	require.NoError(t, err)

	after, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E0305", "E0101"}, after[entities.CategoryExecutive].Booked)
	assert.Equal(t, before[entities.CategoryVIP], after[entities.CategoryVIP])
	assert.Equal(t, before[entities.CategoryNormal], after[entities.CategoryNormal])
	require.NoError(t, after.Validate())
}

func TestStatus_Idempotent(t *testing.T) {
	svc, _ := newTestService(t, 10)
	ctx := context.Background()
	_, err := svc.Book(ctx, entities.BookingRequest{Type: "normal", Slots: []string{"N4"}})
	require.NoError(t, err)

	first, err := svc.Status(ctx)
	require.NoError(t, err)
	second, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	svc, repo := newTestService(t, 10)
	ctx := context.Background()

	const callers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, entities.BookingRequest{Type: "normal", Slots: []string{"N7"}})
			mu.Lock()
			defer mu.Unlock()
			var conflict *apperrors.SlotConflictError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &conflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	ledger, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"N7"}, ledger[entities.CategoryNormal].Booked)
}

func TestBook_ConcurrentDifferentCategoriesKeepBoth(t *testing.T) {
	svc, repo := newTestService(t, 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, req := range []entities.BookingRequest{
		{Type: "vip", Slots: []string{"V5"}},
		{Type: "normal", Slots: []string{"N5"}},
		{Type: "executive", Slots: []string{"E0505"}},
	} {
		wg.Add(1)
		go func(req entities.BookingRequest) {
			defer wg.Done()
			_, err := svc.Book(ctx, req)
			assert.NoError(t, err)
		}(req)
	}
	wg.Wait()

	ledger, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"V5"}, ledger[entities.CategoryVIP].Booked)
	assert.Equal(t, []string{"N5"}, ledger[entities.CategoryNormal].Booked)
	assert.Equal(t, []string{"E0505"}, ledger[entities.CategoryExecutive].Booked)
}

func TestBook_StorageErrors(t *testing.T) {
	ctx := context.Background()
	storageErr := errors.New("disk unplugged")

	svc := NewParkingService(failingRepo{loadErr: storageErr}, lock.NewMemoryLocker())
	_, err := svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V1"}})
	assert.ErrorIs(t, err, storageErr)

	svc = NewParkingService(failingRepo{saveErr: storageErr}, lock.NewMemoryLocker())
	_, err = svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V1"}})
	assert.ErrorIs(t, err, storageErr)

	_, err = svc.Status(ctx)
	assert.NoError(t, err)
}

func TestBook_LockTimeout(t *testing.T) {
	locker := lock.NewMemoryLocker()
	svc := NewParkingService(repository.NewMemoryLedgerRepository(), locker)

	unlock, err := locker.Lock(context.Background(), ledgerLockKey)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V1"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// stallingRepo blocks Save until the caller's context ends.
type stallingRepo struct {
	*repository.MemoryLedgerRepository
}

func (r stallingRepo) Save(ctx context.Context, _ entities.Ledger) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestBook_HoldTimeoutAbortsStalledSave(t *testing.T) {
	repo := stallingRepo{repository.NewMemoryLedgerRepository()}
	svc := NewParkingService(repo, lock.NewMemoryLocker(), WithLockHoldTimeout(30*time.Millisecond))

	start := time.Now()
	_, err := svc.Book(context.Background(), entities.BookingRequest{Type: "vip", Slots: []string{"V1"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
	assert.Less(t, time.Since(start), 2*time.Second)

	ledger, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ledger[entities.CategoryVIP].Booked)
}

func TestBook_NotifiesOnlyWithContact(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, 10, WithNotifier(notifier))
	ctx := context.Background()

	_, err := svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V1"}})
	require.NoError(t, err)
	res, err := svc.Book(ctx, entities.BookingRequest{
		Type:  "vip",
		Slots: []string{"V2"},
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)
	_, err = svc.Book(ctx, entities.BookingRequest{Type: "vip", Slots: []string{"V2"}, Email: "ada@example.com"})
	require.Error(t, err)

	require.Len(t, notifier.receipts, 1)
	receipt := notifier.receipts[0]
	assert.Equal(t, res.BookingID, receipt.BookingID)
	assert.Equal(t, entities.CategoryVIP, receipt.Category)
	assert.Equal(t, []string{"V2"}, receipt.Slots)
	assert.Equal(t, 518.0, receipt.Pricing.GrandTotal)
}

func TestCalculateFees(t *testing.T) {
	day, _ := newTestService(t, 9)
	assert.Equal(t, 268.0, day.CalculateFees(250).GrandTotal)
	assert.Equal(t, 117.5, day.CalculateFees(99.5).GrandTotal)

	night, _ := newTestService(t, 4)
	fees := night.CalculateFees(250)
	assert.Equal(t, 280.0, fees.GrandTotal)
	assert.True(t, fees.IsNightTime)
}

func TestTimeInfo(t *testing.T) {
	svc := NewParkingService(repository.NewMemoryLedgerRepository(), lock.NewMemoryLocker(),
		WithClock(clockAt(5, 7)), WithLocation(time.UTC))

	assert.Equal(t, entities.TimeInfo{
		CurrentHour:           5,
		CurrentTime:           "05:07",
		IsNightTime:           false,
		NightSurchargeApplies: false,
	}, svc.TimeInfo())
}

func TestOccupancy(t *testing.T) {
	svc, _ := newTestService(t, 10)
	ctx := context.Background()
	_, err := svc.Book(ctx, entities.BookingRequest{Type: "normal", Slots: []string{"N1", "N2", "N3"}})
	require.NoError(t, err)

	occ, err := svc.Occupancy(ctx)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, entities.CategoryNormal, occ[2].Category)
	assert.Equal(t, 3, occ[2].Booked)
	assert.Equal(t, 8, occ[2].Available)
}
