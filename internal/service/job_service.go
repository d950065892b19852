package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"parkslot/internal/metrics"
)

const occupancyReportTimeout = 30 * time.Second

type JobService struct {
	Parking *ParkingService
}

func NewJobService(parking *ParkingService) *JobService {
	return &JobService{Parking: parking}
}

// ReportOccupancy logs per-category occupancy and refreshes the occupancy gauges.
func (s *JobService) ReportOccupancy(ctx context.Context) error {
	occupancy, err := s.Parking.Occupancy(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to load occupancy: %w", err)
	}
	for _, o := range occupancy {
		log.Printf("Cron Job: %s occupancy %d/%d booked, %d free", o.Category, o.Booked, o.Total, o.Available)
	}
	metrics.SetOccupancy(occupancy)
	return nil
}

// Schedule registers ReportOccupancy on a new cron scheduler. The caller starts
// and stops it. An empty spec yields nil.
func (s *JobService) Schedule(spec string, loc *time.Location) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), occupancyReportTimeout)
		defer cancel()
		if err := s.ReportOccupancy(ctx); err != nil {
			log.Printf("Cron Job: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid occupancy report schedule %q: %w", spec, err)
	}
	return c, nil
}
