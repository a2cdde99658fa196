package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

type holidayRepository interface {
	List(ctx context.Context) ([]models.PublicHoliday, error)
	Create(ctx context.Context, holiday *models.PublicHoliday) error
	Delete(ctx context.Context, id string) error
}

// HolidayService maintains the public holiday calendar used to skip expansion.
type HolidayService struct {
	repo      holidayRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewHolidayService constructs a HolidayService.
func NewHolidayService(repo holidayRepository, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns holidays in the inclusive range, ordered by date.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, error) {
	holidays, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "holidays not found", "failed to list holidays")
	}
	out := make([]models.PublicHoliday, 0, len(holidays))
	for _, h := range holidays {
		if filter.From != "" && h.Date < filter.From {
			continue
		}
		if filter.To != "" && h.Date > filter.To {
			continue
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Create adds a holiday. A date carries at most one holiday.
func (s *HolidayService) Create(ctx context.Context, req models.CreateHolidayRequest) (*models.PublicHoliday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid holiday payload")
	}
	existing, err := s.List(ctx, models.HolidayFilter{From: req.Date, To: req.Date})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a holiday already exists on "+req.Date)
	}
	holiday := &models.PublicHoliday{
		Name:      strings.TrimSpace(req.Name),
		Date:      req.Date,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Persistence(err, "failed to create holiday")
	}
	return holiday, nil
}

// Delete removes a holiday. Classes skipped while it existed are not backfilled.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "holiday not found", "failed to delete holiday")
	}
	return nil
}

// DatesBetween maps each holiday date in the range to its name.
func (s *HolidayService) DatesBetween(ctx context.Context, from, to string) (map[string]string, error) {
	holidays, err := s.List(ctx, models.HolidayFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	dates := make(map[string]string, len(holidays))
	for _, h := range holidays {
		dates[h.Date] = h.Name
	}
	return dates, nil
}

// IsHoliday reports whether date is a public holiday.
func (s *HolidayService) IsHoliday(ctx context.Context, date string) (bool, error) {
	dates, err := s.DatesBetween(ctx, date, date)
	if err != nil {
		return false, err
	}
	_, ok := dates[date]
	return ok, nil
}
