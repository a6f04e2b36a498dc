package service

import (
	"context"
	"strings"
	"time"

	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DirectoryService manages the congregation roster, contributions and
// attendance. These records live locally only and never enter the sync loop.
type DirectoryService struct {
	store  domain.DirectoryStore
	logger *zerolog.Logger
}

func NewDirectoryService(store domain.DirectoryStore, logger *zerolog.Logger) *DirectoryService {
	return &DirectoryService{store: store, logger: logger}
}

func (s *DirectoryService) GetAllMembers(ctx context.Context) ([]models.Member, error) {
	return s.store.GetAllMembers(ctx)
}

func (s *DirectoryService) GetMember(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, &domain.NotFoundError{Kind: "member", ID: id}
	}
	return member, nil
}

func (s *DirectoryService) SaveMember(ctx context.Context, member models.Member) (*models.Member, error) {
	member.FirstName = strings.TrimSpace(member.FirstName)
	member.LastName = strings.TrimSpace(member.LastName)
	if member.FirstName == "" && member.LastName == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if member.JoinedAt != "" {
		if _, err := time.Parse(models.DateLayout, member.JoinedAt); err != nil {
			return nil, &domain.ValidationError{Field: "joined_at", Reason: "must be YYYY-MM-DD"}
		}
	}

	switch member.Membership {
	case models.MembershipActive, models.MembershipInactive, models.MembershipVisitor:
	case "":
		member.Membership = models.MembershipActive
	default:
		return nil, &domain.ValidationError{Field: "membership", Reason: "unknown membership"}
	}

	now := time.Now().UTC()
	if member.ID == "" {
		member.ID = uuid.NewString()
		member.CreatedAt = now
	} else {
		existing, err := s.store.GetMember(ctx, member.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			member.CreatedAt = existing.CreatedAt
		} else {
			member.CreatedAt = now
		}
	}
	member.UpdatedAt = now

	if err := s.store.SaveMember(ctx, member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *DirectoryService) DeleteMember(ctx context.Context, id string) error {
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return err
	}
	if member == nil {
		return &domain.NotFoundError{Kind: "member", ID: id}
	}
	return s.store.DeleteMember(ctx, id)
}

// GetContributions returns gifts inside the optional [from, to] date range.
func (s *DirectoryService) GetContributions(ctx context.Context, from, to string) ([]models.Contribution, error) {
	if err := validateDateRange(from, to); err != nil {
		return nil, err
	}
	return s.store.GetContributions(ctx, from, to)
}

func (s *DirectoryService) RecordContribution(ctx context.Context, c models.Contribution) (*models.Contribution, error) {
	if c.AmountCents <= 0 {
		return nil, &domain.ValidationError{Field: "amount_cents", Reason: "must be positive"}
	}
	if c.Date == "" {
		c.Date = time.Now().UTC().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, c.Date); err != nil {
		return nil, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if c.Fund == "" {
		c.Fund = models.FundGeneral
	} else if !models.ValidFund(c.Fund) {
		return nil, &domain.ValidationError{Field: "fund", Reason: "unknown fund"}
	}

	switch c.Method {
	case models.MethodCash, models.MethodCheck, models.MethodCard, models.MethodOnline:
	case "":
		c.Method = models.MethodCash
	default:
		return nil, &domain.ValidationError{Field: "method", Reason: "unknown method"}
	}

	if c.MemberID != "" {
		member, err := s.store.GetMember(ctx, c.MemberID)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, &domain.NotFoundError{Kind: "member", ID: c.MemberID}
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	if err := s.store.SaveContribution(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *DirectoryService) DeleteContribution(ctx context.Context, id string) error {
	return s.store.DeleteContribution(ctx, id)
}

// ContributionSummary totals gifts per fund inside the optional date range.
func (s *DirectoryService) ContributionSummary(ctx context.Context, from, to string) (map[string]int64, error) {
	contributions, err := s.GetContributions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64)
	for _, c := range contributions {
		totals[c.Fund] += c.AmountCents
	}
	return totals, nil
}

func (s *DirectoryService) GetAttendance(ctx context.Context, from, to string) ([]models.AttendanceRecord, error) {
	if err := validateDateRange(from, to); err != nil {
		return nil, err
	}
	return s.store.GetAttendance(ctx, from, to)
}

func (s *DirectoryService) RecordAttendance(ctx context.Context, rec models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if rec.ServiceDate == "" {
		return nil, &domain.ValidationError{Field: "service_date", Reason: "must not be empty"}
	}
	if _, err := time.Parse(models.DateLayout, rec.ServiceDate); err != nil {
		return nil, &domain.ValidationError{Field: "service_date", Reason: "must be YYYY-MM-DD"}
	}
	if rec.ServiceType == "" {
		rec.ServiceType = models.ServiceSundayMorning
	} else if !models.ValidServiceType(rec.ServiceType) {
		return nil, &domain.ValidationError{Field: "service_type", Reason: "unknown service type"}
	}
	if rec.Adults < 0 || rec.Children < 0 || rec.Visitors < 0 {
		return nil, &domain.ValidationError{Field: "counts", Reason: "must not be negative"}
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if err := s.store.SaveAttendance(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func validateDateRange(from, to string) error {
	if from != "" {
		if _, err := time.Parse(models.DateLayout, from); err != nil {
			return &domain.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD"}
		}
	}
	if to != "" {
		if _, err := time.Parse(models.DateLayout, to); err != nil {
			return &domain.ValidationError{Field: "to", Reason: "must be YYYY-MM-DD"}
		}
	}
	return nil
}
