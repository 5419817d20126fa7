package app

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/school"
	idb "coach_digital_bot/internal/infra/database"
)

const DefaultSearchLimit = 50

type SchoolService struct {
	schoolRepo school.Repository
	validator  *Validator
	limit      int
	logger     *logrus.Entry
}

func NewSchoolService(sr school.Repository, v *Validator, limit int, logger *logrus.Entry) *SchoolService {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &SchoolService{
		schoolRepo: sr,
		validator:  v,
		limit:      limit,
		logger:     logger.WithField("service", "school"),
	}
}

// FindSchoolItems searches by free text. An empty query lists the first schools by name.
func (s *SchoolService) FindSchoolItems(ctx context.Context, query string) ([]school.Item, error) {
	query = strings.TrimSpace(query)
	items, err := s.schoolRepo.FindItems(ctx, query, s.limit)
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Error("School search failed")
		return nil, unavailable("school.findSchoolItems", err)
	}
	s.logger.WithFields(logrus.Fields{"query": query, "results": len(items)}).Debug("School search")
	return items, nil
}

func (s *SchoolService) GetByID(ctx context.Context, id string) (*school.School, error) {
	sch, err := s.schoolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, idb.ErrSchoolNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, unavailable("school.get", err)
	}
	return sch, nil
}

// ParseScan turns QR text into a school or a *school.MalformedPayloadError.
func (s *SchoolService) ParseScan(raw string) (*school.School, error) {
	p, err := school.DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(p); err != nil {
		return nil, &school.MalformedPayloadError{Reason: "missing or invalid fields", Err: err}
	}
	return p.School(), nil
}

// RegisterScanned stores a school learnt from a QR code so later searches find it.
func (s *SchoolService) RegisterScanned(ctx context.Context, sch *school.School) error {
	if err := s.schoolRepo.Upsert(ctx, sch); err != nil {
		s.logger.WithError(err).WithField("school_id", sch.ID).Error("Failed to store scanned school")
		return unavailable("school.upsert", err)
	}
	return nil
}
