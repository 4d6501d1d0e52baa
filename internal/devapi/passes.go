package devapi

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/domain"
	"github.com/movement-pass/passctl/pkg/util"
)

// applyRequest mirrors the pass application payload.
type applyRequest struct {
	FromLocation    string `json:"fromLocation"`
	ToLocation      string `json:"toLocation"`
	District        int    `json:"district"`
	Thana           int    `json:"thana"`
	DateTime        string `json:"dateTime"`
	DurationInHour  int    `json:"durationInHour"`
	Type            string `json:"type"`
	Reason          string `json:"reason"`
	IncludeVehicle  bool   `json:"includeVehicle"`
	SelfDriven      bool   `json:"selfDriven"`
	VehicleNo       string `json:"vehicleNo"`
	DriverName      string `json:"driverName"`
	DriverLicenseNo string `json:"driverLicenseNo"`
}

// PassService creates and reads movement passes for the dev server.
type PassService struct {
	passes     PassStore
	applicants ApplicantStore
	pageSize   int
	logger     *zap.Logger
}

// NewPassService wires a PassService.
func NewPassService(passes PassStore, applicants ApplicantStore, pageSize int, logger *zap.Logger) *PassService {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &PassService{passes: passes, applicants: applicants, pageSize: pageSize, logger: logger}
}

// Apply creates a pass for the given applicant and returns its id.
func (s *PassService) Apply(ctx context.Context, applicantID string, req applyRequest) (string, error) {
	if req.FromLocation == "" || req.ToLocation == "" || req.Reason == "" {
		return "", util.NewValidationError("From location, to location and reason are required")
	}

	startAt, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		return "", util.NewValidationError("Date time must be a valid timestamp")
	}
	if req.DurationInHour <= 0 {
		return "", util.NewValidationError("Duration must be a positive number of hours")
	}

	applicant, err := s.applicants.GetByID(ctx, applicantID)
	if err != nil {
		if errors.Is(err, ErrNoSuchRecord) {
			return "", util.NewUnauthorized()
		}
		return "", util.NewInternalError(err)
	}

	pass := &domain.Pass{
		ID: uuid.NewString(),
		Applicant: domain.Applicant{
			ID:            applicant.ID,
			Name:          applicant.Name,
			Photo:         applicant.Photo,
			IDNumber:      applicant.IDNumber,
			IDType:        applicant.IDType,
			District:      applicant.District,
			Thana:         applicant.Thana,
			DateOfBirth:   applicant.DateOfBirth,
			ApprovedCount: applicant.ApprovedCount,
		},
		FromLocation:    req.FromLocation,
		ToLocation:      req.ToLocation,
		District:        req.District,
		Thana:           req.Thana,
		StartAt:         startAt,
		EndAt:           startAt.Add(time.Duration(req.DurationInHour) * time.Hour),
		Type:            domain.PassType(req.Type),
		Status:          domain.PassStatusApplied,
		Reason:          req.Reason,
		IncludeVehicle:  req.IncludeVehicle,
		SelfDriven:      req.SelfDriven,
		VehicleNo:       req.VehicleNo,
		DriverName:      req.DriverName,
		DriverLicenseNo: req.DriverLicenseNo,
	}

	if err := s.passes.Create(ctx, pass); err != nil {
		return "", util.NewInternalError(err)
	}

	s.logger.Info("pass applied",
		zap.String("pass_id", pass.ID),
		zap.String("applicant_id", applicant.ID))
	return pass.ID, nil
}

// List returns one page of the applicant's passes.
func (s *PassService) List(ctx context.Context, applicantID string, key *domain.PageKey) (*domain.PassPage, error) {
	page, err := s.passes.ListByApplicant(ctx, applicantID, key, s.pageSize)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return page, nil
}

// Get returns one pass. Passes belonging to other applicants read as
// missing.
func (s *PassService) Get(ctx context.Context, applicantID, passID string) (*domain.Pass, error) {
	pass, err := s.passes.GetByID(ctx, passID)
	if err != nil {
		if errors.Is(err, ErrNoSuchRecord) {
			return nil, util.NewNotFound()
		}
		return nil, util.NewInternalError(err)
	}
	if pass.Applicant.ID != applicantID {
		return nil, util.NewNotFound()
	}
	return pass, nil
}
