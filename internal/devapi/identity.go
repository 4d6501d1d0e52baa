package devapi

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/movement-pass/passctl/internal/domain"
	"github.com/movement-pass/passctl/pkg/util"
)

// loginDOBLayout is the ddmmyyyy digit form used as the login verifier.
const loginDOBLayout = "02012006"

// registerDOBLayout is the date form registration sends.
const registerDOBLayout = "2006-01-02"

// IdentityService registers applicants and exchanges credentials for
// session tokens.
type IdentityService struct {
	applicants ApplicantStore
	tokens     *TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewIdentityService wires an IdentityService.
func NewIdentityService(applicants ApplicantStore, tokens *TokenManager, bcryptCost int, logger *zap.Logger) *IdentityService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &IdentityService{
		applicants: applicants,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// registerRequest mirrors the registration payload.
type registerRequest struct {
	Name        string `json:"name"`
	MobilePhone string `json:"mobilePhone"`
	District    int    `json:"district"`
	Thana       int    `json:"thana"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	IDType      string `json:"idType"`
	IDNumber    string `json:"idNumber"`
	Photo       string `json:"photo"`
}

// loginRequest mirrors the login payload.
type loginRequest struct {
	MobilePhone string `json:"mobilePhone"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Register creates an account and returns a session token. The date of
// birth arrives as YYYY-MM-DD and is stored hashed in its ddmmyyyy digit
// form so login can verify directly against what the login form sends.
func (s *IdentityService) Register(ctx context.Context, req registerRequest) (string, error) {
	if req.Name == "" || req.MobilePhone == "" || req.DateOfBirth == "" {
		return "", util.NewValidationError("Name, mobile phone and date of birth are required")
	}

	dob, err := time.Parse(registerDOBLayout, req.DateOfBirth)
	if err != nil {
		return "", util.NewValidationError("Date of birth must be a valid date")
	}

	if _, err := s.applicants.GetByMobilePhone(ctx, req.MobilePhone); err == nil {
		return "", util.NewValidationError("Mobile phone already registered")
	} else if !errors.Is(err, ErrNoSuchRecord) {
		return "", util.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dob.Format(loginDOBLayout)), s.bcryptCost)
	if err != nil {
		return "", util.NewInternalError(err)
	}

	applicant := &Applicant{
		ID:              uuid.NewString(),
		Name:            req.Name,
		MobilePhone:     req.MobilePhone,
		District:        req.District,
		Thana:           req.Thana,
		Gender:          domain.Gender(req.Gender),
		IDType:          domain.IDType(req.IDType),
		IDNumber:        req.IDNumber,
		Photo:           req.Photo,
		DateOfBirth:     dob,
		DateOfBirthHash: string(hash),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.applicants.Create(ctx, applicant); err != nil {
		return "", util.NewValidationError("Mobile phone already registered")
	}

	s.logger.Info("applicant registered",
		zap.String("applicant_id", applicant.ID),
		zap.String("mobile_phone", applicant.MobilePhone))

	token, err := s.tokens.Generate(applicant.ID, applicant.Name, applicant.Photo)
	if err != nil {
		return "", util.NewInternalError(err)
	}
	return token, nil
}

// Login verifies mobile phone and date of birth and returns a session
// token. Both unknown accounts and mismatched dates yield the same error.
func (s *IdentityService) Login(ctx context.Context, req loginRequest) (string, error) {
	invalid := util.NewValidationError("Invalid mobile phone or date of birth")

	if req.MobilePhone == "" || req.DateOfBirth == "" {
		return "", invalid
	}

	applicant, err := s.applicants.GetByMobilePhone(ctx, req.MobilePhone)
	if err != nil {
		if errors.Is(err, ErrNoSuchRecord) {
			return "", invalid
		}
		return "", util.NewInternalError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(applicant.DateOfBirthHash), []byte(req.DateOfBirth)) != nil {
		return "", invalid
	}

	token, err := s.tokens.Generate(applicant.ID, applicant.Name, applicant.Photo)
	if err != nil {
		return "", util.NewInternalError(err)
	}
	return token, nil
}
