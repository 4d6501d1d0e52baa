package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/movement-pass/passctl/internal/domain"
)

// RegisterInput is the registration payload. DateOfBirth is YYYY-MM-DD and
// Photo is the already-uploaded public photo URL.
type RegisterInput struct {
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

// LoginInput is the login payload. DateOfBirth is ddmmyyyy.
type LoginInput struct {
	MobilePhone string `json:"mobilePhone"`
	DateOfBirth string `json:"dateOfBirth"`
}

// ApplyInput is the pass application payload. Vehicle and driver fields are
// omitted from the wire when empty.
type ApplyInput struct {
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
	VehicleNo       string `json:"vehicleNo,omitempty"`
	DriverName      string `json:"driverName,omitempty"`
	DriverLicenseNo string `json:"driverLicenseNo,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates an account. On success the issued token is stored and a
// nil error is returned; server validation errors pass through unchanged.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	return c.authenticate(ctx, "/identity/register", input)
}

// Login exchanges mobile phone and date of birth for a session token.
func (c *Client) Login(ctx context.Context, input LoginInput) error {
	return c.authenticate(ctx, "/identity/login", input)
}

func (c *Client) authenticate(ctx context.Context, path string, input any) error {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, path, input, &res); err != nil {
		return err
	}
	if res.Token == "" {
		return internalError()
	}
	return c.session.SetToken(ctx, res.Token)
}

// Logout discards the local session. The token is stateless; no remote call
// is involved.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// User returns the logged-in identity, or nil when logged out or expired.
func (c *Client) User(ctx context.Context) (*domain.User, error) {
	return c.session.User(ctx)
}

// Apply submits a pass application and returns the created pass id.
func (c *Client) Apply(ctx context.Context, input ApplyInput) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/passes", input, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

// Passes fetches one page of the caller's passes. A valid key is threaded
// unchanged as the pagination cursor; an invalid or nil key fetches the
// first page.
func (c *Client) Passes(ctx context.Context, key *domain.PageKey) (*domain.PassPage, error) {
	path := "/passes"
	if key.Valid() {
		path += "?id=" + url.QueryEscape(key.ID) + "&endAt=" + url.QueryEscape(key.EndAt)
	}

	var page domain.PassPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Pass fetches a single pass by id.
func (c *Client) Pass(ctx context.Context, id string) (*domain.Pass, error) {
	var pass domain.Pass
	if err := c.do(ctx, http.MethodGet, "/passes/"+url.PathEscape(id), nil, &pass); err != nil {
		return nil, err
	}
	return &pass, nil
}
