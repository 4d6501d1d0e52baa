package forms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/movement-pass/passctl/internal/apiclient"
)

// MaxPhotoSize caps the applicant photo at 2 MiB.
const MaxPhotoSize = 2 * 1024 * 1024

var photoContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

var registerLabels = map[string]string{
	"name":        "Name",
	"mobilePhone": "Mobile phone number",
	"district":    "District",
	"thana":       "Thana",
	"dateOfBirth": "Date of birth",
	"gender":      "Gender",
	"idType":      "Type of identification",
	"idNumber":    "ID number",
	"photo":       "Photo",
}

// RegisterDraft collects a registration: identity details plus a local
// photo file that is uploaded before the register call.
type RegisterDraft struct {
	state `validate:"-"`

	Name        string    `validate:"required,max=64" field:"name"`
	MobilePhone string    `validate:"required,bd_mobile" field:"mobilePhone"`
	District    int       `validate:"required" field:"district"`
	Thana       int       `validate:"required" field:"thana"`
	DateOfBirth time.Time `validate:"required" field:"dateOfBirth"`
	Gender      string    `validate:"required,oneof=F M O" field:"gender"`
	IDType      string    `validate:"required,oneof=nid dl pp br sc ec" field:"idType"`
	IDNumber    string    `validate:"required,max=64" field:"idNumber"`
	PhotoPath   string    `validate:"required" field:"photo"`

	now func() time.Time
}

// NewRegisterDraft starts an empty registration draft.
func NewRegisterDraft() *RegisterDraft {
	d := &RegisterDraft{state: newState(), now: time.Now}
	d.Validate()
	return d
}

// SetName updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetName(v string) {
	d.Name = v
	d.touch("name")
	d.Validate()
}

// SetMobilePhone updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetMobilePhone(v string) {
	d.MobilePhone = v
	d.touch("mobilePhone")
	d.Validate()
}

// SetDistrict selects a district and resets the dependent thana so a stale
// choice from another district cannot be submitted.
func (d *RegisterDraft) SetDistrict(id int) {
	d.District = id
	d.Thana = 0
	d.touch("district")
	d.Validate()
}

// SetThana updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetThana(id int) {
	d.Thana = id
	d.touch("thana")
	d.Validate()
}

// SetDateOfBirth updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetDateOfBirth(v time.Time) {
	d.DateOfBirth = v
	d.touch("dateOfBirth")
	d.Validate()
}

// SetGender updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetGender(v string) {
	d.Gender = v
	d.touch("gender")
	d.Validate()
}

// SetIDType updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetIDType(v string) {
	d.IDType = v
	d.touch("idType")
	d.Validate()
}

// SetIDNumber updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetIDNumber(v string) {
	d.IDNumber = v
	d.touch("idNumber")
	d.Validate()
}

// SetPhotoPath updates the field and re-evaluates the rules.
func (d *RegisterDraft) SetPhotoPath(v string) {
	d.PhotoPath = v
	d.touch("photo")
	d.Validate()
}

// Validate re-evaluates the rule set against current values.
func (d *RegisterDraft) Validate() bool {
	ok := d.collect(validate.Struct(d), registerLabels)

	if d.errors["dateOfBirth"] == "" && !d.DateOfBirth.IsZero() {
		if d.DateOfBirth.After(d.now().AddDate(-18, 0, 0)) {
			d.errors["dateOfBirth"] = "Age must 18 years or more"
			ok = false
		}
	}

	if d.errors["photo"] == "" && d.PhotoPath != "" {
		if msg := checkPhoto(d.PhotoPath); msg != "" {
			d.errors["photo"] = msg
			ok = false
		}
	}

	return ok
}

func checkPhoto(path string) string {
	if _, found := photoContentTypes[strings.ToLower(filepath.Ext(path))]; !found {
		return "Photo must be in png or jpeg format"
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("Photo is not readable: %v", err)
	}
	if info.Size() > MaxPhotoSize {
		return "Photo cannot exceed 2MB in size"
	}
	return ""
}

// PhotoContentType returns the MIME type implied by the photo filename.
func (d *RegisterDraft) PhotoContentType() string {
	return photoContentTypes[strings.ToLower(filepath.Ext(d.PhotoPath))]
}

// Submit uploads the photo, then registers with the resulting public URL.
// On success the client has already stored the issued token.
func (d *RegisterDraft) Submit(ctx context.Context, client *apiclient.Client) error {
	if err := d.beginSubmit(); err != nil {
		return err
	}
	if !d.Validate() {
		d.working = false
		return ErrDraftInvalid
	}

	file, err := os.Open(d.PhotoPath)
	if err != nil {
		return d.endSubmit(err)
	}
	defer file.Close() //nolint:errcheck

	photoURL, err := client.UploadPhoto(ctx, d.PhotoContentType(), filepath.Base(d.PhotoPath), file)
	if err != nil {
		return d.endSubmit(err)
	}

	return d.endSubmit(client.Register(ctx, apiclient.RegisterInput{
		Name:        d.Name,
		MobilePhone: d.MobilePhone,
		District:    d.District,
		Thana:       d.Thana,
		DateOfBirth: d.DateOfBirth.Format("2006-01-02"),
		Gender:      d.Gender,
		IDType:      d.IDType,
		IDNumber:    d.IDNumber,
		Photo:       photoURL,
	}))
}
