package forms

import (
	"context"
	"time"

	"github.com/movement-pass/passctl/internal/apiclient"
	"github.com/movement-pass/passctl/internal/domain"
)

var applyLabels = map[string]string{
	"fromLocation":    "From location",
	"toLocation":      "To location",
	"district":        "District",
	"thana":           "Thana",
	"dateTime":        "Date and time",
	"durationInHour":  "Duration",
	"type":            "Type",
	"reason":          "Reason",
	"includeVehicle":  "Vehicle",
	"vehicleNo":       "Vehicle no",
	"driverName":      "Driver name",
	"driverLicenseNo": "Driver license no",
}

// ApplyDraft collects a pass application. Vehicle fields are required only
// when a vehicle is included; driver fields only when that vehicle is not
// self-driven. The conditional rules live in the field tags and are
// re-evaluated on every change.
type ApplyDraft struct {
	state `validate:"-"`

	FromLocation    string    `validate:"required,max=64" field:"fromLocation"`
	ToLocation      string    `validate:"required,max=64" field:"toLocation"`
	District        int       `validate:"required" field:"district"`
	Thana           int       `validate:"required" field:"thana"`
	DateTime        time.Time `validate:"required" field:"dateTime"`
	DurationInHour  int       `validate:"required,min=1,max=12" field:"durationInHour"`
	Type            string    `validate:"required,oneof=R O" field:"type"`
	Reason          string    `validate:"required,max=64" field:"reason"`
	IncludeVehicle  bool      `field:"includeVehicle"`
	VehicleNo       string    `validate:"required_if=IncludeVehicle true,omitempty,max=64" field:"vehicleNo"`
	SelfDriven      bool      `field:"selfDriven"`
	DriverName      string    `validate:"required_if=IncludeVehicle true SelfDriven false,omitempty,max=64" field:"driverName"`
	DriverLicenseNo string    `validate:"required_if=IncludeVehicle true SelfDriven false,omitempty,max=64" field:"driverLicenseNo"`

	now func() time.Time
}

// NewApplyDraft starts an application draft with the original defaults: a
// round trip starting four hours from now, one hour long, without vehicle.
func NewApplyDraft() *ApplyDraft {
	d := &ApplyDraft{
		state:          newState(),
		DurationInHour: 1,
		Type:           string(domain.PassTypeRoundTrip),
		SelfDriven:     true,
		now:            time.Now,
	}
	d.DateTime = d.now().Add(4 * time.Hour)
	d.Validate()
	return d
}

// SetFromLocation updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetFromLocation(v string) {
	d.FromLocation = v
	d.touch("fromLocation")
	d.Validate()
}

// SetToLocation updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetToLocation(v string) {
	d.ToLocation = v
	d.touch("toLocation")
	d.Validate()
}

// SetDistrict selects the destination district and resets the dependent
// thana.
func (d *ApplyDraft) SetDistrict(id int) {
	d.District = id
	d.Thana = 0
	d.touch("district")
	d.Validate()
}

// SetThana updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetThana(id int) {
	d.Thana = id
	d.touch("thana")
	d.Validate()
}

// SetDateTime updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetDateTime(v time.Time) {
	d.DateTime = v
	d.touch("dateTime")
	d.Validate()
}

// SetDurationInHour updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetDurationInHour(v int) {
	d.DurationInHour = v
	d.touch("durationInHour")
	d.Validate()
}

// SetType updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetType(v string) {
	d.Type = v
	d.touch("type")
	d.Validate()
}

// SetReason updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetReason(v string) {
	d.Reason = v
	d.touch("reason")
	d.Validate()
}

// SetIncludeVehicle governs the vehicle fields: selecting a vehicle defaults
// it to self-driven, deselecting resets every dependent field so stale
// conditional data cannot be submitted.
func (d *ApplyDraft) SetIncludeVehicle(v bool) {
	d.IncludeVehicle = v
	if v {
		d.SelfDriven = true
	} else {
		d.VehicleNo = ""
		d.SelfDriven = false
		d.DriverName = ""
		d.DriverLicenseNo = ""
	}
	d.touch("includeVehicle")
	d.Validate()
}

// SetSelfDriven updates the toggle. Driver fields reset on both branches,
// matching the shipped behavior.
func (d *ApplyDraft) SetSelfDriven(v bool) {
	d.SelfDriven = v
	if v {
		d.DriverName = ""
		d.DriverLicenseNo = ""
	} else {
		d.DriverName = ""
		d.DriverLicenseNo = ""
	}
	d.touch("selfDriven")
	d.Validate()
}

// SetDriver fills the driver fields for a chauffeured vehicle.
func (d *ApplyDraft) SetDriver(name, licenseNo string) {
	d.DriverName = name
	d.DriverLicenseNo = licenseNo
	d.touch("driverName")
	d.touch("driverLicenseNo")
	d.Validate()
}

// SetVehicleNo updates the field and re-evaluates the rules.
func (d *ApplyDraft) SetVehicleNo(v string) {
	d.VehicleNo = v
	d.touch("vehicleNo")
	d.Validate()
}

// Validate re-evaluates the rule set against current values.
func (d *ApplyDraft) Validate() bool {
	ok := d.collect(validate.Struct(d), applyLabels)

	if d.errors["dateTime"] == "" && !d.DateTime.IsZero() {
		now := d.now()
		if d.DateTime.Before(now.Add(time.Hour)) {
			d.errors["dateTime"] = "Date and time must be at least 1 hour from now"
			ok = false
		} else if d.DateTime.After(now.Add(24 * time.Hour)) {
			d.errors["dateTime"] = "Date and time cannot be more than 1 day from now"
			ok = false
		}
	}

	return ok
}

// Payload builds the wire payload, pruning conditional fields the same way
// the application always has: no vehicle drops every vehicle and driver
// field and forces selfDriven off; a self-driven vehicle drops the driver
// fields.
func (d *ApplyDraft) Payload() apiclient.ApplyInput {
	input := apiclient.ApplyInput{
		FromLocation:    d.FromLocation,
		ToLocation:      d.ToLocation,
		District:        d.District,
		Thana:           d.Thana,
		DateTime:        d.DateTime.UTC().Format(time.RFC3339),
		DurationInHour:  d.DurationInHour,
		Type:            d.Type,
		Reason:          d.Reason,
		IncludeVehicle:  d.IncludeVehicle,
		SelfDriven:      d.SelfDriven,
		VehicleNo:       d.VehicleNo,
		DriverName:      d.DriverName,
		DriverLicenseNo: d.DriverLicenseNo,
	}

	if !input.IncludeVehicle {
		input.SelfDriven = false
		input.VehicleNo = ""
		input.DriverName = ""
		input.DriverLicenseNo = ""
	} else if input.SelfDriven {
		input.DriverName = ""
		input.DriverLicenseNo = ""
	}

	return input
}

// Submit applies for a pass and returns the created pass id.
func (d *ApplyDraft) Submit(ctx context.Context, client *apiclient.Client) (string, error) {
	if err := d.beginSubmit(); err != nil {
		return "", err
	}
	if !d.Validate() {
		d.working = false
		return "", ErrDraftInvalid
	}

	id, err := client.Apply(ctx, d.Payload())
	if err != nil {
		return "", d.endSubmit(err)
	}
	return id, d.endSubmit(nil)
}
