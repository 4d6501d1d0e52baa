package forms

import (
	"context"

	"github.com/movement-pass/passctl/internal/apiclient"
)

var loginLabels = map[string]string{
	"mobilePhone": "Mobile phone number",
	"dateOfBirth": "Date of birth",
}

// LoginDraft collects login credentials: the registered mobile phone and
// the date of birth in ddmmyyyy form.
type LoginDraft struct {
	state `validate:"-"`

	MobilePhone string `validate:"required,bd_mobile" field:"mobilePhone"`
	DateOfBirth string `validate:"required,ddmmyyyy" field:"dateOfBirth"`
}

// NewLoginDraft starts an empty login draft.
func NewLoginDraft() *LoginDraft {
	d := &LoginDraft{state: newState()}
	d.Validate()
	return d
}

// SetMobilePhone updates the field and re-evaluates the rules.
func (d *LoginDraft) SetMobilePhone(v string) {
	d.MobilePhone = v
	d.touch("mobilePhone")
	d.Validate()
}

// SetDateOfBirth updates the field and re-evaluates the rules.
func (d *LoginDraft) SetDateOfBirth(v string) {
	d.DateOfBirth = v
	d.touch("dateOfBirth")
	d.Validate()
}

// Validate re-evaluates the rule set against current values.
func (d *LoginDraft) Validate() bool {
	return d.collect(validate.Struct(d), loginLabels)
}

// Submit logs in. Client-side validation failures never reach the network;
// server errors surface through Banner and the draft keeps its values.
func (d *LoginDraft) Submit(ctx context.Context, client *apiclient.Client) error {
	if err := d.beginSubmit(); err != nil {
		return err
	}
	if !d.Validate() {
		d.working = false
		return ErrDraftInvalid
	}

	return d.endSubmit(client.Login(ctx, apiclient.LoginInput{
		MobilePhone: d.MobilePhone,
		DateOfBirth: d.DateOfBirth,
	}))
}
