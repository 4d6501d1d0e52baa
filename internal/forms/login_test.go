package forms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginDraftValidation(t *testing.T) {
	tests := []struct {
		name        string
		mobilePhone string
		dateOfBirth string
		wantField   string
		wantMessage string
	}{
		{
			name:        "valid",
			mobilePhone: "01512345678",
			dateOfBirth: "16121971",
		},
		{
			name:        "mobile wrong prefix",
			mobilePhone: "01212345678",
			dateOfBirth: "16121971",
			wantField:   "mobilePhone",
			wantMessage: "Invalid mobile phone number, must be 11 character digit",
		},
		{
			name:        "mobile too short",
			mobilePhone: "0151234567",
			dateOfBirth: "16121971",
			wantField:   "mobilePhone",
			wantMessage: "Invalid mobile phone number, must be 11 character digit",
		},
		{
			name:        "dob not eight digits",
			mobilePhone: "01512345678",
			dateOfBirth: "16-12-1971",
			wantField:   "dateOfBirth",
			wantMessage: "Invalid date of birth, must be in ddmmyyyy format",
		},
		{
			name:        "missing mobile",
			mobilePhone: "",
			dateOfBirth: "16121971",
			wantField:   "mobilePhone",
			wantMessage: "Mobile phone number is a required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewLoginDraft()
			d.SetMobilePhone(tt.mobilePhone)
			d.SetDateOfBirth(tt.dateOfBirth)

			if tt.wantField == "" {
				assert.True(t, d.Validate())
				return
			}
			assert.False(t, d.Validate())
			assert.Equal(t, tt.wantMessage, d.FieldError(tt.wantField))
		})
	}
}

func TestLoginDraftWrongCredentialsShowExactServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string][]string{"errors": {"Invalid mobile phone or date of birth"}})
	}))
	defer srv.Close()

	d := NewLoginDraft()
	d.SetMobilePhone("01512345678")
	d.SetDateOfBirth("16121971")

	err := d.Submit(context.Background(), testClient(t, srv.URL))
	require.Error(t, err)

	assert.Equal(t, "Invalid mobile phone or date of birth", d.Banner())
	assert.Equal(t, "01512345678", d.MobilePhone, "draft fields remain populated")
	assert.Equal(t, "16121971", d.DateOfBirth)
}
