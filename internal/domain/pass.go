package domain

import "time"

// PassStatus enumerates lifecycle states for movement passes.
type PassStatus string

const (
	PassStatusApplied  PassStatus = "APPLIED"
	PassStatusApproved PassStatus = "APPROVED"
	PassStatusRejected PassStatus = "REJECTED"
	PassStatusExpired  PassStatus = "EXPIRED"
)

// PassType enumerates trip kinds.
type PassType string

const (
	PassTypeRoundTrip PassType = "R"
	PassTypeOneWay    PassType = "O"
)

// Gender enumerates applicant genders.
type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
	GenderOther  Gender = "O"
)

// IDType enumerates accepted identification documents.
type IDType string

const (
	IDTypeNationalID        IDType = "nid"
	IDTypeDrivingLicense    IDType = "dl"
	IDTypePassport          IDType = "pp"
	IDTypeBirthRegistration IDType = "br"
	IDTypeStudentCard       IDType = "sc"
	IDTypeEmployeeCard      IDType = "ec"
)

// Applicant is the registered citizen a pass belongs to.
type Applicant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Photo         string    `json:"photo"`
	IDNumber      string    `json:"idNumber"`
	IDType        IDType    `json:"idType"`
	District      int       `json:"district"`
	Thana         int       `json:"thana"`
	DateOfBirth   time.Time `json:"dateOfBirth"`
	ApprovedCount int       `json:"approvedCount"`
}

// Pass is the remote system's record of a movement permit. The client only
// holds read-only copies for display.
type Pass struct {
	ID              string     `json:"id"`
	Applicant       Applicant  `json:"applicant"`
	FromLocation    string     `json:"fromLocation"`
	ToLocation      string     `json:"toLocation"`
	District        int        `json:"district"`
	Thana           int        `json:"thana"`
	StartAt         time.Time  `json:"startAt"`
	EndAt           time.Time  `json:"endAt"`
	Type            PassType   `json:"type"`
	Status          PassStatus `json:"status"`
	Reason          string     `json:"reason"`
	IncludeVehicle  bool       `json:"includeVehicle"`
	SelfDriven      bool       `json:"selfDriven"`
	VehicleNo       string     `json:"vehicleNo,omitempty"`
	DriverName      string     `json:"driverName,omitempty"`
	DriverLicenseNo string     `json:"driverLicenseNo,omitempty"`
}
