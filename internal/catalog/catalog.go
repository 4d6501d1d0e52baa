// Package catalog carries the static lookup tables the application renders
// from: districts with their thanas, pass types, application reasons,
// identification types and genders, each with English and Bangla labels.
package catalog

import (
	_ "embed"
	"encoding/json"
	"sort"

	"github.com/movement-pass/passctl/internal/domain"
)

// Culture selects a display language.
type Culture string

const (
	CultureEN Culture = "en"
	CultureBN Culture = "bn"
)

// Label is a bilingual display string.
type Label struct {
	EN string `json:"en"`
	BN string `json:"bn"`
}

// In returns the label for the culture, falling back to English.
func (l Label) In(c Culture) string {
	if c == CultureBN && l.BN != "" {
		return l.BN
	}
	return l.EN
}

// Thana is a police-station-level subdivision of a district.
type Thana struct {
	ID int `json:"id"`
	Label
}

// District is a top-level administrative area.
type District struct {
	ID     int `json:"id"`
	Label
	Thanas []Thana `json:"thanas"`
}

//go:embed locations.json
var locationsRaw []byte

var districts []District

func init() {
	if err := json.Unmarshal(locationsRaw, &districts); err != nil {
		panic("catalog: corrupt locations.json: " + err.Error())
	}
}

// Districts returns all known districts.
func Districts() []District {
	return districts
}

// DistrictByID looks up a district.
func DistrictByID(id int) (District, bool) {
	for _, d := range districts {
		if d.ID == id {
			return d, true
		}
	}
	return District{}, false
}

// DistrictName returns the district's display name, or "" when unknown.
func DistrictName(id int, c Culture) string {
	d, ok := DistrictByID(id)
	if !ok {
		return ""
	}
	return d.In(c)
}

// ThanaName returns the thana's display name within a district, or "" when
// either is unknown.
func ThanaName(districtID, thanaID int, c Culture) string {
	d, ok := DistrictByID(districtID)
	if !ok {
		return ""
	}
	for _, t := range d.Thanas {
		if t.ID == thanaID {
			return t.In(c)
		}
	}
	return ""
}

var passTypes = map[domain.PassType]Label{
	domain.PassTypeRoundTrip: {EN: "Round trip", BN: "যাওয়া-আসা"},
	domain.PassTypeOneWay:    {EN: "One way", BN: "একমুখী যাত্রা"},
}

// TypeName returns the pass type's display name.
func TypeName(t domain.PassType, c Culture) string {
	return passTypes[t].In(c)
}

// PassTypes returns the selectable pass types.
func PassTypes() []domain.PassType {
	return []domain.PassType{domain.PassTypeRoundTrip, domain.PassTypeOneWay}
}

var reasons = []Label{
	{EN: "Grocery shopping", BN: "মুদি কেনাকাটা"},
	{EN: "Medicine", BN: "ওষুধ"},
	{EN: "Hospital", BN: "হাসপাতাল"},
	{EN: "Bank", BN: "ব্যাংক"},
	{EN: "Work", BN: "কর্মস্থল"},
	{EN: "Emergency", BN: "জরুরি প্রয়োজন"},
	{EN: "Funeral", BN: "দাফন/সৎকার"},
	{EN: "Relief distribution", BN: "ত্রাণ বিতরণ"},
	{EN: "Agriculture", BN: "কৃষি কাজ"},
	{EN: "Fuel", BN: "জ্বালানি"},
}

// Reasons returns the suggested application reasons sorted for display; the
// field itself is free text.
func Reasons(c Culture) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = r.In(c)
	}
	sort.Strings(out)
	return out
}

var idTypes = map[domain.IDType]Label{
	domain.IDTypeNationalID:        {EN: "National ID", BN: "জাতীয় পরিচয়পত্র"},
	domain.IDTypeDrivingLicense:    {EN: "Driving license", BN: "ড্রাইভিং লাইসেন্স"},
	domain.IDTypePassport:          {EN: "Passport", BN: "পাসপোর্ট"},
	domain.IDTypeBirthRegistration: {EN: "Birth registration", BN: "জন্ম নিবন্ধন"},
	domain.IDTypeStudentCard:       {EN: "Student card", BN: "স্টুডেন্ট কার্ড"},
	domain.IDTypeEmployeeCard:      {EN: "Employee card", BN: "এমপ্লয়ি কার্ড"},
}

// IDTypeName returns the identification type's display name.
func IDTypeName(t domain.IDType, c Culture) string {
	return idTypes[t].In(c)
}

// KnownIDType reports whether t is an accepted identification type.
func KnownIDType(t domain.IDType) bool {
	_, ok := idTypes[t]
	return ok
}

var genders = map[domain.Gender]Label{
	domain.GenderFemale: {EN: "Female", BN: "নারী"},
	domain.GenderMale:   {EN: "Male", BN: "পুরুষ"},
	domain.GenderOther:  {EN: "Other", BN: "অন্যান্য"},
}

// GenderName returns the gender's display name.
func GenderName(g domain.Gender, c Culture) string {
	return genders[g].In(c)
}
