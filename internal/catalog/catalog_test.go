package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movement-pass/passctl/internal/domain"
)

func TestDistrictsLoaded(t *testing.T) {
	districts := Districts()
	require.NotEmpty(t, districts)

	for _, d := range districts {
		assert.NotZero(t, d.ID)
		assert.NotEmpty(t, d.EN)
		assert.NotEmpty(t, d.Thanas, "district %d has no thanas", d.ID)
	}
}

func TestLookupsFallBackToEnglish(t *testing.T) {
	d := Districts()[0]

	assert.Equal(t, d.EN, DistrictName(d.ID, CultureEN))
	assert.NotEmpty(t, DistrictName(d.ID, CultureBN))
	assert.Equal(t, d.Thanas[0].EN, ThanaName(d.ID, d.Thanas[0].ID, CultureEN))

	assert.Empty(t, DistrictName(999999, CultureEN))
	assert.Empty(t, ThanaName(d.ID, 999999, CultureEN))
}

func TestPassTypeAndIDTypeTables(t *testing.T) {
	assert.Equal(t, "Round trip", TypeName(domain.PassTypeRoundTrip, CultureEN))
	assert.Equal(t, "One way", TypeName(domain.PassTypeOneWay, CultureEN))

	assert.True(t, KnownIDType(domain.IDTypeNationalID))
	assert.False(t, KnownIDType(domain.IDType("xx")))
	assert.NotEmpty(t, IDTypeName(domain.IDTypePassport, CultureBN))
}

func TestReasonsAreSortedAndBilingual(t *testing.T) {
	en := Reasons(CultureEN)
	require.NotEmpty(t, en)
	for i := 1; i < len(en); i++ {
		assert.LessOrEqual(t, en[i-1], en[i])
	}

	bn := Reasons(CultureBN)
	assert.Len(t, bn, len(en))
}
