package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgarsanz/unisport/internal/model"
)

func TestNewProductBonusSingle(t *testing.T) {
	def := model.Bonus{ID: 7, ActivityID: 3, Kind: model.BonusSingle, PriceCents: 500}
	pb := NewProductBonus(uuid.New(), def, false, utcDate(2026, time.March, 10))

	assert.True(t, pb.Available)
	assert.Nil(t, pb.DateBegin)
	assert.Nil(t, pb.DateEnd)
	assert.Equal(t, uint32(500), pb.PricePaidCents)
	assert.Equal(t, uint64(7), pb.BonusID)
	assert.Equal(t, uint64(3), pb.ActivityID)
}

func TestSemesterWindow(t *testing.T) {
	def := model.Bonus{Kind: model.BonusSemester, PriceCents: 9000}

	// Purchased during the spring semester: valid from the purchase day
	// until June 30 of the same year.
	pb := NewProductBonus(uuid.New(), def, false, utcDate(2026, time.March, 10))
	require.NotNil(t, pb.DateBegin)
	require.NotNil(t, pb.DateEnd)
	assert.Equal(t, utcDate(2026, time.March, 10), *pb.DateBegin)
	assert.Equal(t, utcDate(2026, time.June, 30), *pb.DateEnd)

	// Purchased in autumn: the window is the full autumn semester.
	pb = NewProductBonus(uuid.New(), def, false, utcDate(2026, time.October, 5))
	assert.Equal(t, utcDate(2026, time.September, 1), *pb.DateBegin)
	assert.Equal(t, utcDate(2026, time.December, 31), *pb.DateEnd)
}

func TestAnnualWindow(t *testing.T) {
	def := model.Bonus{Kind: model.BonusAnnual, PriceCents: 15000}

	// Purchased mid academic year: the window started the previous
	// September 1.
	pb := NewProductBonus(uuid.New(), def, false, utcDate(2026, time.February, 1))
	require.NotNil(t, pb.DateBegin)
	assert.Equal(t, utcDate(2025, time.September, 1), *pb.DateBegin)
	assert.Equal(t, utcDate(2026, time.June, 30), *pb.DateEnd)

	// Purchased before the academic year begins.
	pb = NewProductBonus(uuid.New(), def, false, utcDate(2026, time.November, 20))
	assert.Equal(t, utcDate(2026, time.September, 1), *pb.DateBegin)
	assert.Equal(t, utcDate(2027, time.June, 30), *pb.DateEnd)
}

func TestIsValidOn(t *testing.T) {
	begin := utcDate(2026, time.March, 10)
	end := utcDate(2026, time.June, 30)
	period := model.ProductBonus{Kind: model.BonusSemester, DateBegin: &begin, DateEnd: &end}

	assert.True(t, IsValidOn(period, begin), "first day inclusive")
	assert.True(t, IsValidOn(period, end), "last day inclusive")
	assert.True(t, IsValidOn(period, end.Add(23*time.Hour)), "clock time within the last day is ignored")
	assert.False(t, IsValidOn(period, begin.AddDate(0, 0, -1)))
	assert.False(t, IsValidOn(period, end.AddDate(0, 0, 1)))

	single := model.ProductBonus{Kind: model.BonusSingle, Available: true}
	assert.True(t, IsValidOn(single, begin))
	single.Available = false
	assert.False(t, IsValidOn(single, begin), "consumed single-use bonus is spent")
}

func TestFirstValidBonusPrefersFirstUsable(t *testing.T) {
	now := utcDate(2026, time.March, 15)
	begin := utcDate(2026, time.January, 1)
	end := utcDate(2026, time.June, 30)
	bonuses := []model.ProductBonus{
		{ID: 1, Kind: model.BonusSingle, Available: false},
		{ID: 2, Kind: model.BonusSemester, DateBegin: &begin, DateEnd: &end},
		{ID: 3, Kind: model.BonusSingle, Available: true},
	}
	got := firstValidBonus(bonuses, now)
	require.NotNil(t, got)
	assert.Equal(t, uint64(2), got.ID)

	assert.Nil(t, firstValidBonus(nil, now))
	assert.Nil(t, firstValidBonus([]model.ProductBonus{{ID: 1, Kind: model.BonusSingle}}, now))
}

func TestMemberDiscountCents(t *testing.T) {
	assert.Equal(t, uint32(0), MemberDiscountCents(1000, false))
	assert.Equal(t, uint32(100), MemberDiscountCents(1000, true))
	assert.Equal(t, uint32(100), MemberDiscountCents(999, true), "rounds half up")
	assert.Equal(t, uint32(0), MemberDiscountCents(0, true))
}

func TestMemberPricePaid(t *testing.T) {
	def := model.Bonus{Kind: model.BonusSingle, PriceCents: 1000}
	pb := NewProductBonus(uuid.New(), def, true, utcDate(2026, time.March, 10))
	assert.Equal(t, uint32(900), pb.PricePaidCents)
}
