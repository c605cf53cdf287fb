package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uclergnlts/tav-egitim/internal/db/dbtest"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	trainings map[string]models.Training
	people    map[string]models.Personnel
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	f := &fixture{db: db, trainings: map[string]models.Training{}, people: map[string]models.Personnel{}}
	for _, tr := range []models.Training{
		{Code: "TZ-01", Name: "Tazeleme", DurationMin: 45, Category: models.CategoryTazeleme},
		{Code: "TM-02", Name: "Temel B", DurationMin: 120, Category: models.CategoryTemel},
		{Code: "TM-01", Name: "Temel A", DurationMin: 60, Category: models.CategoryTemel},
		{Code: "OLD", Name: "Arşiv", DurationMin: 30, State: models.StateArchived},
	} {
		require.NoError(t, db.Create(&tr).Error)
		f.trainings[tr.Code] = tr
	}
	return f
}

func (f *fixture) person(t *testing.T, sicil, name string, status models.PersonnelStatus) models.Personnel {
	t.Helper()
	if p, ok := f.people[sicil]; ok {
		return p
	}
	p := models.Personnel{SicilNo: sicil, FullName: name, Status: status, Grup: "A"}
	require.NoError(t, f.db.Create(&p).Error)
	f.people[sicil] = p
	return p
}

func (f *fixture) attend(t *testing.T, p models.Personnel, code, date, clock string, minutes int) {
	t.Helper()
	tr := f.trainings[code]
	a := models.Attendance{
		PersonnelID:       p.ID,
		TrainingID:        tr.ID,
		PersonnelSnapshot: models.SnapshotPersonnel(p),
		TrainingSnapshot:  models.SnapshotTraining(tr, nil),
		StartDate:         date,
		StartTime:         clock,
		DurationMin:       minutes,
	}
	require.NoError(t, f.db.Create(&a).Error)
}

func TestMonthly_TotalsMatchRowsAndOrder(t *testing.T) {
	f := newFixture(t)
	ali := f.person(t, "1", "Ali", models.StatusCalisan)
	can := f.person(t, "2", "Can", models.StatusCalisan)
	ece := f.person(t, "3", "Ece", models.StatusCalisan)

	f.attend(t, can, "TM-01", "2024-05-10", "09:00", 50)
	f.attend(t, ali, "TM-02", "2024-05-10", "09:00", 70)
	f.attend(t, ece, "TM-01", "2024-05-02", "14:00", 15)
	f.attend(t, ali, "TZ-01", "2024-06-01", "09:00", 999)

	rep, err := NewReports(f.db).Monthly(context.Background(), 2024, 5)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 3)

	var sum int64
	var names []string
	for _, r := range rep.Rows {
		sum += int64(r.DurationMin)
		names = append(names, r.FullName)
	}
	assert.Equal(t, []string{"Ece", "Ali", "Can"}, names)
	assert.Equal(t, sum, rep.TotalMinutes)
	assert.EqualValues(t, 135, rep.TotalMinutes)
	assert.EqualValues(t, 3, rep.TotalCount)
}

func TestMonthly_EmptyMonthIsZeroNotNull(t *testing.T) {
	f := newFixture(t)
	rep, err := NewReports(f.db).Monthly(context.Background(), 2030, 1)
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)
	assert.NotNil(t, rep.Rows)
	assert.EqualValues(t, 0, rep.TotalMinutes)
	assert.EqualValues(t, 0, rep.TotalCount)
}

func TestYearly_PivotTotals(t *testing.T) {
	f := newFixture(t)
	for i, sicil := range []string{"1", "2", "3", "4"} {
		p := f.person(t, sicil, "P"+sicil, models.StatusCalisan)
		f.attend(t, p, "TM-01", "2024-01-15", "", 10)
		if i%2 == 0 {
			f.attend(t, p, "TM-02", "2024-03-01", "", 10)
		}
		f.attend(t, p, "TZ-01", "2024-12-31", "", 10)
		f.attend(t, p, "OLD", "2024-06-01", "", 10)
		f.attend(t, p, "TM-01", "2023-07-01", "", 10)
	}

	rep, err := NewReports(f.db).Yearly(context.Background(), 2024)
	require.NoError(t, err)

	var codes []string
	for _, r := range rep.Rows {
		codes = append(codes, r.Code)
	}
	assert.Equal(t, []string{"TM-01", "TM-02", "TZ-01"}, codes, "active trainings by category then code")

	var grand int64
	for _, r := range rep.Rows {
		var sum int64
		for _, n := range r.Months {
			sum += n
		}
		assert.Equal(t, r.TotalParticipation, sum, r.Code)
		assert.Equal(t, r.TotalParticipation*int64(r.DurationMin), r.TotalMinutes, r.Code)
		grand += r.TotalParticipation
	}
	assert.Equal(t, grand, rep.GrandTotalParticipation)

	byCode := map[string]YearlyRow{}
	for _, r := range rep.Rows {
		byCode[r.Code] = r
	}
	assert.EqualValues(t, 4, byCode["TM-01"].Months[0])
	assert.EqualValues(t, 2, byCode["TM-02"].Months[2])
	assert.EqualValues(t, 4, byCode["TZ-01"].Months[11])
	assert.EqualValues(t, 240, byCode["TM-01"].TotalMinutes)
	assert.Equal(t, [12]int64{4, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 4}, rep.MonthTotals)
	assert.EqualValues(t, 10, rep.GrandTotalParticipation)
	assert.EqualValues(t, 4*60+2*120+4*45, rep.GrandTotalMinutes)
}

func TestDetail_SortsByStatusPriorityForEqualDates(t *testing.T) {
	f := newFixture(t)
	for i, st := range []models.PersonnelStatus{models.StatusAyrildi, models.StatusCalisan, models.StatusPasif, models.StatusIzinli} {
		p := f.person(t, string(rune('a'+i)), "Kişi "+string(st), st)
		f.attend(t, p, "TM-01", "2024-04-01", "", 60)
	}

	rep, err := NewReports(f.db).Detail(context.Background(), DetailFilter{})
	require.NoError(t, err)
	var got []models.PersonnelStatus
	for _, r := range rep.Rows {
		got = append(got, r.Status)
	}
	assert.Equal(t, []models.PersonnelStatus{models.StatusCalisan, models.StatusIzinli, models.StatusPasif, models.StatusAyrildi}, got)
	assert.False(t, rep.Truncated)
	assert.Equal(t, 4, rep.Count)
}

func TestDetail_Filters(t *testing.T) {
	f := newFixture(t)
	ayse := f.person(t, "S-100", "Ayse Kaya", models.StatusCalisan)
	veli := f.person(t, "S-200", "Veli Demir", models.StatusIzinli)
	f.attend(t, ayse, "TM-01", "2024-01-10", "", 60)
	f.attend(t, ayse, "TZ-01", "2024-02-10", "", 60)
	f.attend(t, veli, "TM-02", "2024-03-10", "", 60)

	r := NewReports(f.db)
	ctx := context.Background()
	count := func(filter DetailFilter) int {
		t.Helper()
		rep, err := r.Detail(ctx, filter)
		require.NoError(t, err)
		return rep.Count
	}

	assert.Equal(t, 2, count(DetailFilter{Search: "AYSE"}))
	assert.Equal(t, 1, count(DetailFilter{Search: "s-200"}))
	assert.Equal(t, 2, count(DetailFilter{TrainingCode: "tm-"}))
	assert.Equal(t, 2, count(DetailFilter{StartDate: "2024-02-10", EndDate: "2024-03-10"}))
	assert.Equal(t, 1, count(DetailFilter{StartDate: "2024-01-10", EndDate: "2024-01-10"}))
	assert.Equal(t, 1, count(DetailFilter{Status: models.StatusIzinli}))
	assert.Equal(t, 3, count(DetailFilter{Group: "A"}))
	assert.Equal(t, 0, count(DetailFilter{Group: "Z"}))
	assert.Equal(t, 0, count(DetailFilter{Search: "%"}), "wildcards are literal")
}

func TestDetail_SearchFoldsTurkishLetters(t *testing.T) {
	f := newFixture(t)
	p := f.person(t, "S-300", "ŞAHİN ÇELİK", models.StatusCalisan)
	f.attend(t, p, "TM-01", "2024-04-01", "", 60)
	f.person(t, "S-301", "Irmak Işık", models.StatusCalisan)
	f.attend(t, f.people["S-301"], "TM-01", "2024-04-02", "", 60)

	r := NewReports(f.db)
	for _, q := range []string{"ŞAHİN", "şahin", "Şahin Çelik", "çelik", "ÇELİK", "s-300"} {
		rep, err := r.Detail(context.Background(), DetailFilter{Search: q})
		require.NoError(t, err)
		require.Equal(t, 1, rep.Count, q)
		assert.Equal(t, "ŞAHİN ÇELİK", rep.Rows[0].FullName, q)
	}
	for _, q := range []string{"IŞIK", "ışık", "irmak"} {
		rep, err := r.Detail(context.Background(), DetailFilter{Search: q})
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Count, q)
	}
	rep, err := r.Detail(context.Background(), DetailFilter{Search: "sahin"})
	require.NoError(t, err)
	assert.Zero(t, rep.Count)
}

func TestDetail_DateDescThenName(t *testing.T) {
	f := newFixture(t)
	zeki := f.person(t, "1", "Zeki", models.StatusCalisan)
	ahmet := f.person(t, "2", "Ahmet", models.StatusCalisan)
	f.attend(t, zeki, "TM-01", "2024-01-01", "", 1)
	f.attend(t, ahmet, "TM-01", "2024-01-01", "", 1)
	f.attend(t, ahmet, "TM-02", "2024-05-01", "", 1)

	rep, err := NewReports(f.db).Detail(context.Background(), DetailFilter{})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 3)
	assert.Equal(t, "2024-05-01", rep.Rows[0].StartDate)
	assert.Equal(t, "Ahmet", rep.Rows[1].FullName)
	assert.Equal(t, "Zeki", rep.Rows[2].FullName)
}

func TestOrderCase(t *testing.T) {
	assert.Equal(t,
		"CASE personel_durumu WHEN 'CALISAN' THEN 0 WHEN 'IZINLI' THEN 1 WHEN 'PASIF' THEN 2 WHEN 'AYRILDI' THEN 3 ELSE 4 END",
		orderCase("personel_durumu", models.StatusOrder))
	assert.Equal(t,
		"CASE category WHEN 'TEMEL' THEN 0 WHEN 'TAZELEME' THEN 1 WHEN 'DIGER' THEN 2 ELSE 3 END",
		orderCase("category", models.CategoryOrder))
}
