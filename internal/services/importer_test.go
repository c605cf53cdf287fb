package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/db/dbtest"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

type recorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recorder) Log(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

var testActor = Actor{UserID: 1, Role: "ADMIN", FullName: "Yönetici"}

func newImporter(t *testing.T) (*Importer, *gorm.DB, *recorder) {
	db := dbtest.New(t)
	rec := &recorder{}
	return NewImporter(db, rec), db, rec
}

func TestImportPersonnel_SameSicilTwiceCreatesThenUpdates(t *testing.T) {
	im, db, rec := newImporter(t)

	res, err := im.ImportPersonnel(context.Background(), testActor, []Row{
		{"sicilNo": Text("001"), "fullName": Text("A")},
		{"sicilNo": Text("001"), "fullName": Text("B")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Errors)

	var p models.Personnel
	require.NoError(t, db.Where("sicil_no = ?", "001").First(&p).Error)
	assert.Equal(t, "B", p.FullName)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, models.ActionImport, rec.entries[0].Action)
	assert.Equal(t, models.EntityImport, rec.entries[0].EntityType)
}

func TestImportPersonnel_MergesOnlyNonEmptyFields(t *testing.T) {
	im, db, _ := newImporter(t)
	require.NoError(t, db.Create(&models.Personnel{
		SicilNo: "100", FullName: "Eski Ad", Gorevi: "Operatör", Grup: "A Grubu", Status: models.StatusIzinli,
	}).Error)

	res, err := im.ImportPersonnel(context.Background(), testActor, []Row{
		{"sicilNo": Number(100), "fullName": Text("Yeni Ad"), "projeAdi": Text("Proje X"), "gorevi": Text("  ")},
		{"sicilNo": Text("200"), "fullName": Text("Yeni Kişi")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)

	var old models.Personnel
	require.NoError(t, db.Where("sicil_no = ?", "100").First(&old).Error)
	assert.Equal(t, "Yeni Ad", old.FullName)
	assert.Equal(t, "Operatör", old.Gorevi)
	assert.Equal(t, "A Grubu", old.Grup)
	assert.Equal(t, "Proje X", old.ProjeAdi)
	assert.Equal(t, models.StatusIzinli, old.Status)

	var created models.Personnel
	require.NoError(t, db.Where("sicil_no = ?", "200").First(&created).Error)
	assert.Equal(t, models.StatusCalisan, created.Status)
	assert.Empty(t, created.Gorevi)
	assert.Empty(t, created.Grup)
}

func TestImportPersonnel_RowErrorsDoNotAbortBatch(t *testing.T) {
	im, db, _ := newImporter(t)

	res, err := im.ImportPersonnel(context.Background(), testActor, []Row{
		{"sicilNo": Text("1")},
		{"sicilNo": Text("2"), "fullName": Text("B"), "personelDurumu": Text("EMEKLI")},
		{"sicilNo": Text("3"), "fullName": Text("C"), "personelDurumu": Text("ayrildi")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "Satır 2:")
	assert.Contains(t, res.Errors[1], "Satır 3:")
	assert.Contains(t, res.Message, "1 kayıt eklendi")

	var p models.Personnel
	require.NoError(t, db.Where("sicil_no = ?", "3").First(&p).Error)
	assert.Equal(t, models.StatusAyrildi, p.Status)
}

func TestImport_RequestLevelLimits(t *testing.T) {
	im, _, rec := newImporter(t)

	_, err := im.ImportPersonnel(context.Background(), testActor, nil)
	require.Error(t, err)
	assert.Equal(t, 400, httpx.Classify(err).Status)

	rows := make([]Row, MaxImportRows+1)
	_, err = im.ImportPersonnel(context.Background(), testActor, rows)
	require.Error(t, err)
	assert.Equal(t, 400, httpx.Classify(err).Status)
	assert.Empty(t, rec.entries)
}

func TestImportTrainings_AppendsOnlyNewTopics(t *testing.T) {
	im, db, _ := newImporter(t)
	tr := models.Training{Code: "T1", Name: "Yangın", DurationMin: 60, Topics: []models.TrainingTopic{
		{Title: "Giriş", OrderNo: 0},
		{Title: "Söndürücüler", OrderNo: 1},
	}}
	require.NoError(t, db.Create(&tr).Error)

	res, err := im.ImportTrainings(context.Background(), testActor, []Row{
		{"code": Text("T1"), "name": Text("Yangın Eğitimi"), "durationMin": Number(90), "category": Text("temel"),
			"topics": Text("Söndürücüler, Tahliye ,Giriş,,Tatbikat, tahliye")},
		{"code": Text("T2"), "name": Text("İlk Yardım"), "durationMin": Text("120"), "topics": Text("Temel")},
		{"code": Text("T3"), "name": Text("Eksik")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Satır 4:")

	var got models.Training
	require.NoError(t, db.Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("order_no") }).
		Where("code = ?", "T1").First(&got).Error)
	assert.Equal(t, "Yangın Eğitimi", got.Name)
	assert.Equal(t, 90, got.DurationMin)
	assert.Equal(t, models.CategoryTemel, got.Category)
	var titles []string
	var orders []int
	for _, tp := range got.Topics {
		titles = append(titles, tp.Title)
		orders = append(orders, tp.OrderNo)
	}
	assert.Equal(t, []string{"Giriş", "Söndürücüler", "Tahliye", "Tatbikat"}, titles)
	assert.Equal(t, []int{0, 1, 2, 3}, orders)

	var t2 models.Training
	require.NoError(t, db.Where("code = ?", "T2").First(&t2).Error)
	assert.Equal(t, models.CategoryDiger, t2.Category)
	assert.Equal(t, 120, t2.DurationMin)
}

func TestImportTrainers_Upsert(t *testing.T) {
	im, db, _ := newImporter(t)
	res, err := im.ImportTrainers(context.Background(), testActor, []Row{
		{"sicilNo": Text("E1"), "fullName": Text("Eğitmen Bir")},
		{"sicilNo": Text("E1"), "fullName": Text("Eğitmen 1")},
		{"fullName": Text("Sicilsiz")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Len(t, res.Errors, 1)

	var tr models.Trainer
	require.NoError(t, db.Where("sicil_no = ?", "E1").First(&tr).Error)
	assert.Equal(t, "Eğitmen 1", tr.FullName)
	assert.True(t, tr.IsActive)
}

func seedAttendanceRefs(t *testing.T, db *gorm.DB) (models.Personnel, models.Training) {
	t.Helper()
	p := models.Personnel{SicilNo: "500", FullName: "Ayşe Yılmaz", Grup: "B Grubu"}
	require.NoError(t, db.Create(&p).Error)
	tr := models.Training{Code: "ISG-01", Name: "İş Güvenliği", DurationMin: 240, DefaultLocation: "Eğitim Salonu"}
	require.NoError(t, db.Create(&tr).Error)
	require.NoError(t, db.Create(&models.Trainer{SicilNo: "E9", FullName: "Hoca"}).Error)
	return p, tr
}

func TestImportAttendance_DuplicateInSameYearIsSkipped(t *testing.T) {
	im, db, rec := newImporter(t)
	p, tr := seedAttendanceRefs(t, db)

	res, err := im.ImportAttendance(context.Background(), testActor, []Row{
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01")},
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("15.11.2024")},
	}, AttendanceImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Errors)

	var rows []models.Attendance
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	a := rows[0]
	assert.Equal(t, p.ID, a.PersonnelID)
	assert.Equal(t, tr.ID, a.TrainingID)
	assert.Equal(t, 2024, a.Year)
	assert.Equal(t, 3, a.Month)
	assert.Equal(t, "Ayşe Yılmaz", a.FullName)
	assert.Equal(t, "ISG-01", a.Code)
	assert.Equal(t, "Eğitim Salonu", a.Location)
	assert.Equal(t, models.Internal, a.InternalExternal)
	assert.Equal(t, uint(1), a.CreatedByID)
	require.Len(t, rec.entries, 1)

	// a different year is a new record
	res, err = im.ImportAttendance(context.Background(), testActor, []Row{
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("2025-01-10")},
	}, AttendanceImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

func TestImportAttendance_Duration(t *testing.T) {
	im, db, _ := newImporter(t)
	seedAttendanceRefs(t, db)
	require.NoError(t, db.Create(&models.Personnel{SicilNo: "501", FullName: "Mehmet"}).Error)
	require.NoError(t, db.Create(&models.Personnel{SicilNo: "502", FullName: "Zeynep"}).Error)
	require.NoError(t, db.Create(&models.Personnel{SicilNo: "503", FullName: "Can"}).Error)

	_, err := im.ImportAttendance(context.Background(), testActor, []Row{
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01"),
			"startTime": Text("09:00"), "endTime": Number(0.4375), "trainerSicilNo": Text("E9")},
		{"sicilNo": Text("501"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01"),
			"startTime": Text("10:00"), "endTime": Text("09:00")},
		{"sicilNo": Text("502"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01")},
		{"sicilNo": Text("503"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01"), "startTime": Text("09:00")},
	}, AttendanceImportOptions{})
	require.NoError(t, err)

	durations := map[string]int{}
	var rows []models.Attendance
	require.NoError(t, db.Find(&rows).Error)
	for _, a := range rows {
		durations[a.SicilNo] = a.DurationMin
		if a.SicilNo == "500" {
			require.NotNil(t, a.TrainerID)
			assert.Equal(t, "10:30", a.EndTime)
		}
	}
	assert.Equal(t, map[string]int{"500": 90, "501": 0, "502": 240, "503": 240}, durations)
}

func TestImportAttendance_CatalogDuration(t *testing.T) {
	im, db, _ := newImporter(t)
	seedAttendanceRefs(t, db)

	res, err := im.ImportAttendance(context.Background(), testActor, []Row{
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Number(45352),
			"startTime": Text("09:00"), "endTime": Text("10:00")},
	}, AttendanceImportOptions{UseCatalogDuration: true})
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)

	var a models.Attendance
	require.NoError(t, db.First(&a).Error)
	assert.Equal(t, 240, a.DurationMin)
	assert.Equal(t, "2024-03-01", a.StartDate)
}

func TestImportAttendance_UnresolvedReferencesAreRowErrors(t *testing.T) {
	im, db, _ := newImporter(t)
	seedAttendanceRefs(t, db)

	res, err := im.ImportAttendance(context.Background(), testActor, []Row{
		{"sicilNo": Text("999"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01")},
		{"sicilNo": Text("500"), "trainingCode": Text("YOK"), "startDate": Text("2024-03-01")},
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01"), "trainerSicilNo": Text("X")},
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("bugün")},
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01")},
		{"sicilNo": Text("500"), "trainingCode": Text("ISG-01"), "startDate": Text("2024-03-01"), "internalExternal": Text("dış")},
	}, AttendanceImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 5)
	for i, msg := range res.Errors {
		assert.Contains(t, msg, "Satır ", "error %d", i)
	}
	assert.Contains(t, res.Errors[0], "personel bulunamadı")
	assert.Contains(t, res.Errors[1], "eğitim bulunamadı")
	assert.Contains(t, res.Errors[2], "eğitmen bulunamadı")

	var a models.Attendance
	require.NoError(t, db.First(&a).Error)
	assert.Equal(t, models.External, a.InternalExternal)
}

func TestParseInternalExternal(t *testing.T) {
	for in, want := range map[string]models.InternalExternal{"": models.Internal, "iç": models.Internal, "IC": models.Internal, "Dış": models.External, "DIS": models.External} {
		got, err := parseInternalExternal(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseInternalExternal("karma")
	assert.Error(t, err)
}

func TestImport_RunsToCompletionAfterCancel(t *testing.T) {
	im, db, rec := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := im.ImportPersonnel(ctx, testActor, []Row{
		{"sicilNo": Text("001"), "fullName": Text("A")},
		{"sicilNo": Text("002"), "fullName": Text("B")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Errors)

	var n int64
	require.NoError(t, db.Model(&models.Personnel{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, models.ActionImport, rec.entries[0].Action)
}

func TestImport_RowMessagesHideDriverErrors(t *testing.T) {
	im, _, _ := newImporter(t)
	failures := []error{
		rowErrorf("personel bulunamadı (%s)", "9"),
		errors.New(`pq: relation "personnels" does not exist`),
		errors.New("driver: bad connection"),
	}
	i := 0
	res, err := im.run(context.Background(), testActor, "personnel", []Row{{}, {}, {}}, func(*gorm.DB, Row) (rowOutcome, error) {
		defer func() { i++ }()
		return 0, failures[i]
	})
	require.NoError(t, err)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "Satır 2: personel bulunamadı (9)", res.Errors[0])
	assert.Equal(t, "Satır 3: Veritabanı hatası oluştu", res.Errors[1])
	assert.Equal(t, "Satır 4: Beklenmeyen bir hata oluştu", res.Errors[2])
	for _, msg := range res.Errors {
		assert.NotContains(t, msg, "pq:")
		assert.NotContains(t, msg, "driver")
	}
}
