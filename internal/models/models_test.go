package models

import (
	"testing"
)

func TestComputeDurationMinutes(t *testing.T) {
	tests := []struct {
		name                                   string
		startDate, startTime, endDate, endTime string
		want                                   int
	}{
		{"same day", "2024-03-01", "09:00", "2024-03-01", "10:30", 90},
		{"empty end date uses start date", "2024-03-01", "09:00", "", "09:45", 45},
		{"spans midnight", "2024-03-01", "23:00", "2024-03-02", "01:00", 120},
		{"negative floors at zero", "2024-03-01", "10:00", "2024-03-01", "09:00", 0},
		{"empty clocks mean midnight", "2024-03-01", "", "2024-03-02", "", 1440},
		{"bad date", "01.03.2024", "09:00", "", "10:00", 0},
		{"bad clock", "2024-03-01", "9am", "", "10:00", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDurationMinutes(tt.startDate, tt.startTime, tt.endDate, tt.endTime)
			if got != tt.want {
				t.Errorf("ComputeDurationMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionMinutes(t *testing.T) {
	tests := []struct {
		name               string
		startTime, endTime string
		want               int
	}{
		{"both clocks", "09:00", "11:00", 120},
		{"no clocks", "", "", 240},
		{"start only", "09:00", "", 240},
		{"end only", "", "17:00", 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionMinutes("2024-03-01", tt.startTime, "", tt.endTime, 240); got != tt.want {
				t.Errorf("SessionMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSearchFold(t *testing.T) {
	tests := map[string]string{
		"ŞAHİN ÇELİK": "şahin çelik",
		"şahin":       "şahin",
		"ISPARTA":     "isparta",
		"Iğdır":       "iğdir",
		" Öz ":        "öz",
		"ISG-01":      "isg-01",
	}
	for in, want := range tests {
		if got := SearchFold(in); got != want {
			t.Errorf("SearchFold(%q) = %q, want %q", in, got, want)
		}
	}
	if got := SearchKey("77", "", "Ayşe"); got != "77\nayşe" {
		t.Errorf("SearchKey() = %q", got)
	}
}

func TestPersonnelStatus_Priority(t *testing.T) {
	tests := []struct {
		status PersonnelStatus
		want   int
	}{
		{StatusCalisan, 0},
		{StatusIzinli, 1},
		{StatusPasif, 2},
		{StatusAyrildi, 3},
		{"EMEKLI", 4},
		{"", 4},
	}
	for _, tt := range tests {
		if got := tt.status.Priority(); got != tt.want {
			t.Errorf("%q.Priority() = %d, want %d", tt.status, got, tt.want)
		}
	}
	if PersonnelStatus("EMEKLI").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestIsEffectivelyDeleted(t *testing.T) {
	if !StatusPasif.IsEffectivelyDeleted() || StatusAyrildi.IsEffectivelyDeleted() {
		t.Error("only PASIF personnel count as deleted")
	}
	if !StateArchived.IsEffectivelyDeleted() || StateActive.IsEffectivelyDeleted() {
		t.Error("only ARCHIVED entities count as deleted")
	}
}

func TestAttendance_BeforeSaveDerivesPeriod(t *testing.T) {
	a := &Attendance{StartDate: "2024-11-05"}
	if err := a.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if a.Year != 2024 || a.Month != 11 {
		t.Errorf("got %d/%d, want 2024/11", a.Year, a.Month)
	}
	if a.InternalExternal != Internal {
		t.Errorf("InternalExternal default = %q, want IC", a.InternalExternal)
	}

	bad := &Attendance{StartDate: "05.11.2024"}
	if err := bad.BeforeSave(nil); err == nil {
		t.Error("expected error for non ISO start date")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	p := Personnel{SicilNo: "001", FullName: "Ayşe", Grup: "A", Status: StatusCalisan}
	snap := SnapshotPersonnel(p)
	p.FullName = "Ayşe Yılmaz"
	p.Status = StatusAyrildi
	if snap.FullName != "Ayşe" || snap.Status != StatusCalisan {
		t.Errorf("snapshot followed the live record: %+v", snap)
	}

	tr := Training{Code: "T1", Name: "Yangın"}
	ts := SnapshotTraining(tr, &TrainingTopic{Title: "Tahliye"})
	if ts.Code != "T1" || ts.TopicTitle != "Tahliye" {
		t.Errorf("unexpected training snapshot %+v", ts)
	}
	if SnapshotTraining(tr, nil).TopicTitle != "" {
		t.Error("nil topic should leave title empty")
	}
}

func TestParseDefinitionKind(t *testing.T) {
	tests := map[string]DefinitionKind{
		"locations":        KindLocation,
		"document-types":   KindDocumentType,
		"personnel-groups": KindPersonnelGroup,
		"PERSONNEL_GROUP":  KindPersonnelGroup,
	}
	for in, want := range tests {
		got, ok := ParseDefinitionKind(in)
		if !ok || got != want {
			t.Errorf("ParseDefinitionKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseDefinitionKind("rooms"); ok {
		t.Error("unknown slug should not parse")
	}
}
