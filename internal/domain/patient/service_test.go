package patient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	patients []Patient
	listErr  error
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients = append([]Patient{p.Clone()}, m.patients...)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	for i := range m.patients {
		if m.patients[i].ID == id {
			cp := m.patients[i].Clone()
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	for i := range m.patients {
		if m.patients[i].ID == p.ID {
			m.patients[i] = p.Clone()
			return nil
		}
	}
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range m.patients {
		if m.patients[i].ID == id {
			m.patients = append(m.patients[:i], m.patients[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]Patient, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Patient, len(m.patients))
	copy(out, m.patients)
	return out, nil
}

func (m *mockRepo) ReplaceAll(_ context.Context, patients []Patient) error {
	m.patients = patients
	return nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(&mockRepo{})
	ctx := context.Background()

	tests := []struct {
		name    string
		patient Patient
		wantErr string
	}{
		{"missing name", Patient{Name: "  "}, "name is required"},
		{"negative age", Patient{Name: "Ana", Age: -3}, "non-negative"},
		{
			"duplicate routes",
			Patient{Name: "Ana", ClinicalRoutes: []string{"Endodontics", "endodontics"}},
			"duplicate clinical route",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, &tt.patient)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Create() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc := NewService(&mockRepo{})
	p := Patient{Name: "Ana Torres", Age: 30}
	if err := svc.Create(context.Background(), &p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.FolderColor != FolderBlue {
		t.Errorf("folder color = %s, want %s", p.FolderColor, FolderBlue)
	}
	if p.PaymentState != PaymentPending {
		t.Errorf("payment state = %s, want %s", p.PaymentState, PaymentPending)
	}
	if p.ID == uuid.Nil {
		t.Error("id not assigned")
	}
}

func TestSearch(t *testing.T) {
	repo := &mockRepo{patients: []Patient{
		{ID: uuid.New(), Name: "Ana Torres", FolderNumber: "EXP-001"},
		{ID: uuid.New(), Name: "Bruno Diaz", FolderNumber: "EXP-002"},
		{ID: uuid.New(), Name: "Carla Mendez", FolderNumber: "P-77"},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	tests := []struct {
		name string
		term string
		want int
	}{
		{"empty term returns all", "", 3},
		{"by name fragment", "torr", 1},
		{"by folder prefix", "exp-", 2},
		{"case insensitive", "BRUNO", 1},
		{"no match", "zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.term)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) returned %d patients, want %d", tt.term, len(got), tt.want)
			}
		})
	}
}

func TestLookupByFolderNumbers(t *testing.T) {
	repo := &mockRepo{patients: []Patient{
		{ID: uuid.New(), Name: "Ana", FolderNumber: "EXP-001"},
		{ID: uuid.New(), Name: "Bruno", FolderNumber: "EXP-002"},
	}}
	svc := NewService(repo)

	got, err := svc.LookupByFolderNumbers(context.Background(),
		[]string{" exp-001 ", "EXP-001", "EXP-404", "", "exp-002"})
	if err != nil {
		t.Fatalf("LookupByFolderNumbers() error = %v", err)
	}
	if len(got.Found) != 2 {
		t.Fatalf("found %d patients, want 2 (duplicates collapse)", len(got.Found))
	}
	if got.Found[0].Name != "Ana" || got.Found[1].Name != "Bruno" {
		t.Errorf("found order = %s, %s", got.Found[0].Name, got.Found[1].Name)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "EXP-404" {
		t.Errorf("missing = %v, want [EXP-404]", got.Missing)
	}
}

func TestLookupByFolderNumbers_SplitsPastedBlob(t *testing.T) {
	repo := &mockRepo{patients: []Patient{
		{ID: uuid.New(), Name: "Ana", FolderNumber: "EXP-001"},
		{ID: uuid.New(), Name: "Bruno", FolderNumber: "EXP-002"},
		{ID: uuid.New(), Name: "Carla", FolderNumber: "EXP-003"},
	}}
	svc := NewService(repo)

	// One pasted blob mixing commas, spaces, and newlines.
	got, err := svc.LookupByFolderNumbers(context.Background(),
		[]string{"EXP-001, EXP-002\nEXP-003\tEXP-404"})
	if err != nil {
		t.Fatalf("LookupByFolderNumbers() error = %v", err)
	}
	if len(got.Found) != 3 {
		t.Fatalf("found %d patients, want 3", len(got.Found))
	}
	if len(got.Missing) != 1 || got.Missing[0] != "EXP-404" {
		t.Errorf("missing = %v, want [EXP-404]", got.Missing)
	}
}

func TestLookupByFolderNumbers_DuplicateFolders(t *testing.T) {
	// Folder numbers are unique by convention only. When two records share
	// one, the earlier record in collection order resolves.
	repo := &mockRepo{patients: []Patient{
		{ID: uuid.New(), Name: "First", FolderNumber: "EXP-001"},
		{ID: uuid.New(), Name: "Second", FolderNumber: "EXP-001"},
	}}
	svc := NewService(repo)

	got, err := svc.LookupByFolderNumbers(context.Background(), []string{"EXP-001"})
	if err != nil {
		t.Fatalf("LookupByFolderNumbers() error = %v", err)
	}
	if len(got.Found) != 1 {
		t.Fatalf("found %d patients, want 1", len(got.Found))
	}
	if got.Found[0].Name != "First" {
		t.Errorf("resolved %q, want the first match in collection order", got.Found[0].Name)
	}
}

func TestSetStatusFlag(t *testing.T) {
	id := uuid.New()
	repo := &mockRepo{patients: []Patient{
		{ID: id, Name: "Ana", Retained: true, CaseDetails: "kept by instructor"},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.SetStatusFlag(ctx, id, FlagLegalCase, true, "")
	if err != nil {
		t.Fatalf("SetStatusFlag() error = %v", err)
	}
	if !p.LegalCase || p.Retained {
		t.Error("legal case should replace retained")
	}
	if p.CaseDetails != "kept by instructor" {
		t.Errorf("empty details overwrote existing: %q", p.CaseDetails)
	}

	p, err = svc.SetStatusFlag(ctx, id, FlagLegalCase, false, "resolved in court")
	if err != nil {
		t.Fatalf("SetStatusFlag() error = %v", err)
	}
	if p.LegalCase {
		t.Error("flag not cleared")
	}
	if p.CaseDetails != "resolved in court" {
		t.Errorf("details = %q, want %q", p.CaseDetails, "resolved in court")
	}

	if _, err := svc.SetStatusFlag(ctx, id, StatusFlag("archived"), true, ""); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestAddStudy(t *testing.T) {
	id := uuid.New()
	repo := &mockRepo{patients: []Patient{{ID: id, Name: "Ana"}}}
	svc := NewService(repo)
	ctx := context.Background()

	tests := []struct {
		name    string
		study   Study
		wantErr bool
	}{
		{"valid", Study{Name: "panoramic", Kind: StudyImage, Category: CategoryImagingStudy}, false},
		{"missing name", Study{Kind: StudyImage, Category: CategoryImagingStudy}, true},
		{"bad kind", Study{Name: "x", Kind: "video", Category: CategoryImagingStudy}, true},
		{"bad category", Study{Name: "x", Kind: StudyDocument, Category: "misc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddStudy(ctx, id, tt.study)
			if (err != nil) != tt.wantErr {
				t.Errorf("AddStudy() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	p, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Studies) != 1 {
		t.Fatalf("patient has %d studies, want 1", len(p.Studies))
	}
	if p.Studies[0].ID == uuid.Nil {
		t.Error("study id not assigned")
	}
}

func TestRemoveStudy(t *testing.T) {
	id := uuid.New()
	studyID := uuid.New()
	repo := &mockRepo{patients: []Patient{{
		ID:   id,
		Name: "Ana",
		Studies: []Study{
			{ID: studyID, Name: "panoramic", Kind: StudyImage, Category: CategoryImagingStudy},
			{ID: uuid.New(), Name: "consent", Kind: StudyDocument, Category: CategoryClinicalHistory},
		},
	}}}
	svc := NewService(repo)

	p, err := svc.RemoveStudy(context.Background(), id, studyID)
	if err != nil {
		t.Fatalf("RemoveStudy() error = %v", err)
	}
	if len(p.Studies) != 1 || p.Studies[0].Name != "consent" {
		t.Errorf("studies after removal = %v", p.Studies)
	}
}

func TestReplaceAll_RowValidation(t *testing.T) {
	svc := NewService(&mockRepo{})
	err := svc.ReplaceAll(context.Background(), []Patient{
		{Name: "Ana"},
		{Name: ""},
	})
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Errorf("ReplaceAll() error = %v, want row 2 failure", err)
	}
}
