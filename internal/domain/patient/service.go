package patient

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(p *Patient) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("patient name is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age must be non-negative")
	}
	if p.FolderColor == "" {
		p.FolderColor = FolderBlue
	}
	if p.PaymentState == "" {
		p.PaymentState = PaymentPending
	}
	// Clinical routes are a set in all but storage order: reject duplicates
	// rather than silently collapsing them.
	seen := make(map[string]bool, len(p.ClinicalRoutes))
	for _, route := range p.ClinicalRoutes {
		key := strings.ToLower(strings.TrimSpace(route))
		if seen[key] {
			return fmt.Errorf("duplicate clinical route %q", route)
		}
		seen[key] = true
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) ReplaceAll(ctx context.Context, patients []Patient) error {
	for i := range patients {
		if err := s.validate(&patients[i]); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return s.repo.ReplaceAll(ctx, patients)
}

// Search returns patients whose name or folder number contains the term,
// case-insensitive. An empty term returns the whole collection.
func (s *Service) Search(ctx context.Context, term string) ([]Patient, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}
	var out []Patient
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.FolderNumber), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

// LookupResult is the outcome of a bulk folder-number lookup.
type LookupResult struct {
	Found   []Patient `json:"found"`
	Missing []string  `json:"missing"`
}

// splitIdentifiers breaks a pasted blob into folder numbers. Whitespace,
// newlines, and commas all separate.
func splitIdentifiers(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// LookupByFolderNumbers resolves pasted folder numbers to records. Each
// entry may itself be a blob of several numbers separated by whitespace,
// commas, or newlines. Matching is case-insensitive and exact; identifiers
// with no match are reported back so the requester can fix typos. Duplicate
// identifiers resolve once.
func (s *Service) LookupByFolderNumbers(ctx context.Context, identifiers []string) (*LookupResult, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	// First match in collection order wins when folder numbers collide.
	byFolder := make(map[string]*Patient, len(all))
	for i := range all {
		key := strings.ToLower(all[i].FolderNumber)
		if _, ok := byFolder[key]; !ok {
			byFolder[key] = &all[i]
		}
	}
	result := &LookupResult{}
	taken := make(map[string]bool)
	for _, raw := range identifiers {
		for _, folder := range splitIdentifiers(raw) {
			id := strings.ToLower(folder)
			if taken[id] {
				continue
			}
			taken[id] = true
			if p, ok := byFolder[id]; ok {
				result.Found = append(result.Found, p.Clone())
			} else {
				result.Missing = append(result.Missing, folder)
			}
		}
	}
	return result, nil
}

// SetStatusFlag toggles one of the six exclusive status flags on a patient.
func (s *Service) SetStatusFlag(ctx context.Context, id uuid.UUID, flag StatusFlag, active bool, details string) (*Patient, error) {
	valid := false
	for _, f := range StatusFlags {
		if f == flag {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("unknown status flag %q", flag)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.SetFlag(flag, active)
	if details != "" {
		p.CaseDetails = details
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddStudy attaches a document or image to a patient record.
func (s *Service) AddStudy(ctx context.Context, patientID uuid.UUID, study Study) (*Patient, error) {
	if strings.TrimSpace(study.Name) == "" {
		return nil, fmt.Errorf("study name is required")
	}
	if study.Kind != StudyImage && study.Kind != StudyDocument {
		return nil, fmt.Errorf("study kind must be %q or %q", StudyImage, StudyDocument)
	}
	if study.Category != CategoryClinicalHistory && study.Category != CategoryImagingStudy {
		return nil, fmt.Errorf("study category must be %q or %q", CategoryClinicalHistory, CategoryImagingStudy)
	}
	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if study.ID == uuid.Nil {
		study.ID = uuid.New()
	}
	p.Studies = append(p.Studies, study)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveStudy detaches a study from a patient record. Studies are owned by
// their patient and only ever removed explicitly.
func (s *Service) RemoveStudy(ctx context.Context, patientID, studyID uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for i := range p.Studies {
		if p.Studies[i].ID == studyID {
			p.Studies = append(p.Studies[:i], p.Studies[i+1:]...)
			break
		}
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
