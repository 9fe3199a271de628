package patient

import (
	"time"

	"github.com/google/uuid"
)

// FolderColor is the physical folder color/category.
type FolderColor string

const (
	FolderBlue      FolderColor = "blue"
	FolderGreen     FolderColor = "green"
	FolderPediatric FolderColor = "pediatric"
)

// ParseFolderColor maps free text to a folder color, defaulting to blue.
func ParseFolderColor(s string) FolderColor {
	switch FolderColor(s) {
	case FolderBlue, FolderGreen, FolderPediatric:
		return FolderColor(s)
	}
	return FolderBlue
}

// RiskLevel is the ASA physical status classification.
type RiskLevel string

const (
	ASAI   RiskLevel = "ASA I"
	ASAII  RiskLevel = "ASA II"
	ASAIII RiskLevel = "ASA III"
	ASAIV  RiskLevel = "ASA IV"
	ASAV   RiskLevel = "ASA V"
)

// RiskLevels lists the five levels in severity order.
var RiskLevels = []RiskLevel{ASAI, ASAII, ASAIII, ASAIV, ASAV}

// ParseRiskLevel maps free text to a risk level, defaulting to ASA I.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case ASAI, ASAII, ASAIII, ASAIV, ASAV:
		return RiskLevel(s)
	}
	return ASAI
}

// PaymentState tracks the account standing of a patient.
type PaymentState string

const (
	PaymentCurrent PaymentState = "current"
	PaymentPending PaymentState = "pending"
	PaymentOwing   PaymentState = "owing"
)

// ParsePaymentState maps free text to a payment state, defaulting to pending.
func ParsePaymentState(s string) PaymentState {
	switch PaymentState(s) {
	case PaymentCurrent, PaymentPending, PaymentOwing:
		return PaymentState(s)
	}
	return PaymentPending
}

// StudyKind distinguishes image attachments from document attachments.
type StudyKind string

const (
	StudyImage    StudyKind = "image"
	StudyDocument StudyKind = "document"
)

// StudyCategory is the archival category of an attachment.
type StudyCategory string

const (
	CategoryClinicalHistory StudyCategory = "clinical_history"
	CategoryImagingStudy    StudyCategory = "imaging_study"
)

// Study is a document or image attached to a patient record. The payload is
// embedded (base64), never an external reference, so a record export carries
// everything the folder held.
type Study struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Kind     StudyKind     `json:"kind"`
	Category StudyCategory `json:"category"`
	Date     string        `json:"date"`
	Payload  string        `json:"payload"`
}

// StatusFlag names one of the six mutually exclusive folder states.
type StatusFlag string

const (
	FlagDeadFile    StatusFlag = "dead_file"
	FlagSpecialCase StatusFlag = "special_case"
	FlagLegalCase   StatusFlag = "legal_case"
	FlagRetained    StatusFlag = "retained"
	FlagLost        StatusFlag = "lost"
	FlagDischarged  StatusFlag = "discharged"
)

// StatusFlags lists the six flags in display order.
var StatusFlags = []StatusFlag{
	FlagDeadFile, FlagSpecialCase, FlagLegalCase,
	FlagRetained, FlagLost, FlagDischarged,
}

// Patient is one archival record. FolderNumber is the human-assigned lookup
// key used by search and bulk selection; the system expects it to be unique
// by convention but does not enforce it.
type Patient struct {
	ID           uuid.UUID `json:"id"`
	FolderNumber string    `json:"folder_number"`
	Photo        string    `json:"photo,omitempty"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	OriginState  string    `json:"origin_state"`

	CreatedDate string `json:"created_date"`
	Term        string `json:"term"`

	Address string `json:"address"`
	Phone   string `json:"phone"`
	Phone2  string `json:"phone2"`
	Phone3  string `json:"phone3"`
	Email   string `json:"email"`

	ClinicalRoutes []string    `json:"clinical_routes"`
	Student        string      `json:"student"`
	Clinician      string      `json:"clinician"`
	Instructor     string      `json:"instructor"`
	LastTreatment  string      `json:"last_treatment"`
	RecordStatus   string      `json:"record_status"`
	FolderColor    FolderColor `json:"folder_color"`

	DeadFile    bool   `json:"dead_file"`
	SpecialCase bool   `json:"special_case"`
	LegalCase   bool   `json:"legal_case"`
	Retained    bool   `json:"retained"`
	Lost        bool   `json:"lost"`
	Discharged  bool   `json:"discharged"`
	CaseDetails string `json:"case_details,omitempty"`

	RiskLevel RiskLevel `json:"risk_level,omitempty"`

	LastVisit       string       `json:"last_visit"`
	NextAppointment string       `json:"next_appointment"`
	MedicalHistory  string       `json:"medical_history"`
	PaymentState    PaymentState `json:"payment_state"`
	Notes           string       `json:"notes"`

	Studies []Study `json:"studies"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Flag reports whether the named status flag is set.
func (p *Patient) Flag(f StatusFlag) bool {
	switch f {
	case FlagDeadFile:
		return p.DeadFile
	case FlagSpecialCase:
		return p.SpecialCase
	case FlagLegalCase:
		return p.LegalCase
	case FlagRetained:
		return p.Retained
	case FlagLost:
		return p.Lost
	case FlagDischarged:
		return p.Discharged
	}
	return false
}

// SetFlag activates or clears one status flag. Activating a flag clears the
// other five so that at most one is ever set; CaseDetails is left untouched
// so the explanation survives reclassification.
func (p *Patient) SetFlag(f StatusFlag, active bool) {
	if active {
		p.DeadFile = false
		p.SpecialCase = false
		p.LegalCase = false
		p.Retained = false
		p.Lost = false
		p.Discharged = false
	}
	switch f {
	case FlagDeadFile:
		p.DeadFile = active
	case FlagSpecialCase:
		p.SpecialCase = active
	case FlagLegalCase:
		p.LegalCase = active
	case FlagRetained:
		p.Retained = active
	case FlagLost:
		p.Lost = active
	case FlagDischarged:
		p.Discharged = active
	}
}

// StatusLabel derives the short status shown in listings and AI projections.
func (p *Patient) StatusLabel() string {
	switch {
	case p.DeadFile:
		return "dead file"
	case p.Lost:
		return "lost"
	default:
		return "active"
	}
}

// Clone returns a deep copy. Clinic requests snapshot patients by value, so
// later edits to the live record must not leak into an issued request.
func (p Patient) Clone() Patient {
	cp := p
	cp.ClinicalRoutes = append([]string(nil), p.ClinicalRoutes...)
	cp.Studies = append([]Study(nil), p.Studies...)
	return cp
}
