// Package spreadsheet serializes the patient roster to a single-sheet xlsx
// workbook and parses such a workbook back into records. Photos and study
// attachments never travel through the spreadsheet: they are omitted on
// export and initialized empty on import.
package spreadsheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/dental/archive/internal/domain/patient"
)

const SheetName = "Patients"

// column describes one exported field: the machine header written on
// export and the alternative headers accepted on import, checked in order.
type column struct {
	name    string
	aliases []string
	get     func(p *patient.Patient) string
	set     func(p *patient.Patient, value string, now time.Time)
}

// Codec implements the roster spreadsheet format.
type Codec struct {
	now func() time.Time
}

func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// truthy accepts the case-insensitive token set the archive has always
// tolerated in hand-edited sheets.
func truthy(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "SI", "TRUE", "1":
		return true
	}
	return false
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "01/02/2006 15:04:05"}

// parseDate normalizes a cell to YYYY-MM-DD, falling back to the current
// date when the cell is blank or unparseable.
func parseDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}

// parseOptionalDate is parseDate without the fallback: blank stays blank.
func parseOptionalDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func splitRoutes(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		route := strings.TrimSpace(part)
		key := strings.ToLower(route)
		if route == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, route)
	}
	return out
}

var columns = []column{
	{
		name: "id", aliases: []string{"ID"},
		get: func(p *patient.Patient) string { return p.ID.String() },
		set: func(p *patient.Patient, v string, _ time.Time) {
			if id, err := uuid.Parse(strings.TrimSpace(v)); err == nil {
				p.ID = id
			} else {
				p.ID = uuid.New()
			}
		},
	},
	{
		name: "folder_number", aliases: []string{"Folder Number", "Folder"},
		get: func(p *patient.Patient) string { return p.FolderNumber },
		set: func(p *patient.Patient, v string, _ time.Time) { p.FolderNumber = strings.TrimSpace(v) },
	},
	{
		name: "name", aliases: []string{"Name", "Patient Name"},
		get: func(p *patient.Patient) string { return p.Name },
		set: func(p *patient.Patient, v string, _ time.Time) {
			p.Name = strings.TrimSpace(v)
			if p.Name == "" {
				p.Name = "Unnamed"
			}
		},
	},
	{
		name: "age", aliases: []string{"Age"},
		get: func(p *patient.Patient) string { return strconv.Itoa(p.Age) },
		set: func(p *patient.Patient, v string, _ time.Time) {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				p.Age = n
			}
		},
	},
	{
		name: "origin_state", aliases: []string{"Origin State", "Origin"},
		get: func(p *patient.Patient) string { return p.OriginState },
		set: func(p *patient.Patient, v string, _ time.Time) { p.OriginState = strings.TrimSpace(v) },
	},
	{
		name: "created_date", aliases: []string{"Created Date", "Date Created"},
		get: func(p *patient.Patient) string { return p.CreatedDate },
		set: func(p *patient.Patient, v string, now time.Time) { p.CreatedDate = parseDate(v, now) },
	},
	{
		name: "term", aliases: []string{"Term", "Academic Term"},
		get: func(p *patient.Patient) string { return p.Term },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Term = strings.TrimSpace(v) },
	},
	{
		name: "address", aliases: []string{"Address"},
		get: func(p *patient.Patient) string { return p.Address },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Address = strings.TrimSpace(v) },
	},
	{
		name: "phone", aliases: []string{"Phone"},
		get: func(p *patient.Patient) string { return p.Phone },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Phone = strings.TrimSpace(v) },
	},
	{
		name: "phone2", aliases: []string{"Phone 2"},
		get: func(p *patient.Patient) string { return p.Phone2 },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Phone2 = strings.TrimSpace(v) },
	},
	{
		name: "phone3", aliases: []string{"Phone 3"},
		get: func(p *patient.Patient) string { return p.Phone3 },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Phone3 = strings.TrimSpace(v) },
	},
	{
		name: "email", aliases: []string{"Email"},
		get: func(p *patient.Patient) string { return p.Email },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Email = strings.TrimSpace(v) },
	},
	{
		name: "clinical_routes", aliases: []string{"Clinical Routes", "Routes"},
		get: func(p *patient.Patient) string { return strings.Join(p.ClinicalRoutes, ", ") },
		set: func(p *patient.Patient, v string, _ time.Time) { p.ClinicalRoutes = splitRoutes(v) },
	},
	{
		name: "student", aliases: []string{"Student", "Assigned Student"},
		get: func(p *patient.Patient) string { return p.Student },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Student = strings.TrimSpace(v) },
	},
	{
		name: "clinician", aliases: []string{"Clinician", "Treating Clinician"},
		get: func(p *patient.Patient) string { return p.Clinician },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Clinician = strings.TrimSpace(v) },
	},
	{
		name: "instructor", aliases: []string{"Instructor", "Authorizing Instructor"},
		get: func(p *patient.Patient) string { return p.Instructor },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Instructor = strings.TrimSpace(v) },
	},
	{
		name: "last_treatment", aliases: []string{"Last Treatment"},
		get: func(p *patient.Patient) string { return p.LastTreatment },
		set: func(p *patient.Patient, v string, _ time.Time) { p.LastTreatment = strings.TrimSpace(v) },
	},
	{
		name: "record_status", aliases: []string{"Record Status"},
		get: func(p *patient.Patient) string { return p.RecordStatus },
		set: func(p *patient.Patient, v string, _ time.Time) {
			p.RecordStatus = strings.TrimSpace(v)
			if p.RecordStatus == "" {
				p.RecordStatus = "Active"
			}
		},
	},
	{
		name: "folder_color", aliases: []string{"Folder Color"},
		get: func(p *patient.Patient) string { return string(p.FolderColor) },
		set: func(p *patient.Patient, v string, _ time.Time) {
			p.FolderColor = patient.ParseFolderColor(strings.TrimSpace(v))
		},
	},
	{
		name: "dead_file", aliases: []string{"Dead File"},
		get: func(p *patient.Patient) string { return yesNo(p.DeadFile) },
		set: func(p *patient.Patient, v string, _ time.Time) { p.DeadFile = truthy(v) },
	},
	{
		name: "special_case", aliases: []string{"Special Case"},
		get: func(p *patient.Patient) string { return yesNo(p.SpecialCase) },
		set: func(p *patient.Patient, v string, _ time.Time) { p.SpecialCase = truthy(v) },
	},
	{
		name: "legal_case", aliases: []string{"Legal Case"},
		get: func(p *patient.Patient) string { return yesNo(p.LegalCase) },
		set: func(p *patient.Patient, v string, _ time.Time) { p.LegalCase = truthy(v) },
	},
	{
		name: "retained", aliases: []string{"Retained"},
		get: func(p *patient.Patient) string { return yesNo(p.Retained) },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Retained = truthy(v) },
	},
	{
		name: "lost", aliases: []string{"Lost"},
		get: func(p *patient.Patient) string { return yesNo(p.Lost) },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Lost = truthy(v) },
	},
	{
		name: "discharged", aliases: []string{"Discharged"},
		get: func(p *patient.Patient) string { return yesNo(p.Discharged) },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Discharged = truthy(v) },
	},
	{
		name: "case_details", aliases: []string{"Case Details"},
		get: func(p *patient.Patient) string { return p.CaseDetails },
		set: func(p *patient.Patient, v string, _ time.Time) { p.CaseDetails = strings.TrimSpace(v) },
	},
	{
		name: "risk_level", aliases: []string{"Risk Level", "ASA"},
		get: func(p *patient.Patient) string { return string(p.RiskLevel) },
		set: func(p *patient.Patient, v string, _ time.Time) {
			p.RiskLevel = patient.ParseRiskLevel(strings.TrimSpace(v))
		},
	},
	{
		name: "last_visit", aliases: []string{"Last Visit"},
		get: func(p *patient.Patient) string { return p.LastVisit },
		set: func(p *patient.Patient, v string, _ time.Time) { p.LastVisit = parseOptionalDate(v) },
	},
	{
		name: "next_appointment", aliases: []string{"Next Appointment"},
		get: func(p *patient.Patient) string { return p.NextAppointment },
		set: func(p *patient.Patient, v string, _ time.Time) { p.NextAppointment = parseOptionalDate(v) },
	},
	{
		name: "medical_history", aliases: []string{"Medical History"},
		get: func(p *patient.Patient) string { return p.MedicalHistory },
		set: func(p *patient.Patient, v string, _ time.Time) { p.MedicalHistory = strings.TrimSpace(v) },
	},
	{
		name: "payment_state", aliases: []string{"Payment State", "Payment"},
		get: func(p *patient.Patient) string { return string(p.PaymentState) },
		set: func(p *patient.Patient, v string, _ time.Time) {
			p.PaymentState = patient.ParsePaymentState(strings.TrimSpace(v))
		},
	},
	{
		name: "notes", aliases: []string{"Notes"},
		get: func(p *patient.Patient) string { return p.Notes },
		set: func(p *patient.Patient, v string, _ time.Time) { p.Notes = strings.TrimSpace(v) },
	},
}

// Export writes the roster to a one-sheet workbook. Photo and studies are
// omitted to keep files small and importable.
func (c *Codec) Export(patients []patient.Patient) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := make([]interface{}, len(columns))
	for i, col := range columns {
		headers[i] = col.name
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := range patients {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			row[j] = col.get(&patients[i])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Import parses the first sheet of a workbook into patient records.
// Unrecognized columns are ignored; recognized columns are matched by
// machine name first, then by human-readable alias. Imported records never
// carry a photo or attachments.
func (c *Codec) Import(data []byte) ([]patient.Patient, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []patient.Patient{}, nil
	}

	// Resolve each field to a column index via its fallback chain.
	headerIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		headerIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	colIdx := make([]int, len(columns))
	for i, col := range columns {
		colIdx[i] = -1
		if idx, ok := headerIdx[strings.ToLower(col.name)]; ok {
			colIdx[i] = idx
			continue
		}
		for _, alias := range col.aliases {
			if idx, ok := headerIdx[strings.ToLower(alias)]; ok {
				colIdx[i] = idx
				break
			}
		}
	}

	now := c.now()
	out := make([]patient.Patient, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		p := patient.Patient{
			ID:           uuid.New(),
			FolderColor:  patient.FolderBlue,
			RiskLevel:    patient.ASAI,
			PaymentState: patient.PaymentPending,
			RecordStatus: "Active",
			Name:         "Unnamed",
			CreatedDate:  now.Format("2006-01-02"),
			Studies:      []patient.Study{},
		}
		for i, col := range columns {
			value := ""
			if colIdx[i] >= 0 && colIdx[i] < len(row) {
				value = row[colIdx[i]]
			}
			if value == "" && colIdx[i] < 0 {
				continue
			}
			col.set(&p, value, now)
		}
		out = append(out, p)
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
