// Package ai bridges the archive to a generative text service. The bridge
// never surfaces an error to its callers: any transport or service failure
// becomes a fixed-language message, so the assistant panel always has
// something to show.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dental/archive/internal/domain/patient"
)

// Fixed user-facing failure messages.
const (
	QueryFallback   = "The assistant could not process your query. Please check the connection and try again."
	SummaryFallback = "The clinical summary could not be generated."
	EmptyAnswer     = "The assistant returned no answer."
)

// Generator abstracts the text-generation backend so the bridge can be
// exercised without the live service.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Bridge prepares prompts, calls the generator, and absorbs its failures.
type Bridge struct {
	gen          Generator
	queryModel   string
	summaryModel string
}

func NewBridge(gen Generator, queryModel, summaryModel string) *Bridge {
	return &Bridge{gen: gen, queryModel: queryModel, summaryModel: summaryModel}
}

// projection is the bounded per-patient view sent with queries. The full
// record (attachments, history, contact details) never leaves the archive.
type projection struct {
	Folder        string   `json:"folder"`
	FolderColor   string   `json:"folder_color"`
	Name          string   `json:"name"`
	Routes        []string `json:"routes"`
	Student       string   `json:"student"`
	Clinician     string   `json:"clinician"`
	LastTreatment string   `json:"last_treatment"`
	Payment       string   `json:"payment"`
	Status        string   `json:"status"`
}

// maxProjectedPatients bounds how many records travel with a query. Prompts
// stay a fixed size no matter how large the roster grows.
const maxProjectedPatients = 50

// QueryPrompt renders the full query prompt: templated instructions, the
// JSON projection of the roster (capped at maxProjectedPatients records),
// and the literal user question.
func QueryPrompt(question string, patients []patient.Patient) string {
	if len(patients) > maxProjectedPatients {
		patients = patients[:maxProjectedPatients]
	}
	snapshot := make([]projection, 0, len(patients))
	for i := range patients {
		p := &patients[i]
		snapshot = append(snapshot, projection{
			Folder:        p.FolderNumber,
			FolderColor:   string(p.FolderColor),
			Name:          p.Name,
			Routes:        p.ClinicalRoutes,
			Student:       p.Student,
			Clinician:     p.Clinician,
			LastTreatment: p.LastTreatment,
			Payment:       string(p.PaymentState),
			Status:        p.StatusLabel(),
		})
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		data = []byte("[]")
	}
	return fmt.Sprintf(`Act as an expert administrative and clinical assistant for a dental clinic archive.

Current record database (JSON):
%s

User query: %q

Instructions:
1. Answer professionally and concisely.
2. Format statistics as lists when requested.
3. When drafting a message for a patient, use a cordial clinical tone.`, data, question)
}

// SummaryPrompt renders the narrower single-patient prompt.
func SummaryPrompt(p *patient.Patient) string {
	return fmt.Sprintf(`Write an executive clinical summary for the dentist about the following patient:
Name: %s
Folder: %s
Medical history: %s
Last treatment: %s
Risk classification: %s

Focus on clinical risks and alerts.`,
		p.Name, p.FolderNumber, p.MedicalHistory, p.LastTreatment, p.RiskLevel)
}

// Query answers a free-text question over the roster. It always returns
// display-ready text, never an error.
func (b *Bridge) Query(ctx context.Context, question string, patients []patient.Patient) string {
	answer, err := b.gen.Generate(ctx, b.queryModel, QueryPrompt(question, patients))
	if err != nil {
		return QueryFallback
	}
	if strings.TrimSpace(answer) == "" {
		return EmptyAnswer
	}
	return answer
}

// PatientSummary produces a short clinical-risk summary for one patient.
func (b *Bridge) PatientSummary(ctx context.Context, p *patient.Patient) string {
	answer, err := b.gen.Generate(ctx, b.summaryModel, SummaryPrompt(p))
	if err != nil {
		return SummaryFallback
	}
	if strings.TrimSpace(answer) == "" {
		return SummaryFallback
	}
	return answer
}
