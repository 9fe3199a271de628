// Package stats derives the dashboard summaries from the patient and
// request collections. Every function is pure: same records and same
// reference date, same output.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/dental/archive/internal/domain/patient"
	"github.com/dental/archive/internal/domain/request"
)

// StatusTally counts patients per exclusive status flag.
type StatusTally struct {
	DeadFile    int `json:"dead_file"`
	SpecialCase int `json:"special_case"`
	LegalCase   int `json:"legal_case"`
	Retained    int `json:"retained"`
	Lost        int `json:"lost"`
	Discharged  int `json:"discharged"`
}

// RiskBucket is one ASA level's share of the roster.
type RiskBucket struct {
	Level   patient.RiskLevel `json:"level"`
	Count   int               `json:"count"`
	Percent float64           `json:"percent"`
}

// TagCount pairs a label with its tally. Used for clinical-route load and
// origin-region tables.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AgeBucket is one band of the age histogram. Height is the bar height
// normalized against the fullest bucket.
type AgeBucket struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Height float64 `json:"height"`
}

// RequestVolume holds the time-bucketed roll-up of requested folders.
type RequestVolume struct {
	Today        int `json:"today"`
	Week         int `json:"week"`
	Month        int `json:"month"`
	Quatrimester int `json:"quatrimester"`
	Year         int `json:"year"`
}

// Summary is the full dashboard payload.
type Summary struct {
	TotalPatients int                          `json:"total_patients"`
	Status        StatusTally                  `json:"status"`
	Risk          []RiskBucket                 `json:"risk"`
	TopRoutes     []TagCount                   `json:"top_routes"`
	Payments      map[patient.PaymentState]int `json:"payments"`
	TopOrigins    []TagCount                   `json:"top_origins"`
	AgeGroups     []AgeBucket                  `json:"age_groups"`
	Requests      RequestVolume                `json:"requests"`
	GeneratedAt   time.Time                    `json:"generated_at"`
}

// Summarize computes the whole dashboard for the given reference date.
func Summarize(patients []patient.Patient, requests []request.ClinicRequest, now time.Time) *Summary {
	return &Summary{
		TotalPatients: len(patients),
		Status:        TallyStatus(patients),
		Risk:          RiskDistribution(patients),
		TopRoutes:     RouteLoad(patients, 5),
		Payments:      PaymentTally(patients),
		TopOrigins:    OriginTally(patients, 5),
		AgeGroups:     AgeHistogram(patients),
		Requests:      RollUpRequests(requests, now),
		GeneratedAt:   now,
	}
}

// TallyStatus counts patients per status flag. Flags are mutually exclusive
// on any well-formed record, so no patient counts twice.
func TallyStatus(patients []patient.Patient) StatusTally {
	var t StatusTally
	for _, p := range patients {
		switch {
		case p.DeadFile:
			t.DeadFile++
		case p.SpecialCase:
			t.SpecialCase++
		case p.LegalCase:
			t.LegalCase++
		case p.Retained:
			t.Retained++
		case p.Lost:
			t.Lost++
		case p.Discharged:
			t.Discharged++
		}
	}
	return t
}

// RiskDistribution counts patients per ASA level. A record without an
// explicit level counts as ASA I. Percentages carry one decimal, rounded
// half-up; an empty roster yields zero percentages rather than dividing.
func RiskDistribution(patients []patient.Patient) []RiskBucket {
	counts := make(map[patient.RiskLevel]int, len(patient.RiskLevels))
	for _, p := range patients {
		level := p.RiskLevel
		if level == "" {
			level = patient.ASAI
		}
		counts[level]++
	}
	total := len(patients)
	out := make([]RiskBucket, 0, len(patient.RiskLevels))
	for _, level := range patient.RiskLevels {
		b := RiskBucket{Level: level, Count: counts[level]}
		if total > 0 {
			b.Percent = roundHalfUp(float64(b.Count)/float64(total)*100, 1)
		}
		out = append(out, b)
	}
	return out
}

// RouteLoad tallies clinical-route tags across all patients. A patient with
// three tags contributes to three tallies. Results are sorted by count
// descending, ties broken by first-encountered order, truncated to limit.
func RouteLoad(patients []patient.Patient, limit int) []TagCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for _, p := range patients {
		for _, route := range p.ClinicalRoutes {
			if _, ok := firstSeen[route]; !ok {
				firstSeen[route] = len(firstSeen)
			}
			counts[route]++
		}
	}
	return topCounts(counts, firstSeen, limit)
}

// PaymentTally counts patients per payment state.
func PaymentTally(patients []patient.Patient) map[patient.PaymentState]int {
	counts := make(map[patient.PaymentState]int)
	for _, p := range patients {
		state := p.PaymentState
		if state == "" {
			state = patient.PaymentPending
		}
		counts[state]++
	}
	return counts
}

// OriginTally counts patients per origin region, bucketing blanks under
// "unspecified", and keeps the top entries.
func OriginTally(patients []patient.Patient, limit int) []TagCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for _, p := range patients {
		origin := p.OriginState
		if origin == "" {
			origin = "unspecified"
		}
		if _, ok := firstSeen[origin]; !ok {
			firstSeen[origin] = len(firstSeen)
		}
		counts[origin]++
	}
	return topCounts(counts, firstSeen, limit)
}

func topCounts(counts map[string]int, firstSeen map[string]int, limit int) []TagCount {
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Tag] < firstSeen[out[j].Tag]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ageBands are the fixed histogram boundaries.
var ageBands = []struct {
	label string
	max   int
}{
	{"0-11", 11},
	{"12-18", 18},
	{"19-26", 26},
	{"27-59", 59},
	{"60+", math.MaxInt},
}

// AgeHistogram buckets every patient into exactly one age band and
// normalizes bar heights against the fullest band.
func AgeHistogram(patients []patient.Patient) []AgeBucket {
	out := make([]AgeBucket, len(ageBands))
	for i, band := range ageBands {
		out[i].Label = band.label
	}
	for _, p := range patients {
		for i, band := range ageBands {
			if p.Age <= band.max {
				out[i].Count++
				break
			}
		}
	}
	max := 0
	for _, b := range out {
		if b.Count > max {
			max = b.Count
		}
	}
	if max > 0 {
		for i := range out {
			out[i].Height = float64(out[i].Count) / float64(max)
		}
	}
	return out
}

// quatrimester maps a month to one of the three fixed academic periods:
// Jan–Apr, May–Aug, Sep–Dec.
func quatrimester(m time.Month) int {
	switch {
	case m <= time.April:
		return 0
	case m <= time.August:
		return 1
	default:
		return 2
	}
}

// RollUpRequests accumulates the number of requested folders into the five
// time buckets, keyed on each request's scheduled date. Year-scoped buckets
// (today, month, quatrimester, year) require the scheduled year to match
// the current year; the trailing-week bucket is year-independent. Requests
// with unparseable dates are skipped, never fatal.
func RollUpRequests(requests []request.ClinicRequest, now time.Time) RequestVolume {
	var v RequestVolume
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -6)

	for _, r := range requests {
		scheduled, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
		if err != nil {
			continue
		}
		n := len(r.Patients)

		if scheduled.Year() == today.Year() {
			v.Year += n
			if quatrimester(scheduled.Month()) == quatrimester(today.Month()) {
				v.Quatrimester += n
			}
			if scheduled.Month() == today.Month() {
				v.Month += n
			}
			if scheduled.Equal(today) {
				v.Today += n
			}
		}

		// Trailing 7 calendar days including today, regardless of year.
		if !scheduled.Before(weekStart) && !scheduled.After(today) {
			v.Week += n
		}
	}
	return v
}

// roundHalfUp rounds x to the given number of decimals, halves away from
// zero going up.
func roundHalfUp(x float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Floor(x*shift+0.5) / shift
}
