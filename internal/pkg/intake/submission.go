package intake

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Submission is the JSON body posted by the contact and quote forms. Every
// field is optional at the type level; which ones are required depends on
// the pipeline.
type Submission struct {
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company"`
	EventDate      string     `json:"event_date"`
	Venue          string     `json:"venue"`
	EventType      string     `json:"event_type"`
	AudienceSize   FlexString `json:"audience_size"`
	Services       StringList `json:"services"`
	ServicesNeeded string     `json:"services_needed"`
	BudgetRange    string     `json:"budget_range"`
	Message        string     `json:"message"`

	// Website and Honeypot are hidden inputs real visitors never fill in.
	Website  string `json:"website"`
	Honeypot string `json:"honeypot"`

	TurnstileToken string `json:"turnstileToken"`
}

// IsBot reports whether a honeypot input carries any value, whitespace
// included.
func (s Submission) IsBot() bool {
	return s.Website != "" || s.Honeypot != ""
}

// Normalized returns a copy with every text field trimmed and the two
// services inputs merged into Services.
func (s Submission) Normalized() Submission {
	out := Submission{
		Name:           strings.TrimSpace(s.Name),
		Email:          strings.TrimSpace(s.Email),
		Phone:          strings.TrimSpace(s.Phone),
		Company:        strings.TrimSpace(s.Company),
		EventDate:      strings.TrimSpace(s.EventDate),
		Venue:          strings.TrimSpace(s.Venue),
		EventType:      strings.TrimSpace(s.EventType),
		AudienceSize:   FlexString(strings.TrimSpace(string(s.AudienceSize))),
		BudgetRange:    strings.TrimSpace(s.BudgetRange),
		Message:        strings.TrimSpace(s.Message),
		TurnstileToken: strings.TrimSpace(s.TurnstileToken),
	}

	services := make(StringList, 0, len(s.Services))
	for _, svc := range s.Services {
		if v := strings.TrimSpace(svc); v != "" {
			services = append(services, v)
		}
	}
	if len(services) == 0 && strings.TrimSpace(s.ServicesNeeded) != "" {
		services = splitList(s.ServicesNeeded)
	}
	if len(services) > 0 {
		out.Services = services
		out.ServicesNeeded = strings.Join(services, ", ")
	}
	return out
}

// Validated is a submission that passed every guard, plus request metadata.
type Validated struct {
	Submission
	RemoteAddr string
	UserAgent  string
	ReceivedAt time.Time
}

// FlexString accepts a JSON string or number ("150" and 150 both decode).
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// StringList accepts either a JSON array of strings or a single
// comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = splitList(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func splitList(s string) StringList {
	var out StringList
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
