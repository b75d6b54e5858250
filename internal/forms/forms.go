// Package forms holds the pre-network submission checks. Validation runs
// before any request is issued, so a failing form never causes a partial
// write; the first violated constraint is reported as the user-facing error.
package forms

import (
	"strings"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/hours"
)

// WorkerEntry is one worker row on the task form, hours as entered ("H:MM"
// or legacy decimal text, optionally empty).
type WorkerEntry struct {
	WorkerID   int
	WorkerName string
	HoursText  string
}

// TaskForm is the create/edit task submission.
type TaskForm struct {
	ClientID           int
	AddressID          int
	Date               string
	Description        string
	Details            string
	EstimatedHoursText string
	ServiceValueText   string
	ServiceValue       float64
	Workers            []WorkerEntry
}

// Validate returns the first violated constraint as a ValidationError, or
// nil when the form may be submitted.
func (f *TaskForm) Validate() error {
	if f.ClientID == 0 || f.AddressID == 0 || strings.TrimSpace(f.Date) == "" ||
		strings.TrimSpace(f.Description) == "" || strings.TrimSpace(f.ServiceValueText) == "" {
		return &domain.ValidationError{Message: "all required fields must be filled in"}
	}
	if f.ServiceValue <= 0 {
		return &domain.ValidationError{Field: "valor_servicio", Message: "service value must be greater than 0"}
	}
	if !hours.IsValidTimeFormat(f.EstimatedHoursText) {
		return &domain.ValidationError{Field: "numero_horas", Message: "invalid time format, use H:MM"}
	}

	estimated := hours.TimeToDecimal(f.EstimatedHoursText)
	for _, w := range f.Workers {
		if !hours.IsValidTimeFormat(w.HoursText) {
			return &domain.ValidationError{Field: "horas_asignadas", Message: "invalid time format for " + w.WorkerName}
		}
		if w.HoursText == "" {
			continue
		}
		if !hours.WithinCap(hours.TimeToDecimal(w.HoursText), estimated) {
			return &domain.ValidationError{
				Field:   "horas_asignadas",
				Message: "hours for " + w.WorkerName + " cannot exceed " + hours.DecimalToTime(estimated),
			}
		}
	}
	return nil
}

// ClientForm is the create/edit client submission.
type ClientForm struct {
	Name        string
	Type        domain.ClientType
	CompanyName string
	Phone       string
	Email       string
	AdminEmail  string
	Description string
}

// emailShape is the same loose check the screens apply: presence of "@"
// with something on both sides.
func emailShape(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}

// Validate returns the first violated constraint, or nil.
func (f *ClientForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return &domain.ValidationError{Field: "nombre", Message: "name is required"}
	}
	if f.Type == domain.ClientCompany && strings.TrimSpace(f.CompanyName) == "" {
		return &domain.ValidationError{Field: "nombre_empresa", Message: "company name is required"}
	}
	if f.Email != "" && !emailShape(f.Email) {
		return &domain.ValidationError{Field: "email", Message: "email is not valid"}
	}
	if f.AdminEmail != "" && !emailShape(f.AdminEmail) {
		return &domain.ValidationError{Field: "administrador_email", Message: "administrator email is not valid"}
	}
	return nil
}
