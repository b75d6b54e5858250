package forms

import (
	"errors"
	"testing"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

func validTaskForm() TaskForm {
	return TaskForm{
		ClientID:           1,
		AddressID:          2,
		Date:               "2025-06-01",
		Description:        "Limpieza general",
		EstimatedHoursText: "4:00",
		ServiceValueText:   "150",
		ServiceValue:       150,
		Workers: []WorkerEntry{
			{WorkerID: 7, WorkerName: "Luis", HoursText: "2:00"},
		},
	}
}

func wantValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != field {
		t.Errorf("field = %q, want %q", ve.Field, field)
	}
}

func TestTaskForm_Valid(t *testing.T) {
	f := validTaskForm()
	if err := f.Validate(); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}
}

func TestTaskForm_MissingRequired(t *testing.T) {
	f := validTaskForm()
	f.Description = "  "
	if err := f.Validate(); err == nil {
		t.Fatal("blank description should be rejected")
	}

	f = validTaskForm()
	f.ClientID = 0
	if err := f.Validate(); err == nil {
		t.Fatal("missing client should be rejected")
	}
}

func TestTaskForm_NonPositivePrice(t *testing.T) {
	f := validTaskForm()
	f.ServiceValue = 0
	wantValidation(t, f.Validate(), "valor_servicio")
}

func TestTaskForm_MalformedTime(t *testing.T) {
	f := validTaskForm()
	f.EstimatedHoursText = "2:75"
	wantValidation(t, f.Validate(), "numero_horas")

	f = validTaskForm()
	f.Workers[0].HoursText = "abc:10"
	wantValidation(t, f.Validate(), "horas_asignadas")
}

func TestTaskForm_WorkerHoursOverCap(t *testing.T) {
	f := validTaskForm() // estimate 4:00
	f.Workers[0].HoursText = "4:01"
	wantValidation(t, f.Validate(), "horas_asignadas")

	// Without an estimate there is no cap.
	f = validTaskForm()
	f.EstimatedHoursText = ""
	f.Workers[0].HoursText = "12:00"
	if err := f.Validate(); err != nil {
		t.Fatalf("no-estimate form rejected: %v", err)
	}
}

func TestTaskForm_EmptyWorkerHoursAllowed(t *testing.T) {
	f := validTaskForm()
	f.Workers[0].HoursText = ""
	if err := f.Validate(); err != nil {
		t.Fatalf("optional worker hours rejected: %v", err)
	}
}

func TestClientForm(t *testing.T) {
	f := ClientForm{Name: "Acme", Type: domain.ClientCompany, CompanyName: "Acme SL"}
	if err := f.Validate(); err != nil {
		t.Fatalf("valid client rejected: %v", err)
	}

	f.CompanyName = ""
	wantValidation(t, f.Validate(), "nombre_empresa")

	f = ClientForm{Name: "Eva", Type: domain.ClientIndividual, Email: "sin-arroba"}
	wantValidation(t, f.Validate(), "email")

	f = ClientForm{Name: "Eva", Type: domain.ClientIndividual, Email: "eva@example.com"}
	if err := f.Validate(); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}

	f = ClientForm{Type: domain.ClientIndividual}
	wantValidation(t, f.Validate(), "nombre")
}
