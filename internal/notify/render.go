package notify

import (
	"fmt"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// Render turns a task event into the message every channel delivers.
// Subjects and bodies are in the application's working language.
func Render(ev domain.TaskEvent) Notification {
	var subject, body string
	switch ev.Type {
	case domain.EventTaskCreated:
		subject = fmt.Sprintf("Nueva tarea #%d", ev.TaskID)
		body = fmt.Sprintf("Se ha creado la tarea #%d y está pendiente de asignación.", ev.TaskID)
	case domain.EventTaskAssigned:
		subject = fmt.Sprintf("Tarea #%d asignada", ev.TaskID)
		body = fmt.Sprintf("La tarea #%d ha sido asignada a %d trabajador(es).", ev.TaskID, len(ev.WorkerIDs))
	case domain.EventTaskCompleted:
		subject = fmt.Sprintf("Tarea #%d completada", ev.TaskID)
		body = fmt.Sprintf("La tarea #%d ha sido marcada como completada y espera aprobación.", ev.TaskID)
	case domain.EventTaskReturned:
		subject = fmt.Sprintf("Tarea #%d devuelta", ev.TaskID)
		body = fmt.Sprintf("La tarea #%d ha sido devuelta: %s", ev.TaskID, ev.Message)
	case domain.EventTaskApproved:
		subject = fmt.Sprintf("Tarea #%d aprobada", ev.TaskID)
		body = fmt.Sprintf("La tarea #%d ha sido aprobada y registrada en nómina.", ev.TaskID)
	case domain.EventTaskPaid:
		subject = fmt.Sprintf("Tarea #%d pagada", ev.TaskID)
		body = fmt.Sprintf("El pago de la tarea #%d ha sido registrado.", ev.TaskID)
	case domain.EventTaskCancelled:
		subject = fmt.Sprintf("Tarea #%d cancelada", ev.TaskID)
		body = fmt.Sprintf("La tarea #%d ha sido cancelada.", ev.TaskID)
	default:
		subject = fmt.Sprintf("Tarea #%d: %s", ev.TaskID, ev.Type)
		body = fmt.Sprintf("La tarea #%d ha cambiado de estado (%s).", ev.TaskID, ev.Status)
	}
	return Notification{Subject: subject, Body: body, Event: ev}
}
