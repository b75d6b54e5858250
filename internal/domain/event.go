package domain

import "time"

// EventType identifies what happened to a task.
type EventType string

const (
	EventTaskCreated   EventType = "tarea_creada"
	EventTaskAssigned  EventType = "tarea_asignada"
	EventTaskCompleted EventType = "tarea_completada"
	EventTaskReturned  EventType = "tarea_devuelta"
	EventTaskApproved  EventType = "tarea_aprobada"
	EventTaskPaid      EventType = "tarea_pagada"
	EventTaskCancelled EventType = "tarea_cancelada"
)

// TaskEvent is published to Kafka after every successful state mutation so
// downstream consumers (notifier, payroll digest) can react without polling.
type TaskEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"tipo"`
	TaskID     int       `json:"tarea_id"`
	Status     Status    `json:"estado"`
	ActorID    int       `json:"actor_id,omitempty"`
	WorkerIDs  []int     `json:"trabajador_ids,omitempty"`
	Message    string    `json:"mensaje,omitempty"`
	OccurredAt time.Time `json:"fecha"`
}
