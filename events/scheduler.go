package events

import (
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

const (
	TypeSchedulerStarted EventType = "scheduler_started"
	TypeSchedulerStopped EventType = "scheduler_stopped"
	TypeTaskAdded        EventType = "task_added"
	TypeTaskRemoved      EventType = "task_removed"
	TypeScheduleAdded    EventType = "schedule_added"
	TypeScheduleUpdated  EventType = "schedule_updated"
	TypeScheduleRemoved  EventType = "schedule_removed"
	TypeJobAdded         EventType = "job_added"
	TypeJobReleased      EventType = "job_released"
)

type SchedulerStarted struct {
	Base
}

func (SchedulerStarted) EventType() EventType { return TypeSchedulerStarted }

// SchedulerStopped is published when the scheduler shuts down. Exception holds
// the reason when it stopped because of an error.
type SchedulerStopped struct {
	Base
	Exception string `json:"exception,omitempty"`
}

func (SchedulerStopped) EventType() EventType { return TypeSchedulerStopped }

type TaskAdded struct {
	Base
	TaskID string `json:"task_id"`
}

func (TaskAdded) EventType() EventType { return TypeTaskAdded }

type TaskRemoved struct {
	Base
	TaskID string `json:"task_id"`
}

func (TaskRemoved) EventType() EventType { return TypeTaskRemoved }

type ScheduleAdded struct {
	Base
	ScheduleID   string           `json:"schedule_id"`
	NextFireTime *strfmt.DateTime `json:"next_fire_time,omitempty"`
}

func (ScheduleAdded) EventType() EventType { return TypeScheduleAdded }

type ScheduleUpdated struct {
	Base
	ScheduleID   string           `json:"schedule_id"`
	NextFireTime *strfmt.DateTime `json:"next_fire_time,omitempty"`
}

func (ScheduleUpdated) EventType() EventType { return TypeScheduleUpdated }

type ScheduleRemoved struct {
	Base
	ScheduleID string `json:"schedule_id"`
}

func (ScheduleRemoved) EventType() EventType { return TypeScheduleRemoved }

// JobAdded is published when a job is queued for execution. ScheduleID is empty
// for jobs submitted directly rather than derived from a schedule.
type JobAdded struct {
	Base
	JobID      uuid.UUID `json:"job_id"`
	TaskID     string    `json:"task_id"`
	ScheduleID string    `json:"schedule_id,omitempty"`
}

func (JobAdded) EventType() EventType { return TypeJobAdded }

type JobReleased struct {
	Base
	JobID     uuid.UUID `json:"job_id"`
	Outcome   Outcome   `json:"outcome"`
	Exception string    `json:"exception,omitempty"`
}

func (JobReleased) EventType() EventType { return TypeJobReleased }
