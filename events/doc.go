// Package events defines the values that flow through the event broker.
//
// Every event is an immutable value implementing Event; its EventType is the
// discriminant subscribers filter on. The broker never looks past EventType,
// so any package can define further kinds.
//
// The kinds declared here are the ones a scheduler and its job store emit:
//   - Scheduler lifecycle: SchedulerStarted, SchedulerStopped
//   - Task catalog: TaskAdded, TaskRemoved
//   - Schedules: ScheduleAdded, ScheduleUpdated, ScheduleRemoved
//   - Jobs: JobAdded, JobReleased
//
// ToJSON and FromJSON convert between events and a flat JSON object carrying a
// "type" marker, for logging and inspection.
package events
