package events

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrUnknownEventType is returned by FromJSON for type markers it cannot decode.
var ErrUnknownEventType = errors.New("unknown event type")

type decoderFunc func([]byte) (Event, error)

var decoders = map[EventType]decoderFunc{
	TypeSchedulerStarted: decode[SchedulerStarted],
	TypeSchedulerStopped: decode[SchedulerStopped],
	TypeTaskAdded:        decode[TaskAdded],
	TypeTaskRemoved:      decode[TaskRemoved],
	TypeScheduleAdded:    decode[ScheduleAdded],
	TypeScheduleUpdated:  decode[ScheduleUpdated],
	TypeScheduleRemoved:  decode[ScheduleRemoved],
	TypeJobAdded:         decode[JobAdded],
	TypeJobReleased:      decode[JobReleased],
}

func decode[E Event](data []byte) (Event, error) {
	var evt E
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", evt.EventType(), err)
	}
	return evt, nil
}

// ToJSON renders an event as a flat JSON object with its discriminant under "type".
func ToJSON(event Event) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("cannot marshal nil event")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}
	return sjson.SetBytes(payload, "type", event.EventType().String())
}

// FromJSON decodes an object produced by ToJSON back into its concrete event kind.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() == "" {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	dec, ok := decoders[EventType(msgType.String())]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, msgType.String())
	}
	return dec(data)
}
