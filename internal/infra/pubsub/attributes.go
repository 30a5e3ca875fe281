package pubsub

import "tasker/internal/domain/service"

// eventAttributes are copied onto every message so subscribers can filter
// without decoding the payload.
func eventAttributes(event *service.TaskEvent) map[string]string {
	attributes := map[string]string{
		"event_type": string(event.Type),
		"task_id":    event.TaskID,
		"user_id":    event.UserID,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
