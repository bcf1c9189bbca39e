package activity

import "fmt"

// Validate checks an event before it is written to the stream.
func Validate(event Event) error {
	switch event.Type {
	case EventPostCreated, EventPostLiked, EventPostSaved:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.PostID == "" {
		return fmt.Errorf("post id is required")
	}
	if event.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	if event.LikeCount < 0 {
		return fmt.Errorf("like count must not be negative")
	}
	return nil
}
