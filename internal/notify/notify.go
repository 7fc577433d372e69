// Package notify shows desktop notifications for study milestones.
package notify

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Category tags every notification sent by the program so notification
// daemons can group or filter them.
const Category = "x-shadow.progress"

// Notification is one desktop notification.
type Notification struct {
	Title      string
	Body       string
	Icon       string  // path or themed icon name
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 opens a new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its ID. A notifier with no desktop
	// behind it returns 0 and no error.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(Notification) (uint32, error) { return 0, nil }
func (Nop) Close(uint32) error                  { return nil }
