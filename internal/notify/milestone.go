package notify

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/progress"
)

const milestoneTimeout = 5000

// Milestones announces progress milestones, replacing the previous
// announcement instead of stacking them.
type Milestones struct {
	n     Notifier
	title string
	log   *zap.Logger

	mu     sync.Mutex
	lastID uint32
}

// NewMilestones creates an announcer for the collection named title.
func NewMilestones(n Notifier, title string, log *zap.Logger) *Milestones {
	if log == nil {
		log = zap.NewNop()
	}
	return &Milestones{n: n, title: title, log: log}
}

// Announce shows m. It is safe to pass as progress.Options.OnMilestone.
func (m *Milestones) Announce(ms progress.Milestone) {
	notif := milestoneNotification(m.title, ms)

	m.mu.Lock()
	defer m.mu.Unlock()
	notif.ReplacesID = m.lastID
	id, err := m.n.Notify(notif)
	if err != nil {
		m.log.Debug("milestone notification failed", zap.Error(err))
		return
	}
	m.lastID = id
}

func milestoneNotification(title string, ms progress.Milestone) Notification {
	verb := "viewed"
	if ms.Kind == progress.Listened {
		verb = "listened to"
	}
	body := fmt.Sprintf("You have %s %s of %s phrases",
		verb, humanize.Comma(int64(ms.Count)), humanize.Comma(int64(ms.Total)))
	urgency := UrgencyLow
	if ms.Total > 0 && ms.Count >= ms.Total {
		body = fmt.Sprintf("You have %s every phrase", verb)
		urgency = UrgencyNormal
	}
	if title == "" {
		title = "Shadow"
	}
	return Notification{
		Title:   title,
		Body:    body,
		Icon:    "audio-headphones",
		Timeout: milestoneTimeout,
		Urgency: urgency,
	}
}
