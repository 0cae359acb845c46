package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marv-media/grant-finder/internal/models"
)

// Urgency buckets deadline alerts for sorting and display.
type Urgency string

const (
	UrgencyPastDue  Urgency = "PAST_DUE"
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyLow      Urgency = "LOW"
)

var urgencyOrder = map[Urgency]int{
	UrgencyPastDue:  0,
	UrgencyCritical: 1,
	UrgencyHigh:     2,
	UrgencyMedium:   3,
	UrgencyLow:      4,
}

// Alert flags a grant whose deadline needs attention.
type Alert struct {
	Grant    models.Grant `json:"grant"`
	DaysLeft int          `json:"days_left"`
	Deadline time.Time    `json:"deadline"`
	Urgency  Urgency      `json:"urgency"`
}

// DefaultReminderDays are the thresholds that trigger a reminder.
var DefaultReminderDays = []int{7, 3, 1}

// DeadlineNotifier surfaces grants whose deadlines are close or past.
type DeadlineNotifier struct {
	ReminderDays []int
}

func NewDeadlineNotifier(reminderDays []int) *DeadlineNotifier {
	if len(reminderDays) == 0 {
		reminderDays = DefaultReminderDays
	}
	return &DeadlineNotifier{ReminderDays: reminderDays}
}

// CheckDeadlines returns one alert per grant that either sits exactly
// on a reminder threshold or is due today or past due. Grants without
// deadlines never alert. Results come back most urgent first.
func (n *DeadlineNotifier) CheckDeadlines(grants []models.Grant, now time.Time) []Alert {
	alerts := []Alert{}

	for _, grant := range grants {
		days, ok := grant.DaysUntilDeadline(now)
		if !ok {
			continue
		}

		switch {
		case days < 0:
			alerts = append(alerts, Alert{Grant: grant, DaysLeft: days, Deadline: *grant.Deadline, Urgency: UrgencyPastDue})
		case days == 0:
			alerts = append(alerts, Alert{Grant: grant, DaysLeft: days, Deadline: *grant.Deadline, Urgency: UrgencyCritical})
		default:
			for _, threshold := range n.ReminderDays {
				if days == threshold {
					alerts = append(alerts, Alert{Grant: grant, DaysLeft: days, Deadline: *grant.Deadline, Urgency: urgencyFor(days)})
					break
				}
			}
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		oi, oj := urgencyOrder[alerts[i].Urgency], urgencyOrder[alerts[j].Urgency]
		if oi != oj {
			return oi < oj
		}
		return alerts[i].DaysLeft < alerts[j].DaysLeft
	})
	return alerts
}

func urgencyFor(daysLeft int) Urgency {
	switch {
	case daysLeft <= 1:
		return UrgencyCritical
	case daysLeft <= 3:
		return UrgencyHigh
	case daysLeft <= 7:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// FormatAlerts renders alerts as a plain-text digest.
func FormatAlerts(alerts []Alert) string {
	if len(alerts) == 0 {
		return "No upcoming deadlines."
	}

	var b strings.Builder
	b.WriteString("DEADLINE ALERTS\n\n")
	for _, alert := range alerts {
		var status string
		switch {
		case alert.Urgency == UrgencyPastDue:
			status = "PAST DUE"
		case alert.DaysLeft == 0:
			status = "DUE TODAY"
		case alert.DaysLeft == 1:
			status = "DUE IN 1 DAY"
		default:
			status = fmt.Sprintf("%d days left", alert.DaysLeft)
		}
		fmt.Fprintf(&b, "[%s] %s\n", alert.Urgency, alert.Grant.Title)
		fmt.Fprintf(&b, "   Deadline: %s (%s)\n\n", alert.Deadline.Format("2006-01-02"), status)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
