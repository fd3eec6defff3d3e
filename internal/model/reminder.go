package model

// Reminder is a lead-time code for event notifications. It is persisted as an
// offset in minutes on a satellite row; ReminderNone means no row at all.
type Reminder string

const (
	ReminderNone  Reminder = "none"
	Reminder5Min  Reminder = "5min"
	Reminder15Min Reminder = "15min"
	Reminder30Min Reminder = "30min"
	Reminder1Hour Reminder = "1hour"
	Reminder1Day  Reminder = "1day"
)

var reminderMinutes = map[Reminder]int{
	Reminder5Min:  5,
	Reminder15Min: 15,
	Reminder30Min: 30,
	Reminder1Hour: 60,
	Reminder1Day:  1440,
}

// Minutes returns the lead time in minutes. ok is false for ReminderNone and
// unknown codes.
func (r Reminder) Minutes() (int, bool) {
	m, ok := reminderMinutes[r]
	return m, ok
}

// ReminderFromMinutes maps a stored offset back to its code. Unknown offsets
// map to ReminderNone so a corrupt row degrades rather than fails.
func ReminderFromMinutes(minutes int) Reminder {
	for code, m := range reminderMinutes {
		if m == minutes {
			return code
		}
	}
	return ReminderNone
}
