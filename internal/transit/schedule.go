package transit

import (
	"fmt"
	"time"
)

// ServiceWindow is the daily operating window for a group of weekdays.
// Opens and Closes are local "HH:MM"; Closes is exclusive.
type ServiceWindow struct {
	Days   string `json:"days"`
	Opens  string `json:"opens"`
	Closes string `json:"closes"`

	openMin, closeMin int // minutes after midnight
}

func window(days string, openMin, closeMin int) ServiceWindow {
	return ServiceWindow{Days: days, Opens: clockText(openMin), Closes: clockText(closeMin), openMin: openMin, closeMin: closeMin}
}

var operatingHours = []ServiceWindow{
	window("Lunes a Viernes", 5*60+45, 23*60),
	window("Sábado", 6*60, 22*60),
	window("Domingo", 6*60, 22*60),
}

// OperatingHours lists the bus service windows, weekdays first.
func OperatingHours() []ServiceWindow {
	return append([]ServiceWindow(nil), operatingHours...)
}

// WindowFor returns the service window covering day.
func WindowFor(day time.Weekday) ServiceWindow {
	switch day {
	case time.Saturday:
		return operatingHours[1]
	case time.Sunday:
		return operatingHours[2]
	}
	return operatingHours[0]
}

// InService reports whether buses run at t, read in t's location.
func InService(t time.Time) bool {
	w := WindowFor(t.Weekday())
	m := t.Hour()*60 + t.Minute()
	return m >= w.openMin && m < w.closeMin
}

func clockText(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
