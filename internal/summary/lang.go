package summary

import "time"

// Phrasing tables for the supported language tags. Anything unknown falls
// back to English.

var dayNamesEN = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dayNamesCS = [7]string{"Pondělí", "Úterý", "Středa", "Čtvrtek", "Pátek", "Sobota", "Neděle"}

func dayName(wd time.Weekday, language string) string {
	// time.Weekday counts from Sunday; the brief's week runs Monday first.
	idx := (int(wd) + 6) % 7
	if language == "cs" {
		return dayNamesCS[idx]
	}
	return dayNamesEN[idx]
}

func allDayLabel(language string) string {
	if language == "cs" {
		return "celý den"
	}
	return "all day"
}

func untitledLabel(language string) string {
	if language == "cs" {
		return "(bez názvu)"
	}
	return "(No title)"
}

func noEventsMessage(language string) string {
	if language == "cs" {
		return "Na příští týden nemáte naplánované žádné události."
	}
	return "You have no events scheduled for the coming week."
}

func languageName(language string) string {
	if language == "cs" {
		return "Czech"
	}
	return "English"
}
