// Package export renders decoded timetables as CSV for spreadsheets and
// downstream imports.
package export

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"timesolver/internal/schema"
)

// EventRow is the flat CSV projection of one scheduled class.
type EventRow struct {
	Day        string `csv:"day"`
	Slot       int    `csv:"slot"`
	Group      string `csv:"group"`
	Subject    string `csv:"subject"`
	Instructor string `csv:"instructor"`
	Room       string `csv:"room"`
	Fixed      bool   `csv:"fixed"`
}

func rows(events []schema.Event) []*EventRow {
	out := make([]*EventRow, len(events))
	for i, event := range events {
		out[i] = &EventRow{
			Day:        string(event.Day),
			Slot:       event.Slot,
			Group:      coalesce(event.GroupCode, event.GroupID),
			Subject:    coalesce(event.SubjectCode, event.SubjectID),
			Instructor: coalesce(event.InstructorName, event.InstructorID),
			Room:       coalesce(event.RoomCode, event.RoomID),
			Fixed:      event.Fixed,
		}
	}
	return out
}

// WriteCSV writes the events to path, overwriting any existing file.
func WriteCSV(path string, events []schema.Event) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows(events), file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MarshalString renders the events as a CSV document.
func MarshalString(events []schema.Event) (string, error) {
	return gocsv.MarshalString(rows(events))
}

func coalesce(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
