package engine

import (
	"timesolver/internal/schema"
)

// computeMetrics derives quality measures from the decoded events. These are
// informational only; the solver never sees them.
func computeMetrics(request *schema.Request, events []schema.Event) schema.Metrics {
	return schema.Metrics{
		InstructorLoadVariance:  instructorLoadVariance(request, events),
		RoomUtilizationPercent:  roomUtilization(request, events),
		AvgDailyClassesPerGroup: avgDailyClassesPerGroup(request, events),
		InstructorIdleGaps:      instructorIdleGaps(events),
		PreferredSlotHits:       preferredSlotHits(request, events),
	}
}

// Variance of weekly class counts across all declared instructors,
// including the unscheduled ones.
func instructorLoadVariance(request *schema.Request, events []schema.Event) float64 {
	if len(request.Instructors) == 0 {
		return 0
	}
	loads := make(map[string]int, len(request.Instructors))
	for _, instructor := range request.Instructors {
		loads[instructor.ID] = 0
	}
	for _, event := range events {
		loads[event.InstructorID]++
	}

	mean := float64(len(events)) / float64(len(request.Instructors))
	variance := 0.0
	for _, load := range loads {
		diff := float64(load) - mean
		variance += diff * diff
	}
	return variance / float64(len(request.Instructors))
}

// Scheduled cells over the total room-slot capacity of the week.
func roomUtilization(request *schema.Request, events []schema.Event) float64 {
	capacity := len(request.Rooms) * len(request.Days) * request.SlotsPerDay
	if capacity == 0 {
		return 0
	}
	return float64(len(events)) / float64(capacity) * 100.0
}

func avgDailyClassesPerGroup(request *schema.Request, events []schema.Event) float64 {
	groupDays := len(request.Groups) * len(request.Days)
	if groupDays == 0 {
		return 0
	}
	return float64(len(events)) / float64(groupDays)
}

// instructorIdleGaps counts, per instructor per day, the free slots strictly
// between that instructor's first and last class.
func instructorIdleGaps(events []schema.Event) int {
	type span struct {
		first, last, count int
	}
	spans := make(map[dayKey]*span)
	for _, event := range events {
		key := dayKey{event.InstructorID, event.Day}
		current, ok := spans[key]
		if !ok {
			spans[key] = &span{first: event.Slot, last: event.Slot, count: 1}
			continue
		}
		if event.Slot < current.first {
			current.first = event.Slot
		}
		if event.Slot > current.last {
			current.last = event.Slot
		}
		current.count++
	}

	gaps := 0
	for _, current := range spans {
		gaps += current.last - current.first + 1 - current.count
	}
	return gaps
}

func preferredSlotHits(request *schema.Request, events []schema.Event) int {
	preferred := make(map[cellKey]bool)
	for _, instructor := range request.Instructors {
		if instructor.Preferences == nil {
			continue
		}
		for _, ref := range instructor.Preferences.PreferredSlots {
			preferred[cellKey{instructor.ID, ref.Day, ref.Slot}] = true
		}
	}

	hits := 0
	for _, event := range events {
		if preferred[cellKey{event.InstructorID, event.Day, event.Slot}] {
			hits++
		}
	}
	return hits
}
