package event_bus

const (
	EventsSnapshotReplacedType EventType = "calendar.snapshot_replaced"
	SettingsUpdatedType        EventType = "settings.updated"
	HolidaysSeededType         EventType = "holidays.seeded"
	ExportCompletedType        EventType = "export.completed"
)

// EventsSnapshotReplaced is published each time the in-memory event set is swapped
// for a newer one.
type EventsSnapshotReplaced struct {
	Version uint64
	Count   int
}

type SettingsUpdated struct {
	Key   string
	Value any
}

type HolidaysSeeded struct {
	Inserted int
	Version  string
}

type ExportCompleted struct {
	View     string
	Filename string
	Action   string
	Size     int
}
