package autosave

// Status is the indicator value of the scheduler. It is purely
// observational.
type Status int

const (
	// StatusInactive means no auto-save file is configured
	StatusInactive Status = iota
	// StatusPermissionNeeded means a file is configured but write access
	// must be confirmed by the user
	StatusPermissionNeeded
	// StatusActive means the loop is armed and idle
	StatusActive
	// StatusSyncing means a write is in flight
	StatusSyncing
	// StatusFailed means a write failed; the handle was forgotten
	StatusFailed
)

var statusNames = map[Status]string{
	StatusInactive:         "Inactive",
	StatusPermissionNeeded: "Permission Needed",
	StatusActive:           "Active",
	StatusSyncing:          "Syncing",
	StatusFailed:           "Failed",
}

// String returns the display name of the status
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}
