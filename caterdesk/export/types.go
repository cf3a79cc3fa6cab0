package export

import (
	"fmt"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/caterdesk/caterdesk/caterdesk/store"
)

// Backup is a serialized document ready to be saved
type Backup struct {
	// Filename is the suggested name of the backup file
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
	Counts   Counts `json:"counts"`
}

// Counts summarizes what a backup contains
type Counts struct {
	Dishes  int `json:"dishes"`
	Clients int `json:"clients"`
	Events  int `json:"events"`
}

// Options controls WriteToPath
type Options struct {
	Overwrite  bool
	Prompter   filesync.Prompter
	FileSystem store.FileSystem
}

// SuggestedFilename is catering-backup-<YYYY-MM-DD>.json for the day of now
func SuggestedFilename(now time.Time) string {
	return fmt.Sprintf("catering-backup-%s.json", now.Format("2006-01-02"))
}
