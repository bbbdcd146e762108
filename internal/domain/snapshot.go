package domain

import (
	"fmt"
	"strings"
	"time"
)

// snapshotLayouts are the accepted snapshot identifier formats. Sheet titles
// use the short YY.MM.DD form.
var snapshotLayouts = []string{"06.01.02", "2006-01-02", "2006.01.02"}

// ParseSnapshotDate converts a snapshot identifier such as "24.06.07" into
// its calendar date (midnight UTC).
func ParseSnapshotDate(id string) (time.Time, error) {
	id = strings.TrimSpace(id)
	for _, layout := range snapshotLayouts {
		if len(layout) != len(id) {
			continue
		}
		if t, err := time.Parse(layout, id); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized snapshot date %q", id)
}
