package mail

import (
	"context"
	"log"
	"sort"
)

// Lister aggregates messages across folders for display. It is a
// single best-effort pass: a failing folder simply contributes no
// messages, and no extraction or retry happens here.
type Lister struct {
	reader FolderReader
}

// NewLister creates a lister backed by the given folder reader.
func NewLister(reader FolderReader) *Lister {
	return &Lister{reader: reader}
}

// List fetches each folder independently, merges the results, sorts
// them by receive time descending and truncates to limit.
func (l *Lister) List(ctx context.Context, folders []Folder, limit int) []Message {
	var all []Message
	for _, folder := range folders {
		msgs, err := l.reader.List(ctx, folder, limit)
		if err != nil {
			log.Printf("list: folder %s unavailable: %v", folder, err)
			continue
		}
		all = append(all, msgs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ReceivedAt.After(all[j].ReceivedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
