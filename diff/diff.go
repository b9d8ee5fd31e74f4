// Package diff compares two inventory snapshots by host identity and
// reports added, removed and attribute-modified hosts.
package diff

import "f0oster/zbxspy/inventory"

// Compare classifies current against previous by host id.
//
// A host id only in current is added, only in previous is removed, and in
// both with any attribute difference is modified. Attribute comparison is
// exact string equality on IPAddress, Groups and Templates; reordered group
// or template lists therefore count as changes. When an input repeats a
// host id the last occurrence wins for attribute comparison.
//
// Compare never mutates its inputs and is deterministic: each section lists
// hosts in first-occurrence order of the relevant input.
func Compare(current, previous []inventory.Host) Result {
	currentByID := indexByID(current)
	previousByID := indexByID(previous)

	res := Result{
		TotalCurrent:  len(current),
		TotalPrevious: len(previous),
	}

	for _, id := range orderedIDs(current) {
		if _, ok := previousByID[id]; !ok {
			res.Added = append(res.Added, currentByID[id])
		}
	}

	for _, id := range orderedIDs(previous) {
		if _, ok := currentByID[id]; !ok {
			res.Removed = append(res.Removed, previousByID[id])
		}
	}

	for _, id := range orderedIDs(current) {
		prev, ok := previousByID[id]
		if !ok {
			continue
		}
		cur := currentByID[id]

		mod := ModifiedHost{
			HostID:           id,
			Hostname:         cur.Hostname,
			OldIP:            prev.IPAddress,
			NewIP:            cur.IPAddress,
			OldGroups:        prev.Groups,
			NewGroups:        cur.Groups,
			OldTemplates:     prev.Templates,
			NewTemplates:     cur.Templates,
			IPChanged:        cur.IPAddress != prev.IPAddress,
			GroupsChanged:    cur.Groups != prev.Groups,
			TemplatesChanged: cur.Templates != prev.Templates,
		}
		if mod.IPChanged || mod.GroupsChanged || mod.TemplatesChanged {
			res.Modified = append(res.Modified, mod)
		}
	}

	return res
}

// Summarize rolls a Result up into scalar counts. NetChange is the raw
// endpoint difference TotalCurrent - TotalPrevious.
func Summarize(r Result) Summary {
	return Summary{
		HostsAdded:    len(r.Added),
		HostsRemoved:  len(r.Removed),
		HostsModified: len(r.Modified),
		TotalCurrent:  r.TotalCurrent,
		TotalPrevious: r.TotalPrevious,
		NetChange:     r.TotalCurrent - r.TotalPrevious,
	}
}

// HasChanges reports whether the comparison found any difference at all.
func HasChanges(r Result) bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}

// indexByID maps host id to record; on duplicate ids the last record wins.
func indexByID(hosts []inventory.Host) map[string]inventory.Host {
	m := make(map[string]inventory.Host, len(hosts))
	for _, h := range hosts {
		m[h.HostID] = h
	}
	return m
}

// orderedIDs returns each distinct id once, in first-occurrence order.
func orderedIDs(hosts []inventory.Host) []string {
	seen := make(map[string]struct{}, len(hosts))
	ids := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if _, ok := seen[h.HostID]; ok {
			continue
		}
		seen[h.HostID] = struct{}{}
		ids = append(ids, h.HostID)
	}
	return ids
}
