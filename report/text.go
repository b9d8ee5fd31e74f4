package report

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const lineWidth = 80

// renderText produces the fixed-width report body used for the .txt file
// and as a terminal-friendly fallback.
func renderText(data reportData) string {
	var b strings.Builder

	heavy := strings.Repeat("=", lineWidth)
	light := strings.Repeat("-", lineWidth)

	b.WriteString(heavy + "\n")
	b.WriteString("HOST INVENTORY CHANGE REPORT\n")
	b.WriteString(heavy + "\n")
	fmt.Fprintf(&b, "Current date:  %s\n", data.CurrentDate)
	fmt.Fprintf(&b, "Previous date: %s\n", data.PreviousDate)
	fmt.Fprintf(&b, "Generated at:  %s\n", data.GeneratedAt)
	b.WriteString("\n")

	b.WriteString(light + "\n")
	b.WriteString("SUMMARY\n")
	b.WriteString(light + "\n")
	fmt.Fprintf(&b, "Current host count:  %d\n", data.Summary.TotalCurrent)
	fmt.Fprintf(&b, "Previous host count: %d\n", data.Summary.TotalPrevious)
	fmt.Fprintf(&b, "Net change:          %s\n", data.NetChange)
	fmt.Fprintf(&b, "Hosts added:         %d\n", data.Summary.HostsAdded)
	fmt.Fprintf(&b, "Hosts removed:       %d\n", data.Summary.HostsRemoved)
	fmt.Fprintf(&b, "Hosts modified:      %d\n", data.Summary.HostsModified)
	b.WriteString("\n")

	if data.Churn != nil {
		b.WriteString(light + "\n")
		fmt.Fprintf(&b, "CHURN OVER %d DAILY COMPARISONS\n", data.Churn.Pairs)
		b.WriteString(light + "\n")
		fmt.Fprintf(&b, "Added:    avg %.1f, peak %.0f\n", data.Churn.AvgAdded, data.Churn.MaxAdded)
		fmt.Fprintf(&b, "Removed:  avg %.1f, peak %.0f\n", data.Churn.AvgRemoved, data.Churn.MaxRemoved)
		fmt.Fprintf(&b, "Modified: avg %.1f, peak %.0f\n", data.Churn.AvgModified, data.Churn.MaxModified)
		b.WriteString("\n")
	}

	if !data.HasChanges {
		b.WriteString("No host changes detected between the two snapshots.\n")
		return b.String()
	}

	if len(data.Added) > 0 {
		b.WriteString(heavy + "\n")
		fmt.Fprintf(&b, "HOSTS ADDED (%d)\n", len(data.Added))
		b.WriteString(heavy + "\n")
		fmt.Fprintf(&b, "%-12s %-25s %-15s %-25s\n", "ID", "Hostname", "IP Address", "Groups")
		b.WriteString(light + "\n")
		for _, h := range data.Added {
			fmt.Fprintf(&b, "%-12s %-25s %-15s %-25s\n",
				h.HostID, truncate(h.Hostname, 24), h.IPAddress, truncate(h.Groups, 24))
			if h.Templates != "" && h.Templates != "N/A" {
				fmt.Fprintf(&b, "%-12s Templates: %s\n", "", truncate(h.Templates, 60))
			}
		}
		b.WriteString("\n")
	}

	if len(data.Removed) > 0 {
		b.WriteString(heavy + "\n")
		fmt.Fprintf(&b, "HOSTS REMOVED (%d)\n", len(data.Removed))
		b.WriteString(heavy + "\n")
		fmt.Fprintf(&b, "%-12s %-25s %-15s %-25s\n", "ID", "Hostname", "IP Address", "Groups")
		b.WriteString(light + "\n")
		for _, h := range data.Removed {
			fmt.Fprintf(&b, "%-12s %-25s %-15s %-25s\n",
				h.HostID, truncate(h.Hostname, 24), h.IPAddress, truncate(h.Groups, 24))
		}
		b.WriteString("\n")
	}

	if len(data.Modified) > 0 {
		b.WriteString(heavy + "\n")
		fmt.Fprintf(&b, "HOSTS MODIFIED (%d)\n", len(data.Modified))
		b.WriteString(heavy + "\n")
		for _, m := range data.Modified {
			fmt.Fprintf(&b, "%-15s %s\n", m.HostID, truncate(m.Hostname, 60))
			if m.IPChanged {
				fmt.Fprintf(&b, "%-15s IP address: %s -> %s\n", "", m.OldIP, m.NewIP)
			}
			if m.GroupsChanged {
				fmt.Fprintf(&b, "%-15s Groups: %s -> %s\n", "", truncate(m.OldGroups, 30), truncate(m.NewGroups, 30))
			}
			if m.TemplatesChanged {
				fmt.Fprintf(&b, "%-15s Templates: %s -> %s\n", "", truncate(m.OldTemplates, 30), truncate(m.NewTemplates, 30))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// truncate shortens s to max runes. Cutting on rune boundaries keeps
// non-ASCII hostnames and group names valid UTF-8 in the report.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
