package email

import (
	"fmt"
	"html/template"
	"strings"
)

// Sections in the mail body show at most this many hosts; full detail
// lives in the attached reports.
const maxRowsPerSection = 10

func subject(rep Report) string {
	if !rep.HasChanges {
		return fmt.Sprintf("Zabbix Report - %s - No Changes", rep.Label)
	}
	return fmt.Sprintf("Zabbix Report - %s - %d Added, %d Removed",
		rep.Label, rep.Summary.HostsAdded, rep.Summary.HostsRemoved)
}

func textBody(rep Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Host inventory report for %s\n\n", rep.Label)
	fmt.Fprintf(&b, "Current hosts:  %d\n", rep.Summary.TotalCurrent)
	fmt.Fprintf(&b, "Previous hosts: %d\n", rep.Summary.TotalPrevious)
	fmt.Fprintf(&b, "Net change:     %+d\n\n", rep.Summary.NetChange)

	if !rep.HasChanges {
		b.WriteString("No host changes detected.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Added:    %d\n", rep.Summary.HostsAdded)
	fmt.Fprintf(&b, "Removed:  %d\n", rep.Summary.HostsRemoved)
	fmt.Fprintf(&b, "Modified: %d\n\n", rep.Summary.HostsModified)

	if n := len(rep.Comparison.Added); n > 0 {
		b.WriteString("Hosts added:\n")
		for i, h := range rep.Comparison.Added {
			if i == maxRowsPerSection {
				fmt.Fprintf(&b, "  ... and %d more\n", n-maxRowsPerSection)
				break
			}
			fmt.Fprintf(&b, "  %s (%s)\n", h.Hostname, h.IPAddress)
		}
		b.WriteString("\n")
	}
	if n := len(rep.Comparison.Removed); n > 0 {
		b.WriteString("Hosts removed:\n")
		for i, h := range rep.Comparison.Removed {
			if i == maxRowsPerSection {
				fmt.Fprintf(&b, "  ... and %d more\n", n-maxRowsPerSection)
				break
			}
			fmt.Fprintf(&b, "  %s (%s)\n", h.Hostname, h.IPAddress)
		}
		b.WriteString("\n")
	}
	if n := len(rep.Comparison.Modified); n > 0 {
		b.WriteString("Hosts modified:\n")
		for i, m := range rep.Comparison.Modified {
			if i == maxRowsPerSection {
				fmt.Fprintf(&b, "  ... and %d more\n", n-maxRowsPerSection)
				break
			}
			fmt.Fprintf(&b, "  %s\n", m.Hostname)
		}
		b.WriteString("\n")
	}

	if len(rep.Attachments) > 0 {
		b.WriteString("The full report is attached.\n")
	}
	return b.String()
}

var bodyTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #d40000;">Host inventory report for {{.Label}}</h2>
<table cellpadding="6" style="border-collapse: collapse;">
  <tr><td><b>Current hosts</b></td><td>{{.Summary.TotalCurrent}}</td></tr>
  <tr><td><b>Previous hosts</b></td><td>{{.Summary.TotalPrevious}}</td></tr>
  <tr><td><b>Net change</b></td><td>{{.NetChange}}</td></tr>
  <tr><td><b>Added</b></td><td>{{.Summary.HostsAdded}}</td></tr>
  <tr><td><b>Removed</b></td><td>{{.Summary.HostsRemoved}}</td></tr>
  <tr><td><b>Modified</b></td><td>{{.Summary.HostsModified}}</td></tr>
</table>

{{if not .HasChanges}}
<p style="color: #1e7a1e;"><b>No host changes detected.</b></p>
{{end}}

{{if .Added}}
<h3>Hosts added{{if .AddedMore}} (first {{len .Added}}){{end}}</h3>
<ul>{{range .Added}}<li>{{.Hostname}} ({{.IPAddress}})</li>{{end}}</ul>
{{end}}

{{if .Removed}}
<h3>Hosts removed{{if .RemovedMore}} (first {{len .Removed}}){{end}}</h3>
<ul>{{range .Removed}}<li>{{.Hostname}} ({{.IPAddress}})</li>{{end}}</ul>
{{end}}

{{if .Modified}}
<h3>Hosts modified{{if .ModifiedMore}} (first {{len .Modified}}){{end}}</h3>
<ul>{{range .Modified}}<li>{{.Hostname}}</li>{{end}}</ul>
{{end}}

{{if .Attachments}}
<p>The full report is attached.</p>
{{end}}
</body>
</html>
`))

func htmlBody(rep Report) (string, error) {
	added := rep.Comparison.Added
	addedMore := len(added) > maxRowsPerSection
	if addedMore {
		added = added[:maxRowsPerSection]
	}
	removed := rep.Comparison.Removed
	removedMore := len(removed) > maxRowsPerSection
	if removedMore {
		removed = removed[:maxRowsPerSection]
	}
	modified := rep.Comparison.Modified
	modifiedMore := len(modified) > maxRowsPerSection
	if modifiedMore {
		modified = modified[:maxRowsPerSection]
	}

	var b strings.Builder
	err := bodyTmpl.Execute(&b, map[string]any{
		"Label":        rep.Label,
		"Summary":      rep.Summary,
		"NetChange":    fmt.Sprintf("%+d", rep.Summary.NetChange),
		"HasChanges":   rep.HasChanges,
		"Added":        added,
		"AddedMore":    addedMore,
		"Removed":      removed,
		"RemovedMore":  removedMore,
		"Modified":     modified,
		"ModifiedMore": modifiedMore,
		"Attachments":  rep.Attachments,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
