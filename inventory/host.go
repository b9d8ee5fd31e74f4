// Package inventory defines the host record shared by every collector,
// store and comparison in zbxspy.
package inventory

import (
	"fmt"
	"time"
)

// Sentinel is stored for attributes the inventory source could not resolve,
// such as a host with no usable interface address or an empty group list.
const Sentinel = "N/A"

// DateFormat is the calendar-date layout for collection dates. Formatted
// dates sort lexicographically in chronological order.
const DateFormat = "2006-01-02"

// Host is one managed host as reported by an inventory source.
//
// HostID is the only identity key; every other field is an attribute that
// comparisons treat as an opaque string. Groups and Templates carry the
// source's label lists joined with ", " and are never re-parsed.
type Host struct {
	HostID    string `json:"host_id"`
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	Groups    string `json:"host_groups"`
	Templates string `json:"templates"`
}

// Normalized returns a copy with unset attribute fields replaced by the
// sentinel, so stored rows never interleave "" and "N/A" for the same state.
func (h Host) Normalized() Host {
	if h.IPAddress == "" {
		h.IPAddress = Sentinel
	}
	if h.Groups == "" {
		h.Groups = Sentinel
	}
	if h.Templates == "" {
		h.Templates = Sentinel
	}
	return h
}

// Validate reports whether the host carries the identity fields every
// snapshot row requires.
func (h Host) Validate() error {
	if h.HostID == "" {
		return fmt.Errorf("host %q: missing host id", h.Hostname)
	}
	if h.Hostname == "" {
		return fmt.Errorf("host %s: missing hostname", h.HostID)
	}
	return nil
}

// ParseDate checks that s is a real calendar date in DateFormat and returns
// it unchanged.
func ParseDate(s string) (string, error) {
	if _, err := time.Parse(DateFormat, s); err != nil {
		return "", fmt.Errorf("invalid collection date %q: %w", s, err)
	}
	return s, nil
}

// Today formats now as a collection date.
func Today(now time.Time) string {
	return now.Format(DateFormat)
}
