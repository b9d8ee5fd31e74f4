package diff

import "f0oster/zbxspy/inventory"

// ModifiedHost records one host present in both snapshots with at least one
// attribute difference. Old/New pairs carry the exact stored strings and the
// *Changed flags mark which attributes differ.
type ModifiedHost struct {
	HostID           string `json:"host_id"`
	Hostname         string `json:"hostname"`
	OldIP            string `json:"old_ip"`
	NewIP            string `json:"new_ip"`
	OldGroups        string `json:"old_groups"`
	NewGroups        string `json:"new_groups"`
	OldTemplates     string `json:"old_templates"`
	NewTemplates     string `json:"new_templates"`
	IPChanged        bool   `json:"ip_changed"`
	GroupsChanged    bool   `json:"groups_changed"`
	TemplatesChanged bool   `json:"templates_changed"`
}

// Result classifies every host id seen on either side of a snapshot pair.
// Added, Removed and Modified are disjoint by host id; hosts with no
// attribute change are not reported at all.
//
// TotalCurrent and TotalPrevious are raw input lengths. They can exceed the
// identity-set sizes when an input carries duplicate ids, and that
// divergence is preserved rather than papered over.
type Result struct {
	Added         []inventory.Host `json:"added"`
	Removed       []inventory.Host `json:"removed"`
	Modified      []ModifiedHost   `json:"modified"`
	TotalCurrent  int              `json:"total_current"`
	TotalPrevious int              `json:"total_previous"`
}

// Summary is the scalar rollup of a Result, or of a whole period of them.
type Summary struct {
	HostsAdded    int `json:"hosts_added"`
	HostsRemoved  int `json:"hosts_removed"`
	HostsModified int `json:"hosts_modified"`
	TotalCurrent  int `json:"total_current"`
	TotalPrevious int `json:"total_previous"`
	NetChange     int `json:"net_change"`
}
