package diff

import (
	"reflect"
	"testing"

	"f0oster/zbxspy/inventory"
)

func host(id, name, ip, groups, templates string) inventory.Host {
	return inventory.Host{
		HostID:    id,
		Hostname:  name,
		IPAddress: ip,
		Groups:    groups,
		Templates: templates,
	}
}

func TestCompareAddedOnly(t *testing.T) {
	previous := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
	}
	current := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
		host("2", "web-02", "10.0.0.2", "Web", "Linux"),
	}

	res := Compare(current, previous)

	if len(res.Added) != 1 || res.Added[0].HostID != "2" {
		t.Fatalf("Added = %+v, want exactly host 2", res.Added)
	}
	if len(res.Removed) != 0 {
		t.Errorf("Removed = %+v, want empty", res.Removed)
	}
	if len(res.Modified) != 0 {
		t.Errorf("Modified = %+v, want empty", res.Modified)
	}
	if res.TotalCurrent != 2 || res.TotalPrevious != 1 {
		t.Errorf("totals = %d/%d, want 2/1", res.TotalCurrent, res.TotalPrevious)
	}
}

func TestCompareModifiedIPOnly(t *testing.T) {
	previous := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
	}
	current := []inventory.Host{
		host("1", "web-01", "10.0.0.99", "Web", "Linux"),
	}

	res := Compare(current, previous)

	if len(res.Added) != 0 || len(res.Removed) != 0 {
		t.Fatalf("Added/Removed = %+v/%+v, want both empty", res.Added, res.Removed)
	}
	if len(res.Modified) != 1 {
		t.Fatalf("Modified = %+v, want one entry", res.Modified)
	}

	mod := res.Modified[0]
	if mod.OldIP != "10.0.0.1" || mod.NewIP != "10.0.0.99" {
		t.Errorf("ip pair = %q -> %q, want 10.0.0.1 -> 10.0.0.99", mod.OldIP, mod.NewIP)
	}
	if !mod.IPChanged || mod.GroupsChanged || mod.TemplatesChanged {
		t.Errorf("flags = ip:%v groups:%v templates:%v, want only ip set",
			mod.IPChanged, mod.GroupsChanged, mod.TemplatesChanged)
	}
}

func TestCompareIdenticalSnapshots(t *testing.T) {
	hosts := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
		host("2", "db-01", "10.0.0.2", "DB", "Linux, PostgreSQL"),
	}

	res := Compare(hosts, hosts)

	if HasChanges(res) {
		t.Fatalf("identical snapshots reported changes: %+v", res)
	}
	if res.TotalCurrent != 2 || res.TotalPrevious != 2 {
		t.Errorf("totals = %d/%d, want 2/2", res.TotalCurrent, res.TotalPrevious)
	}
	if got := Summarize(res).NetChange; got != 0 {
		t.Errorf("NetChange = %d, want 0", got)
	}
}

func TestCompareSymmetry(t *testing.T) {
	a := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
		host("2", "db-01", "10.0.0.2", "DB", "Linux"),
	}
	b := []inventory.Host{
		host("2", "db-01", "10.0.0.2", "DB", "Linux"),
		host("3", "app-01", "10.0.0.3", "App", "Linux"),
	}

	ab := Compare(a, b)
	ba := Compare(b, a)

	if !reflect.DeepEqual(ab.Added, ba.Removed) {
		t.Errorf("Compare(a,b).Added = %+v, Compare(b,a).Removed = %+v", ab.Added, ba.Removed)
	}
	if !reflect.DeepEqual(ab.Removed, ba.Added) {
		t.Errorf("Compare(a,b).Removed = %+v, Compare(b,a).Added = %+v", ab.Removed, ba.Added)
	}
	if len(ab.Modified) != len(ba.Modified) {
		t.Errorf("modified counts differ: %d vs %d", len(ab.Modified), len(ba.Modified))
	}
}

func TestCompareClassifiesEveryID(t *testing.T) {
	previous := []inventory.Host{
		host("1", "keep", "10.0.0.1", "A", "T"),
		host("2", "gone", "10.0.0.2", "A", "T"),
		host("3", "moved", "10.0.0.3", "A", "T"),
	}
	current := []inventory.Host{
		host("1", "keep", "10.0.0.1", "A", "T"),
		host("3", "moved", "10.0.0.3", "B", "T"),
		host("4", "fresh", "10.0.0.4", "A", "T"),
	}

	res := Compare(current, previous)

	classified := map[string]string{}
	record := func(id, section string) {
		if prev, ok := classified[id]; ok {
			t.Fatalf("host %s classified twice: %s and %s", id, prev, section)
		}
		classified[id] = section
	}
	for _, h := range res.Added {
		record(h.HostID, "added")
	}
	for _, h := range res.Removed {
		record(h.HostID, "removed")
	}
	for _, m := range res.Modified {
		record(m.HostID, "modified")
	}

	want := map[string]string{"2": "removed", "3": "modified", "4": "added"}
	if !reflect.DeepEqual(classified, want) {
		t.Errorf("classification = %v, want %v", classified, want)
	}
}

func TestCompareDuplicateIDs(t *testing.T) {
	// Inputs with repeated ids keep their raw lengths in the totals while
	// identity-based sections stay deduplicated, last occurrence winning.
	previous := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
	}
	current := []inventory.Host{
		host("1", "web-01", "10.0.0.1", "Web", "Linux"),
		host("1", "web-01", "10.0.0.50", "Web", "Linux"),
	}

	res := Compare(current, previous)

	if res.TotalCurrent != 2 || res.TotalPrevious != 1 {
		t.Errorf("totals = %d/%d, want raw 2/1", res.TotalCurrent, res.TotalPrevious)
	}
	if len(res.Added) != 0 || len(res.Removed) != 0 {
		t.Errorf("Added/Removed = %+v/%+v, want both empty", res.Added, res.Removed)
	}
	if len(res.Modified) != 1 {
		t.Fatalf("Modified = %+v, want one entry", res.Modified)
	}
	if got := res.Modified[0].NewIP; got != "10.0.0.50" {
		t.Errorf("NewIP = %q, want last occurrence 10.0.0.50", got)
	}

	sum := Summarize(res)
	if sum.NetChange != 1 {
		t.Errorf("NetChange = %d, want raw total difference 1", sum.NetChange)
	}
}

func TestCompareOrderFollowsInput(t *testing.T) {
	previous := []inventory.Host{}
	current := []inventory.Host{
		host("9", "z-host", "10.0.0.9", "A", "T"),
		host("2", "a-host", "10.0.0.2", "A", "T"),
		host("5", "m-host", "10.0.0.5", "A", "T"),
	}

	res := Compare(current, previous)

	gotIDs := make([]string, len(res.Added))
	for i, h := range res.Added {
		gotIDs[i] = h.HostID
	}
	if want := []string{"9", "2", "5"}; !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("Added order = %v, want input order %v", gotIDs, want)
	}
}

func TestSummarize(t *testing.T) {
	res := Result{
		Added:         []inventory.Host{host("4", "d", "", "", ""), host("5", "e", "", "", "")},
		Removed:       []inventory.Host{host("1", "a", "", "", "")},
		Modified:      []ModifiedHost{{HostID: "2"}},
		TotalCurrent:  11,
		TotalPrevious: 10,
	}

	sum := Summarize(res)

	if sum.HostsAdded != 2 || sum.HostsRemoved != 1 || sum.HostsModified != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", sum.HostsAdded, sum.HostsRemoved, sum.HostsModified)
	}
	if sum.NetChange != 1 {
		t.Errorf("NetChange = %d, want 1", sum.NetChange)
	}
}

func TestHasChanges(t *testing.T) {
	if HasChanges(Result{TotalCurrent: 5, TotalPrevious: 5}) {
		t.Error("empty sections reported as changed")
	}
	if !HasChanges(Result{Modified: []ModifiedHost{{HostID: "1"}}}) {
		t.Error("modified host not reported as change")
	}
}
