// Package activedirectory collects host inventory from Active Directory
// computer accounts over LDAP, as an alternative source for fleets that are
// domain-joined but not yet fully monitored.
package activedirectory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	"f0oster/zbxspy/collector"
	"f0oster/zbxspy/inventory"
)

// enabledComputersFilter matches computer objects whose ACCOUNTDISABLE bit
// is not set.
const enabledComputersFilter = "(&(objectCategory=computer)(!(userAccountControl:1.2.840.113556.1.4.803:=2)))"

var searchAttributes = []string{"objectGUID", "name", "dNSHostName", "memberOf"}

var _ collector.Source = (*Source)(nil)

// Config carries the connection settings for one directory.
type Config struct {
	// URL is an ldap:// or ldaps:// endpoint of a domain controller.
	URL      string
	BaseDN   string
	Username string
	Password string
	PageSize uint32
}

// Source is a bound LDAP session enumerating enabled computer accounts.
type Source struct {
	conn     *ldap.Conn
	baseDN   string
	pageSize uint32
	log      *slog.Logger
}

// Connect dials and binds the directory.
func Connect(cfg Config, log *slog.Logger) (*Source, error) {
	conn, err := ldap.DialURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial ldap %s: %w", cfg.URL, err)
	}
	if err := conn.Bind(cfg.Username, cfg.Password); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bind ldap as %s: %w", cfg.Username, err)
	}

	if res, err := conn.WhoAmI(nil); err == nil {
		log.Info("connected to directory", "url", cfg.URL, "authzid", res.AuthzID)
	}

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 500
	}
	return &Source{conn: conn, baseDN: cfg.BaseDN, pageSize: pageSize, log: log}, nil
}

// Hosts pages through every enabled computer account under the base DN.
// The directory has no template concept, so Templates is always the
// sentinel.
func (s *Source) Hosts(ctx context.Context) ([]inventory.Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(
		s.baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		enabledComputersFilter,
		searchAttributes,
		nil,
	)

	res, err := s.conn.SearchWithPaging(req, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("search computers under %s: %w", s.baseDN, err)
	}

	hosts := make([]inventory.Host, 0, len(res.Entries))
	for _, entry := range res.Entries {
		id, err := guidString(entry.GetRawAttributeValue("objectGUID"))
		if err != nil {
			s.log.Warn("skipping entry with bad objectGUID", "dn", entry.DN, "error", err)
			continue
		}
		hosts = append(hosts, inventory.Host{
			HostID:    id,
			Hostname:  entry.GetAttributeValue("name"),
			IPAddress: entry.GetAttributeValue("dNSHostName"),
			Groups:    joinGroupCNs(entry.GetAttributeValues("memberOf")),
		}.Normalized())
	}

	s.log.Info("hosts collected", "count", len(hosts), "base_dn", s.baseDN)
	return hosts, nil
}

func (s *Source) Close() error {
	return s.conn.Close()
}

// guidString converts a 16-byte Active Directory GUID, whose first three
// fields are little-endian, into the canonical RFC 4122 text form.
func guidString(raw []byte) (string, error) {
	if len(raw) != 16 {
		return "", fmt.Errorf("expected 16 GUID bytes, got %d", len(raw))
	}

	rfcBytes := make([]byte, 16)
	copy(rfcBytes, raw)
	rfcBytes[0], rfcBytes[1], rfcBytes[2], rfcBytes[3] = rfcBytes[3], rfcBytes[2], rfcBytes[1], rfcBytes[0]
	rfcBytes[4], rfcBytes[5] = rfcBytes[5], rfcBytes[4]
	rfcBytes[6], rfcBytes[7] = rfcBytes[7], rfcBytes[6]

	u, err := uuid.FromBytes(rfcBytes)
	if err != nil {
		return "", fmt.Errorf("invalid GUID bytes: %w", err)
	}
	return u.String(), nil
}

// joinGroupCNs reduces memberOf DNs to their leading CN values, sorted so
// the joined string is stable across directory servers.
func joinGroupCNs(dns []string) string {
	names := make([]string, 0, len(dns))
	for _, dn := range dns {
		if cn := leadingCN(dn); cn != "" {
			names = append(names, cn)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// leadingCN extracts the value of the first CN component of a DN.
func leadingCN(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil || len(parsed.RDNs) == 0 {
		return ""
	}
	for _, attr := range parsed.RDNs[0].Attributes {
		if strings.EqualFold(attr.Type, "CN") {
			return attr.Value
		}
	}
	return ""
}
