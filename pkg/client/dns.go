package client

import (
	"context"
	"fmt"
)

func domainDNSPath(domainName string) string {
	return fmt.Sprintf("domains/%s/dns", domainName)
}

// DnsEntryList returns every DNS resource record configured for domainName.
func (c *Client) DnsEntryList(ctx context.Context, domainName string) ([]DnsEntry, error) {
	var list dnsEntryList
	if err := c.get(ctx, domainDNSPath(domainName), &list); err != nil {
		return nil, err
	}
	return list.DnsEntries, nil
}

// DnsEntryInsert publishes entry under domainName's DNS resource. The
// provider accepts duplicates silently — callers relying on exactly-one
// semantics must call DnsEntryDeleteAll with a matching predicate first.
func (c *Client) DnsEntryInsert(ctx context.Context, domainName string, entry DnsEntry) error {
	return c.post(ctx, domainDNSPath(domainName), dnsEntryItem{DnsEntry: entry}, nil)
}

// DnsEntryDelete removes exactly entry from domainName's DNS resource.
func (c *Client) DnsEntryDelete(ctx context.Context, domainName string, entry DnsEntry) error {
	return c.delete(ctx, domainDNSPath(domainName), dnsEntryItem{DnsEntry: entry})
}

// DnsEntryDeleteAll lists domainName's DNS entries, deletes every entry for
// which predicate returns true, and short-circuits on the first deletion
// failure. Idempotent: a repeated call sees fewer matching entries.
func (c *Client) DnsEntryDeleteAll(ctx context.Context, domainName string, predicate func(DnsEntry) bool) error {
	entries, err := c.DnsEntryList(ctx, domainName)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !predicate(entry) {
			continue
		}
		if err := c.DnsEntryDelete(ctx, domainName, entry); err != nil {
			return err
		}
	}
	return nil
}

// NameServerList returns the name servers assigned to domainName.
func (c *Client) NameServerList(ctx context.Context, domainName string) ([]NameServer, error) {
	var list nameServerList
	path := fmt.Sprintf("domains/%s/nameservers", domainName)
	if err := c.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return list.NameServers, nil
}
