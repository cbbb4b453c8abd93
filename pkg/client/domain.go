package client

import "context"

// DomainList returns every domain registered under this account, including
// nameservers and contacts.
func (c *Client) DomainList(ctx context.Context) ([]Domain, error) {
	var list domainList
	if err := c.get(ctx, "domains?include=nameservers,contacts", &list); err != nil {
		return nil, err
	}
	return list.Domains, nil
}
