package client

import (
	"context"
	"fmt"
)

func vpsPath(name string) string {
	return fmt.Sprintf("vps/%s", name)
}

// VpsList returns every VPS on this account.
func (c *Client) VpsList(ctx context.Context) ([]Vps, error) {
	var list vpsList
	if err := c.get(ctx, "vps", &list); err != nil {
		return nil, err
	}
	return list.Vpss, nil
}

// Vps fetches a single VPS by name.
func (c *Client) Vps(ctx context.Context, name string) (Vps, error) {
	var item vpsItem
	if err := c.get(ctx, vpsPath(name), &item); err != nil {
		return Vps{}, err
	}
	return item.Vps, nil
}

// VpsStart issues the "start" action against name.
func (c *Client) VpsStart(ctx context.Context, name string) error {
	return c.patch(ctx, vpsPath(name), vpsAction{Action: "start"})
}

// VpsStop issues the "stop" action against name.
func (c *Client) VpsStop(ctx context.Context, name string) error {
	return c.patch(ctx, vpsPath(name), vpsAction{Action: "stop"})
}

// VpsReset issues the "reset" action against name.
func (c *Client) VpsReset(ctx context.Context, name string) error {
	return c.patch(ctx, vpsPath(name), vpsAction{Action: "reset"})
}

// VpsSetIsLocked performs a read-modify-write: fetch the current
// representation, flip IsCustomerLocked, and PUT the whole VPS back.
// Last-write-wins; there is no compare-and-set.
func (c *Client) VpsSetIsLocked(ctx context.Context, name string, locked bool) error {
	vps, err := c.Vps(ctx, name)
	if err != nil {
		return err
	}
	vps.IsCustomerLocked = locked
	return c.put(ctx, vpsPath(name), vpsItem{Vps: vps})
}

// VpsSetDescription performs a read-modify-write on the VPS description.
func (c *Client) VpsSetDescription(ctx context.Context, name, description string) error {
	vps, err := c.Vps(ctx, name)
	if err != nil {
		return err
	}
	vps.Description = description
	return c.put(ctx, vpsPath(name), vpsItem{Vps: vps})
}
