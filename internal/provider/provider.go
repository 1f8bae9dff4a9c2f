// Package provider normalizes externally verified identities from
// OAuth/OIDC providers. A provider returns facts only; account
// creation and token issuance stay in the service layer.
package provider

import (
	"context"
	"fmt"
)

// Identity is a normalized external identity whose email ownership has
// already been asserted by the provider.
type Identity struct {
	Provider string
	Email    string
	Name     string
}

type Provider interface {
	Name() string
	// ExchangeCode trades an authorization code for a verified Identity.
	ExchangeCode(ctx context.Context, code string) (Identity, error)
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}
