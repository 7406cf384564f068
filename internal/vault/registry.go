package vault

import (
	"context"
	"sync"
)

// Registry maps token identifiers to their metadata. The native asset is
// configured at vault construction and is never an entry here.
//
// Register overwrites any prior metadata without error; Update requires the
// asset to have been registered before. Deregistering clears the registered
// flag but keeps the entry, so balances already held stay withdrawable.
type Registry struct {
	auth   Authorizer
	events EventSink

	mu     sync.RWMutex
	assets map[string]AssetMeta
}

func newRegistry(auth Authorizer, events EventSink) *Registry {
	return &Registry{
		auth:   auth,
		events: events,
		assets: make(map[string]AssetMeta),
	}
}

// Register creates or replaces the metadata for a token type.
func (r *Registry) Register(ctx context.Context, caller, tokenID string, precision uint8, source PriceSource) error {
	if !r.auth.IsAllowed(caller, CapConfigureAssets) {
		return ErrUnauthorized
	}
	if tokenID == "" || tokenID == NativeAssetID {
		return ErrInvalidAsset
	}
	if source == nil {
		return ErrPriceSourceMissing
	}

	r.mu.Lock()
	r.assets[tokenID] = AssetMeta{
		Precision:   precision,
		PriceSource: source,
		Registered:  true,
	}
	r.mu.Unlock()

	ev := newEvent(EventAssetRegistered)
	ev.Asset = tokenID
	ev.Precision = precision
	ev.PriceSource = describeSource(source)
	return r.events.Append(ctx, ev)
}

// Update replaces the metadata for a previously registered token type.
func (r *Registry) Update(ctx context.Context, caller, tokenID string, precision uint8, source PriceSource) error {
	if !r.auth.IsAllowed(caller, CapConfigureAssets) {
		return ErrUnauthorized
	}
	if source == nil {
		return ErrPriceSourceMissing
	}

	r.mu.Lock()
	meta, ok := r.assets[tokenID]
	if !ok {
		r.mu.Unlock()
		return ErrAssetNotConfigured
	}
	meta.Precision = precision
	meta.PriceSource = source
	r.assets[tokenID] = meta
	r.mu.Unlock()

	ev := newEvent(EventAssetUpdated)
	ev.Asset = tokenID
	ev.Precision = precision
	ev.PriceSource = describeSource(source)
	return r.events.Append(ctx, ev)
}

// Deregister clears the registered flag, blocking new deposits of the asset.
// Withdrawals of existing balances remain possible.
func (r *Registry) Deregister(ctx context.Context, caller, tokenID string) error {
	if !r.auth.IsAllowed(caller, CapConfigureAssets) {
		return ErrUnauthorized
	}

	r.mu.Lock()
	meta, ok := r.assets[tokenID]
	if !ok {
		r.mu.Unlock()
		return ErrAssetNotConfigured
	}
	meta.Registered = false
	r.assets[tokenID] = meta
	r.mu.Unlock()

	ev := newEvent(EventAssetUpdated)
	ev.Asset = tokenID
	ev.Precision = meta.Precision
	ev.PriceSource = describeSource(meta.PriceSource)
	return r.events.Append(ctx, ev)
}

// Lookup returns the metadata for a token type.
func (r *Registry) Lookup(tokenID string) (AssetMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.assets[tokenID]
	return meta, ok
}
