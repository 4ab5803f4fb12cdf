package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

type fakeAddonRepo struct {
	mu      sync.Mutex
	addons  map[uuid.UUID]domain.AddonDefinition
	updates int
}

func newFakeAddonRepo() *fakeAddonRepo {
	return &fakeAddonRepo{addons: make(map[uuid.UUID]domain.AddonDefinition)}
}

func (r *fakeAddonRepo) Create(_ context.Context, a *domain.AddonDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.addons[a.ID] = *a
	return nil
}

func (r *fakeAddonRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AddonDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addons[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	a.Options = append([]domain.AddonOption(nil), a.Options...)
	return &a, nil
}

func (r *fakeAddonRepo) ListActiveByProduct(_ context.Context, shop, productID string) ([]*domain.AddonDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AddonDefinition, 0)
	for _, a := range r.addons {
		if a.Shop == shop && a.ProductID == productID && a.Active {
			a := a
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *fakeAddonRepo) Update(_ context.Context, a *domain.AddonDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.addons[a.ID]; !ok {
		return &errors.ErrNotFound{Resource: "addon", ID: a.ID.String()}
	}
	a.UpdatedAt = time.Now().UTC()
	r.addons[a.ID] = *a
	r.updates++
	return nil
}

func (r *fakeAddonRepo) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addons[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	if !a.Active {
		return false, nil
	}
	a.Active = false
	a.UpdatedAt = time.Now().UTC()
	r.addons[id] = a
	return true, nil
}

type fakeShopRepo struct {
	mu    sync.Mutex
	shops map[string]domain.Shop
}

func newFakeShopRepo() *fakeShopRepo {
	return &fakeShopRepo{shops: make(map[string]domain.Shop)}
}

func (r *fakeShopRepo) GetByDomain(_ context.Context, d string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shops[d]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: d}
	}
	return &s, nil
}

func (r *fakeShopRepo) Upsert(_ context.Context, s *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.shops[s.Domain]; ok {
		s.InstalledAt = existing.InstalledAt
		s.ScriptTagID = existing.ScriptTagID
	} else {
		s.InstalledAt = time.Now().UTC()
	}
	s.UpdatedAt = time.Now().UTC()
	r.shops[s.Domain] = *s
	return nil
}

func (r *fakeShopRepo) UpdateScriptTagID(_ context.Context, d string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shops[d]
	if !ok {
		return &errors.ErrNotFound{Resource: "shop", ID: d}
	}
	s.ScriptTagID = &id
	r.shops[d] = s
	return nil
}

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]string
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]string)}
}

func (r *fakeStateRepo) Save(_ context.Context, state, shop string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = shop
	return nil
}

func (r *fakeStateRepo) Consume(_ context.Context, state string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.states[state]
	if !ok {
		return "", &errors.ErrNotFound{Resource: "oauth state", ID: state}
	}
	delete(r.states, state)
	return shop, nil
}

func newFakeRepos() (*repository.Repositories, *fakeAddonRepo, *fakeShopRepo, *fakeStateRepo) {
	addons, shops, states := newFakeAddonRepo(), newFakeShopRepo(), newFakeStateRepo()
	return &repository.Repositories{Addon: addons, Shop: shops, OAuthState: states}, addons, shops, states
}

type stubResolver struct {
	ids   map[string]string
	err   error
	calls int
}

func (s *stubResolver) ResolveProductHandle(_ context.Context, _, handle string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.ids[handle], nil
}
