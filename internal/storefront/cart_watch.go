package storefront

import "context"

// ScheduledCartAPI arms a reconciliation after every successful cart write made
// through it. Theme code and other outside writers use it; the reconciler gets
// the plain CartAPI so its own writes do not re-arm the scheduler.
type ScheduledCartAPI struct {
	CartAPI
	scheduler *Scheduler
}

func NewScheduledCartAPI(api CartAPI, scheduler *Scheduler) *ScheduledCartAPI {
	return &ScheduledCartAPI{CartAPI: api, scheduler: scheduler}
}

func (a *ScheduledCartAPI) AddLine(ctx context.Context, variantID string, quantity int64, properties map[string]string) error {
	if err := a.CartAPI.AddLine(ctx, variantID, quantity, properties); err != nil {
		return err
	}
	a.scheduler.Schedule()
	return nil
}

func (a *ScheduledCartAPI) UpdateQuantity(ctx context.Context, lineKey string, quantity int64) error {
	if err := a.CartAPI.UpdateQuantity(ctx, lineKey, quantity); err != nil {
		return err
	}
	a.scheduler.Schedule()
	return nil
}
