package out

import "context"

// CachePort — сброс закэшированных данных хранилища по событиям извне
type CachePort interface {
	InvalidateProvider(ctx context.Context, providerID string)
	InvalidateScheduleRules(ctx context.Context, providerID string)
	InvalidateAppointments(ctx context.Context, providerID string)
	InvalidateAll(ctx context.Context)
}
