// Package entitlement exposes the user's tier, identity state, and quota
// as a read-only snapshot for UI components.
package entitlement

import (
	"inkwell/internal/auth"
	"inkwell/internal/usage"
)

// Tier is the user's subscription level.
type Tier string

const (
	TierUnknown Tier = "unknown"
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
)

// Monthly request allowances per tier. Zero means unlimited.
const (
	anonymousAllowance = 25
	freeAllowance      = 100
)

// QuotaStatus describes remaining allowance for metered tiers.
type QuotaStatus struct {
	PercentRemaining float64
}

// Snapshot is a point-in-time view of entitlement state. Quota is nil for
// unmetered tiers.
type Snapshot struct {
	Tier      Tier
	Anonymous bool
	Quota     *QuotaStatus
}

// Provider composes the account store and usage tracker into snapshots.
type Provider struct {
	accounts *auth.Store
	tracker  *usage.Tracker
}

// NewProvider creates an entitlement provider.
func NewProvider(accounts *auth.Store, tracker *usage.Tracker) *Provider {
	return &Provider{accounts: accounts, tracker: tracker}
}

// Snapshot reads the current entitlement state. Each call re-reads the
// underlying stores; callers own the consistency window.
func (p *Provider) Snapshot() Snapshot {
	acct := p.accounts.Current()

	if acct == nil {
		return Snapshot{
			Tier:      TierUnknown,
			Anonymous: true,
			Quota:     p.quota(anonymousAllowance),
		}
	}

	switch acct.Plan {
	case auth.PlanPro:
		return Snapshot{Tier: TierPro}
	case auth.PlanFree:
		return Snapshot{
			Tier:  TierFree,
			Quota: p.quota(freeAllowance),
		}
	default:
		return Snapshot{Tier: TierUnknown}
	}
}

func (p *Provider) quota(allowance int) *QuotaStatus {
	if p.tracker == nil {
		return nil
	}
	return &QuotaStatus{PercentRemaining: p.tracker.PercentRemaining(allowance)}
}
