// Package ratelimit decides which throttling bucket a request belongs to.
// The resolver only produces decisions; enforcement lives in the HTTP layer.
package ratelimit

import (
	"context"
	"time"

	"sentra.dev/internal/access"
)

// Decision names the bucket a request is counted against and the budget
// that bucket carries.
type Decision struct {
	Key    string
	Max    int
	Window time.Duration
}

const defaultWindow = 60 * time.Second

// Budgets per role. Unknown or unauthenticated callers get the anonymous
// tier.
const (
	maxAnonymous  = 60
	maxUser       = 120
	maxAdmin      = 600
	maxSuperAdmin = 1200
)

// Tighter budgets for credential endpoints, keyed by route. These apply
// before any role budget: a super_admin brute-forcing a password form is
// still a brute force.
var routeOverrides = map[string]int{
	"/v1/auth/sign-in":         10,
	"/v1/auth/sign-up":         5,
	"/v1/auth/forgot-password": 3,
	"/v1/auth/reset-password":  5,
}

// Principal is the resolved caller identity, if any.
type Principal struct {
	UserID string
	Role   access.Role
}

// Resolver maps a request's caller and route onto a throttling decision.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve picks the bucket for one request. Authenticated callers are keyed
// by user id so a user shares one budget across devices; anonymous callers
// are keyed by client IP. Resolution never fails: anything it cannot
// classify degrades to the anonymous tier.
func (r *Resolver) Resolve(_ context.Context, p *Principal, route, clientIP string) Decision {
	d := Decision{Window: defaultWindow}

	switch {
	case p != nil && p.UserID != "":
		d.Key = "user:" + p.UserID
		d.Max = roleBudget(p.Role)
	case clientIP != "":
		d.Key = "ip:" + clientIP
		d.Max = maxAnonymous
	default:
		// No identity at all. One shared bucket beats an unbounded one.
		d.Key = "ip:unknown"
		d.Max = maxAnonymous
	}

	if override, ok := routeOverrides[route]; ok {
		d.Key = route + "|" + d.Key
		d.Max = override
	}
	return d
}

func roleBudget(role access.Role) int {
	switch role {
	case access.RoleSuperAdmin:
		return maxSuperAdmin
	case access.RoleAdmin:
		return maxAdmin
	case access.RoleUser:
		return maxUser
	default:
		return maxAnonymous
	}
}
