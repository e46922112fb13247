package ratelimit

import (
	"context"
	"testing"
	"time"

	"sentra.dev/internal/access"
)

func TestResolveAuthenticated(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		role access.Role
		max  int
	}{
		{access.RoleUser, maxUser},
		{access.RoleAdmin, maxAdmin},
		{access.RoleSuperAdmin, maxSuperAdmin},
		{access.Role("bogus"), maxAnonymous},
	}
	for _, tt := range tests {
		d := r.Resolve(context.Background(), &Principal{UserID: "u1", Role: tt.role}, "/v1/sessions", "10.0.0.1")
		if d.Key != "user:u1" {
			t.Fatalf("role %s: expected user key, got %s", tt.role, d.Key)
		}
		if d.Max != tt.max {
			t.Fatalf("role %s: expected max %d, got %d", tt.role, tt.max, d.Max)
		}
		if d.Window != 60*time.Second {
			t.Fatalf("role %s: unexpected window %s", tt.role, d.Window)
		}
	}
}

func TestResolveAnonymousKeyedByIP(t *testing.T) {
	r := NewResolver()

	d := r.Resolve(context.Background(), nil, "/v1/info", "203.0.113.7")
	if d.Key != "ip:203.0.113.7" {
		t.Fatalf("unexpected key %s", d.Key)
	}
	if d.Max != maxAnonymous {
		t.Fatalf("unexpected max %d", d.Max)
	}

	// Two different IPs land in different buckets.
	other := r.Resolve(context.Background(), nil, "/v1/info", "203.0.113.8")
	if other.Key == d.Key {
		t.Fatal("distinct IPs must not share a bucket")
	}
}

func TestResolveNoIdentityAtAll(t *testing.T) {
	r := NewResolver()

	d := r.Resolve(context.Background(), nil, "/v1/info", "")
	if d.Key == "" {
		t.Fatal("a keyless decision would disable throttling")
	}
	if d.Max != maxAnonymous {
		t.Fatalf("unexpected max %d", d.Max)
	}
}

func TestResolveAuthRouteOverride(t *testing.T) {
	r := NewResolver()

	// Override applies to anonymous callers.
	d := r.Resolve(context.Background(), nil, "/v1/auth/sign-in", "203.0.113.7")
	if d.Max != 10 {
		t.Fatalf("expected sign-in budget 10, got %d", d.Max)
	}

	// And beats even the highest role budget.
	d = r.Resolve(context.Background(), &Principal{UserID: "root", Role: access.RoleSuperAdmin}, "/v1/auth/sign-in", "")
	if d.Max != 10 {
		t.Fatalf("expected route override to beat role budget, got %d", d.Max)
	}

	// Route-scoped keys keep credential attempts out of the general bucket.
	general := r.Resolve(context.Background(), nil, "/v1/info", "203.0.113.7")
	signIn := r.Resolve(context.Background(), nil, "/v1/auth/sign-in", "203.0.113.7")
	if general.Key == signIn.Key {
		t.Fatal("auth route must use its own bucket")
	}
}

func TestResolveEmptyPrincipalFallsBack(t *testing.T) {
	r := NewResolver()

	d := r.Resolve(context.Background(), &Principal{}, "/v1/info", "10.1.1.1")
	if d.Key != "ip:10.1.1.1" {
		t.Fatalf("principal without user id should degrade to ip key, got %s", d.Key)
	}
	if d.Max != maxAnonymous {
		t.Fatalf("unexpected max %d", d.Max)
	}
}
