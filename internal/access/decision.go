// Package access holds the view/destroy authorization rules. Everything
// here is pure (record + identity + clock in, verdict out) so the rules
// can be tested without a database or object store behind them.
package access

import (
	"time"

	"github.com/VanishVault/Vault-Service/internal/models"
)

// Identity describes the requester as established by token verification.
// A zero Identity is an anonymous, unauthenticated requester.
type Identity struct {
	UserID string
	Email  string // lower-cased verified email, empty when absent
}

// Authenticated reports whether token verification succeeded.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Viewer returns the identity string recorded in the viewer log.
func (i Identity) Viewer() string {
	if i.Email != "" {
		return i.Email
	}
	return models.AnonymousViewer
}

// Decision is the outcome of evaluating a view request.
type Decision int

const (
	NotFound Decision = iota
	Expired
	Restricted
	Destroyed
	Allowed
)

func (d Decision) String() string {
	switch d {
	case NotFound:
		return "not-found"
	case Expired:
		return "expired"
	case Restricted:
		return "restricted"
	case Destroyed:
		return "destroyed"
	case Allowed:
		return "allowed"
	}
	return "unknown"
}

// Verdict pairs a Decision with the authentication hint surfaced on
// restricted denials.
type Verdict struct {
	Decision Decision
	// NeedsAuth is set on Restricted verdicts when the requester was
	// unauthenticated; logging in might still get them in.
	NeedsAuth bool
}

// Evaluate decides whether ident may view rec at the given instant.
//
// Checks run in a fixed order and each failure short-circuits:
// existence, expiry, restriction, self-destruct. A denial at any stage
// must not consume a view, so callers only touch the counter on Allowed.
// Malformed records fail closed as NotFound. The owner bypasses the
// restriction list but not expiry, and not the after-view self-destruct:
// once a single-view file has been seen, it is gone for everyone.
func Evaluate(rec *models.FileRecord, ident Identity, now time.Time) Verdict {
	if rec == nil || rec.Validate() != nil {
		return Verdict{Decision: NotFound}
	}

	if !now.Before(rec.ExpiresAt) {
		return Verdict{Decision: Expired}
	}

	canAccess := ident.UserID == rec.OwnerID ||
		rec.IsPublic() ||
		rec.IsAllowedEmail(ident.Email)
	if !canAccess {
		return Verdict{Decision: Restricted, NeedsAuth: !ident.Authenticated()}
	}

	if rec.SelfDestructAfterView && rec.Views > 0 {
		return Verdict{Decision: Destroyed}
	}

	return Verdict{Decision: Allowed}
}

// CanDestroy is the single predicate deciding who may purge a file.
// Deliberately broad: besides the owner, any self-destructing or public
// link may be destroyed by whoever holds it, and restricted links by any
// listed viewer. Tighten here, not at call sites.
func CanDestroy(rec *models.FileRecord, ident Identity) bool {
	if rec == nil {
		return false
	}
	return ident.Authenticated() && ident.UserID == rec.OwnerID ||
		rec.SelfDestructAfter10Sec ||
		rec.SelfDestructAfterView ||
		rec.IsPublic() ||
		rec.IsAllowedEmail(ident.Email)
}
