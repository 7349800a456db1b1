/*
directory.go - User/role directory with hierarchy validation

PURPOSE:
  Manages identity (NIK, name), role, and each user's configured
  approver1/approver2 references. All writes re-validate the role
  hierarchy before committing.

HIERARCHY INVARIANTS:
  employee:   may reference any combination of approver1/approver2
  approver1:  must reference an approver2 superior (mandatory), and
              never another approver1
  approver2:  references no superior
  admin:      references no superior
  nobody references themselves, and every referenced NIK must resolve
  to a user holding the referenced role.

SEE ALSO:
  - types.go: User, Role
  - store.go: UserStore contract
*/
package overtime

import (
	"context"
	"fmt"
	"time"
)

// Directory manages directory records on top of a UserStore.
type Directory struct {
	Users UserStore

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewDirectory creates a directory service backed by the given store.
func NewDirectory(users UserStore) *Directory {
	return &Directory{Users: users, Now: time.Now}
}

// =============================================================================
// READS
// =============================================================================

// GetByNIK resolves a NIK to its directory record.
func (d *Directory) GetByNIK(ctx context.Context, nik NIK) (*User, error) {
	return d.Users.GetUser(ctx, nik)
}

// ListAll returns every directory record.
func (d *Directory) ListAll(ctx context.Context) ([]User, error) {
	return d.Users.ListUsers(ctx)
}

// ListByRole returns the users holding one role. Used to populate
// approver pickers.
func (d *Directory) ListByRole(ctx context.Context, role Role) ([]User, error) {
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	all, err := d.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []User
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// =============================================================================
// WRITES - Admin actions
// =============================================================================

// Create registers a new user. Admin action.
func (d *Directory) Create(ctx context.Context, u User) error {
	if u.NIK == "" {
		return &ValidationError{Field: "nik", Message: "must not be empty"}
	}
	if u.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if err := d.validateHierarchy(ctx, u); err != nil {
		return err
	}
	u.CreatedAt = d.Now()
	return d.Users.SaveUser(ctx, u)
}

// UpdateRole reassigns a user's role and approver references. The full
// hierarchy invariant is re-validated against the current directory
// before committing.
func (d *Directory) UpdateRole(ctx context.Context, nik NIK, role Role, approver1, approver2 *NIK) error {
	cur, err := d.Users.GetUser(ctx, nik)
	if err != nil {
		return err
	}
	next := *cur
	next.Role = role
	next.Approver1 = approver1
	next.Approver2 = approver2
	if err := d.validateHierarchy(ctx, next); err != nil {
		return err
	}
	return d.Users.UpdateUser(ctx, next)
}

// UpdateProfile applies a self-service edit: name and pickup point
// only. Role and approver references are untouchable here.
func (d *Directory) UpdateProfile(ctx context.Context, nik NIK, name, pickupPoint string) error {
	cur, err := d.Users.GetUser(ctx, nik)
	if err != nil {
		return err
	}
	if name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	next := *cur
	next.Name = name
	next.PickupPoint = pickupPoint
	return d.Users.UpdateUser(ctx, next)
}

// Delete removes a user's role and profile records. Historical requests
// keep their denormalized name/NIK snapshot and are not cascaded.
func (d *Directory) Delete(ctx context.Context, nik NIK) error {
	return d.Users.DeleteUser(ctx, nik)
}

// =============================================================================
// HIERARCHY VALIDATION
// =============================================================================

func (d *Directory) validateHierarchy(ctx context.Context, u User) error {
	if !u.Role.Valid() {
		return &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", u.Role)}
	}
	if u.Approver1 != nil && *u.Approver1 == u.NIK {
		return &ValidationError{Field: "approver1", Message: "user cannot be their own approver"}
	}
	if u.Approver2 != nil && *u.Approver2 == u.NIK {
		return &ValidationError{Field: "approver2", Message: "user cannot be their own approver"}
	}

	switch u.Role {
	case RoleEmployee:
		// Any combination is allowed; set refs must resolve.
	case RoleApprover1:
		if u.Approver1 != nil {
			return &ValidationError{Field: "approver1", Message: "an approver1 cannot report to another approver1"}
		}
		if u.Approver2 == nil {
			return &ValidationError{Field: "approver2", Message: "an approver1 must have an approver2 superior"}
		}
	case RoleApprover2, RoleAdmin:
		if u.Approver1 != nil || u.Approver2 != nil {
			return &ValidationError{Field: "role", Message: string(u.Role) + " references no superior"}
		}
	}

	if err := d.checkRef(ctx, "approver1", u.Approver1, RoleApprover1); err != nil {
		return err
	}
	return d.checkRef(ctx, "approver2", u.Approver2, RoleApprover2)
}

// checkRef resolves a configured approver reference and verifies the
// referenced user actually holds the referenced role.
func (d *Directory) checkRef(ctx context.Context, field string, ref *NIK, want Role) error {
	if ref == nil {
		return nil
	}
	target, err := d.Users.GetUser(ctx, *ref)
	if err != nil {
		if IsNotFound(err) {
			return &ValidationError{Field: field, Message: fmt.Sprintf("no user with NIK %q", *ref)}
		}
		return err
	}
	if target.Role != want {
		return &ValidationError{Field: field, Message: fmt.Sprintf("user %q holds role %s, not %s", *ref, target.Role, want)}
	}
	return nil
}
