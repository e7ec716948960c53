package domain

// SectorAccess is a per-user permission override for one (mine, sector)
// pair. A user has at most one entry per pair.
type SectorAccess struct {
	MineID      string             `json:"mine_id" db:"mine_id"`
	SectorID    string             `json:"sector_id" db:"sector_id"`
	Permissions []SectorPermission `json:"permissions"`
}

// User is an operator account. RoleID may be empty (a user with no role has
// the empty permission set in every scope).
type User struct {
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
	RoleID string `json:"role_id" db:"role_id"`

	SectorAccess []SectorAccess `json:"sector_access,omitempty"`
}

// AccessFor returns the SectorAccess entry matching the given sector, or
// nil when the user has no override for it.
func (u *User) AccessFor(ref SectorRef) *SectorAccess {
	for i := range u.SectorAccess {
		a := &u.SectorAccess[i]
		if a.MineID == ref.MineID && a.SectorID == ref.SectorID {
			return a
		}
	}
	return nil
}
