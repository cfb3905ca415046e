package application

import "sort"

// Capability names one action a principal may perform.
type Capability string

// Capabilities checked by the services.
const (
	CapDirectoryManage       Capability = "directory.manage"
	CapAppointmentsBook      Capability = "appointments.book"
	CapAppointmentsManageAny Capability = "appointments.manage_any"
	CapTermsCreateTemplates  Capability = "terms.create_templates"
	CapTermsIssue            Capability = "terms.issue"
	CapTermsDelete           Capability = "terms.delete"
	CapTermsReturn           Capability = "terms.return"
	CapTermsSeeAllSectors    Capability = "terms.see_all_sectors"
	CapTermsSignOwn          Capability = "terms.sign_own"
	CapSignaturesRequest     Capability = "signatures.request"
	CapSignaturesManage      Capability = "signatures.manage"
	CapSettingsManage        Capability = "settings.manage"
)

// AllCapabilities lists every capability in a stable order.
func AllCapabilities() []Capability {
	return []Capability{
		CapDirectoryManage,
		CapAppointmentsBook,
		CapAppointmentsManageAny,
		CapTermsCreateTemplates,
		CapTermsIssue,
		CapTermsDelete,
		CapTermsReturn,
		CapTermsSeeAllSectors,
		CapTermsSignOwn,
		CapSignaturesRequest,
		CapSignaturesManage,
		CapSettingsManage,
	}
}

// Employee roles.
const (
	RoleMaster = "master"
	RoleAdmin  = "admin"
	RoleTI     = "ti"
	RoleUser   = "user"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleMaster, RoleAdmin, RoleTI, RoleUser:
		return true
	}
	return false
}

// IsElevatedRole reports whether role bypasses department checks.
func IsElevatedRole(role string) bool {
	return role == RoleMaster || role == RoleAdmin
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	members map[Capability]struct{}
}

// NewCapabilitySet builds a set from caps.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	members := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		members[c] = struct{}{}
	}
	return CapabilitySet{members: members}
}

// Has reports membership.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s.members[c]
	return ok
}

// List returns the members sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s.members))
	for c := range s.members {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Principal represents the authenticated employee invoking a service method.
// Capabilities are resolved once, when the session is validated.
type Principal struct {
	UserID       string
	Name         string
	Role         string
	DepartmentID string
	UnitID       string
	Capabilities CapabilitySet
}

// Can reports whether the principal holds capability c.
func (p Principal) Can(c Capability) bool {
	return p.Capabilities.Has(c)
}

// IsElevated reports whether the principal has a master or admin role.
func (p Principal) IsElevated() bool {
	return IsElevatedRole(p.Role)
}

// canReachDepartment reports whether the principal may act on records of department.
func (p Principal) canReachDepartment(departmentID string) bool {
	return p.Can(CapTermsSeeAllSectors) || (departmentID != "" && p.DepartmentID == departmentID)
}

// ResolveCapabilities derives the capability set of an employee from its
// role and the department permission matrix.
func ResolveCapabilities(employee Employee, settings Settings) CapabilitySet {
	if IsElevatedRole(employee.Role) {
		return NewCapabilitySet(AllCapabilities()...)
	}

	caps := []Capability{CapAppointmentsBook, CapTermsSignOwn, CapSignaturesRequest}
	if employee.Role == RoleTI {
		caps = append(caps, CapSignaturesManage)
	}

	perms, ok := settings.Departments[employee.DepartmentID]
	if ok && perms.Enabled {
		if perms.CanCreateTemplates {
			caps = append(caps, CapTermsCreateTemplates)
		}
		if perms.CanIssueTerms {
			caps = append(caps, CapTermsIssue)
		}
		if perms.CanDelete {
			caps = append(caps, CapTermsDelete)
		}
		if perms.CanReturn {
			caps = append(caps, CapTermsReturn)
		}
		if perms.CanSeeAllSectors {
			caps = append(caps, CapTermsSeeAllSectors)
		}
	}
	return NewCapabilitySet(caps...)
}

// PrincipalFor builds the principal of an employee.
func PrincipalFor(employee Employee, settings Settings) Principal {
	return Principal{
		UserID:       employee.ID,
		Name:         employee.Name,
		Role:         employee.Role,
		DepartmentID: employee.DepartmentID,
		UnitID:       employee.UnitID,
		Capabilities: ResolveCapabilities(employee, settings),
	}
}
