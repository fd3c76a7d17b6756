package model

// Capability is a feature key gated per provider role.
type Capability string

const (
	CapBookingsViewAll   Capability = "bookings.view_all"
	CapBookingsManage    Capability = "bookings.manage"
	CapBookingsAssign    Capability = "bookings.assign"
	CapStaffView         Capability = "staff.view"
	CapCustomersView     Capability = "customers.view"
	CapCalendarViewAll   Capability = "calendar.view_all"
	CapBookingsViewOwn   Capability = "bookings.view_own"
	CapBookingsUpdateOwn Capability = "bookings.update_own"
	CapCalendarViewOwn   Capability = "calendar.view_own"
	CapProfileEditOwn    Capability = "profile.edit_own"

	// owner-only features; no other role lists them
	CapStaffManage    Capability = "staff.manage"
	CapServicesManage Capability = "services.manage"
	CapBusinessEdit   Capability = "business.edit"
)

// capabilityTable is the finite capability set per role. Owner holds every
// capability, so it is not listed here.
var capabilityTable = map[ProviderRole]map[Capability]struct{}{
	RoleDispatcher: {
		CapBookingsViewAll: {},
		CapBookingsManage:  {},
		CapBookingsAssign:  {},
		CapStaffView:       {},
		CapCustomersView:   {},
		CapCalendarViewAll: {},
	},
	RoleProvider: {
		CapBookingsViewOwn:   {},
		CapBookingsUpdateOwn: {},
		CapCalendarViewOwn:   {},
		CapProfileEditOwn:    {},
	},
}

// HasCapability reports whether role may use feature.
func HasCapability(role ProviderRole, feature Capability) bool {
	if role == RoleOwner {
		return true
	}
	caps, ok := capabilityTable[role]
	if !ok {
		return false
	}
	_, ok = caps[feature]
	return ok
}

// Capabilities lists the explicit capabilities of a non-owner role.
func Capabilities(role ProviderRole) []Capability {
	caps := make([]Capability, 0, len(capabilityTable[role]))
	for c := range capabilityTable[role] {
		caps = append(caps, c)
	}
	return caps
}
