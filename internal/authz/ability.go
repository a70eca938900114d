package authz

import "fmt"

// Action is an abstract operation over a resource type.
type Action string

const (
	ActionManage Action = "manage"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names a protected resource type.
type Resource string

const (
	ResourceUser         Resource = "User"
	ResourceCouncil      Resource = "Council"
	ResourceSession      Resource = "Session"
	ResourceMatter       Resource = "Matter"
	ResourcePlan         Resource = "Plan"
	ResourceNotification Resource = "Notification"
)

// Instance carries the row-level attributes a grant filter may inspect.
type Instance struct {
	ID        string
	CouncilID string
}

// rowFilter refines a grant to specific rows. A filtered grant without an
// instance to check against is denied.
type rowFilter func(subject Identity, instance *Instance) bool

func selfOnly(subject Identity, instance *Instance) bool {
	return instance != nil && instance.ID == subject.ID
}

func sameCouncil(subject Identity, instance *Instance) bool {
	return instance != nil && instance.CouncilID != "" && instance.CouncilID == subject.CouncilID()
}

type grant struct {
	action   Action
	resource Resource
	filter   rowFilter
}

// grantTable is the entire permission surface for non-admin roles. Admin is
// a wildcard handled before the table lookup. Keeping every rule here makes
// the surface auditable as a truth table instead of scattering role checks
// across handlers.
var grantTable = map[Role][]grant{
	RolePresident: {
		{action: ActionRead, resource: ResourceCouncil, filter: sameCouncil},
		{action: ActionRead, resource: ResourceSession, filter: sameCouncil},
		{action: ActionCreate, resource: ResourceSession},
		{action: ActionUpdate, resource: ResourceSession, filter: sameCouncil},
		{action: ActionRead, resource: ResourceMatter, filter: sameCouncil},
		{action: ActionCreate, resource: ResourceMatter},
		{action: ActionUpdate, resource: ResourceMatter, filter: sameCouncil},
		{action: ActionRead, resource: ResourceUser, filter: sameCouncil},
		{action: ActionUpdate, resource: ResourceUser, filter: selfOnly},
		{action: ActionDelete, resource: ResourceUser, filter: selfOnly},
		{action: ActionRead, resource: ResourcePlan},
		{action: ActionRead, resource: ResourceNotification, filter: selfOnly},
		{action: ActionUpdate, resource: ResourceNotification, filter: selfOnly},
	},
	RoleSecretary: {
		{action: ActionRead, resource: ResourceCouncil, filter: sameCouncil},
		{action: ActionRead, resource: ResourceSession, filter: sameCouncil},
		{action: ActionCreate, resource: ResourceSession},
		{action: ActionUpdate, resource: ResourceSession, filter: sameCouncil},
		{action: ActionRead, resource: ResourceMatter, filter: sameCouncil},
		{action: ActionCreate, resource: ResourceMatter},
		{action: ActionUpdate, resource: ResourceMatter, filter: sameCouncil},
		{action: ActionRead, resource: ResourceUser, filter: sameCouncil},
		{action: ActionUpdate, resource: ResourceUser, filter: selfOnly},
		{action: ActionDelete, resource: ResourceUser, filter: selfOnly},
		{action: ActionRead, resource: ResourceNotification, filter: selfOnly},
		{action: ActionUpdate, resource: ResourceNotification, filter: selfOnly},
	},
	RoleCouncilor: {
		{action: ActionRead, resource: ResourceCouncil, filter: sameCouncil},
		{action: ActionRead, resource: ResourceSession, filter: sameCouncil},
		{action: ActionRead, resource: ResourceMatter, filter: sameCouncil},
		{action: ActionRead, resource: ResourceUser, filter: sameCouncil},
		{action: ActionUpdate, resource: ResourceUser, filter: selfOnly},
		{action: ActionDelete, resource: ResourceUser, filter: selfOnly},
		{action: ActionRead, resource: ResourceNotification, filter: selfOnly},
		{action: ActionUpdate, resource: ResourceNotification, filter: selfOnly},
	},
	RoleAssistant: {
		{action: ActionRead, resource: ResourceCouncil, filter: sameCouncil},
		{action: ActionRead, resource: ResourceSession, filter: sameCouncil},
		{action: ActionRead, resource: ResourceMatter, filter: sameCouncil},
		{action: ActionRead, resource: ResourceUser, filter: selfOnly},
		{action: ActionUpdate, resource: ResourceUser, filter: selfOnly},
		{action: ActionDelete, resource: ResourceUser, filter: selfOnly},
		{action: ActionRead, resource: ResourceNotification, filter: selfOnly},
		{action: ActionUpdate, resource: ResourceNotification, filter: selfOnly},
	},
}

// IsAllowed decides whether the subject may perform action on the resource
// type, optionally refined by a concrete instance. It is a pure function of
// its inputs and the static grant table.
//
// An unrecognized role fails with ErrInvalidRole rather than returning
// false, so configuration bugs are never masked as ordinary denials.
func IsAllowed(subject Identity, action Action, resource Resource, instance *Instance) (bool, error) {
	if !subject.Role.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidRole, subject.Role)
	}
	if subject.Role == RoleAdmin {
		return true, nil
	}
	for _, g := range grantTable[subject.Role] {
		if g.resource != resource {
			continue
		}
		if g.action != action && g.action != ActionManage {
			continue
		}
		if g.filter == nil {
			return true, nil
		}
		if g.filter(subject, instance) {
			return true, nil
		}
	}
	return false, nil
}
