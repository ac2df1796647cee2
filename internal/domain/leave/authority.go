package leave

import "leavedesk/internal/domain/auth"

// CanAct decides whether an actor may approve or reject a request.
// Rules in priority order: nobody acts on their own request; admins act on
// everything else; department heads act only on employee-originated
// requests; no other role has authority. Callers gate the action on this
// predicate and the engine re-checks it before mutating state.
func CanAct(actorRole, actorID string, req Request) bool {
	if actorID == req.RequesterID {
		return false
	}
	switch actorRole {
	case auth.RoleAdmin:
		return true
	case auth.RoleDepartmentHead:
		return req.RequesterRole == auth.RoleEmployee
	default:
		return false
	}
}
