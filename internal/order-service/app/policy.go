package app

import (
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
)

type Action string

const (
	ActionCreate        Action = "create"
	ActionView          Action = "view"
	ActionList          Action = "list"
	ActionCancel        Action = "cancel"
	ActionUpdateAddress Action = "update_address"
	ActionAdvanceStatus Action = "advance_status"
	ActionRecordPayment Action = "record_payment"
)

type scope int

const (
	scopeOwn scope = iota + 1
	scopeAny
)

// policy maps each action to the roles allowed to perform it and whether
// they are limited to their own orders.
var policy = map[Action]map[string]scope{
	ActionCreate:        {auth.RoleUser: scopeOwn},
	ActionView:          {auth.RoleUser: scopeOwn, auth.RoleAdmin: scopeAny, auth.RolePayment: scopeAny},
	ActionList:          {auth.RoleUser: scopeOwn, auth.RoleAdmin: scopeAny},
	ActionCancel:        {auth.RoleUser: scopeOwn, auth.RoleAdmin: scopeAny},
	ActionUpdateAddress: {auth.RoleUser: scopeOwn},
	ActionAdvanceStatus: {auth.RoleAdmin: scopeAny},
	ActionRecordPayment: {auth.RolePayment: scopeAny},
}

type decision int

const (
	allow decision = iota
	denyRole
	denyOwner
)

func decide(id auth.Identity, action Action, o *domain.Order) decision {
	if id.ID == "" {
		return denyRole
	}
	s, ok := policy[action][id.Role]
	if !ok {
		return denyRole
	}
	if s == scopeOwn && o != nil && o.OwnerID != id.ID {
		return denyOwner
	}
	return allow
}

// CanPerform reports whether id may perform action on o. o may be nil for
// actions that do not target an existing order.
func CanPerform(id auth.Identity, action Action, o *domain.Order) bool {
	return decide(id, action, o) == allow
}

// ownerScope returns the owner filter for list queries, or "" when id may
// see every order.
func ownerScope(id auth.Identity) string {
	if policy[ActionList][id.Role] == scopeAny {
		return ""
	}
	return id.ID
}
