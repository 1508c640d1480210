package activity

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleHelper Role = "HELPER"
	RoleUser   Role = "USER"
	RoleSystem Role = "SYSTEM"
)

// ParseRole maps a caller supplied role onto the closed set. Unknown values
// degrade to USER; SYSTEM is never accepted from outside.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleHelper:
		return RoleHelper
	default:
		return RoleUser
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsStaff is the helper-or-admin capability.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleHelper }

// Actor is the resolved caller identity handed to the core by the dispatch layer.
type Actor struct {
	ID   string
	Name string
	Role Role
}

var System = Actor{ID: "SYSTEM", Name: "SYSTEM", Role: RoleSystem}

const (
	ActionAddProduct     = "ADD_PRODUCT"
	ActionSetStock       = "SET_STOCK"
	ActionCreateOrder    = "CREATE_ORDER"
	ActionConfirmPayment = "CONFIRM_PAYMENT"
	ActionCancelInvoice  = "CANCEL_INVOICE"
	ActionAutoExpire     = "AUTO_EXPIRE"
	ActionLookupInvoice  = "LOOKUP_INVOICE"

	TargetProduct = "PRODUCT"
	TargetInvoice = "INVOICE"
)

// Entry is one row of activity_logs.
type Entry struct {
	ID          int64     `json:"id"`
	ActorID     string    `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	ActorRole   Role      `json:"actor_role"`
	ActionType  string    `json:"action_type"`
	TargetType  string    `json:"target_type"`
	TargetValue string    `json:"target_value"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a Actor) Entry(action, targetType, targetValue, detail string) Entry {
	role := a.Role
	if role == "" {
		role = RoleUser
	}
	return Entry{
		ActorID:     a.ID,
		ActorName:   a.Name,
		ActorRole:   role,
		ActionType:  action,
		TargetType:  targetType,
		TargetValue: targetValue,
		Detail:      detail,
	}
}
