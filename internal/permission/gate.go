package permission

import (
	"strings"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
)

type Action string

const (
	AddOrEditProduct  Action = "product:write"
	DeleteProduct     Action = "product:delete"
	RecordTransaction Action = "transaction:create"
	ViewReports       Action = "report:view"
	ManageUsers       Action = "user:manage"
	ReconcileStock    Action = "stock:reconcile"
)

// Actor is the per-session identity every service call receives. It is
// built once per request from the verified token and the stored user.
type Actor struct {
	ID          uuid.UUID
	Email       string
	IsAdmin     bool
	Permissions model.Permissions
}

// System is the actor used by maintenance commands.
func System() Actor {
	return Actor{Email: "system", IsAdmin: true}
}

// Identifier is the value written to audit columns.
func (a Actor) Identifier() string {
	if a.ID == uuid.Nil {
		return a.Email
	}
	return a.ID.String()
}

// IsAdminEmail compares addresses the way the identity provider does.
func IsAdminEmail(email, adminEmail string) bool {
	return adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(adminEmail))
}

// NewActor resolves the admin flag against the configured admin address.
func NewActor(user *model.User, adminEmail string) Actor {
	return Actor{
		ID:          user.ID,
		Email:       user.Email,
		IsAdmin:     IsAdminEmail(user.Email, adminEmail),
		Permissions: user.Permissions,
	}
}

// Can reports whether actor may perform action. Delete, user management and
// reconciliation have no grantable flag and stay admin-only.
func Can(actor Actor, action Action) bool {
	if actor.IsAdmin {
		return true
	}
	switch action {
	case AddOrEditProduct:
		return actor.Permissions.CanAddProducts
	case RecordTransaction:
		return actor.Permissions.CanManageTransactions
	case ViewReports:
		return actor.Permissions.CanViewReports
	default:
		return false
	}
}

func Require(actor Actor, action Action) error {
	if Can(actor, action) {
		return nil
	}
	return apperror.Authorization("you do not have permission to " + describe(action))
}

func describe(action Action) string {
	switch action {
	case AddOrEditProduct:
		return "add or edit products"
	case DeleteProduct:
		return "delete products"
	case RecordTransaction:
		return "record transactions"
	case ViewReports:
		return "view reports"
	case ManageUsers:
		return "manage users"
	case ReconcileStock:
		return "reconcile stock"
	}
	return string(action)
}
