// Package authz decides which roles may perform which actions, using casbin.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

// Objects
const (
	ObjectApprovals  = "approvals"
	ObjectTax        = "tax"
	ObjectTaxLedger  = "tax_ledger"
	ObjectAISettings = "ai_settings"
	ObjectAudit      = "audit"
)

// Actions
const (
	ActionRead      = "read"
	ActionWrite     = "write"
	ActionCreate    = "create"
	ActionDecide    = "decide"
	ActionCalculate = "calculate"
	ActionExport    = "export"
)

//go:embed model.conf
var defaultModel string

//go:embed policy.csv
var defaultPolicy string

type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer loads the model and policy from the given files. An empty
// path selects the built-in default for that half.
func NewAuthorizer(modelPath, policyPath string) (*Authorizer, error) {
	var (
		m   model.Model
		err error
	)
	if modelPath == "" {
		m, err = model.NewModelFromString(defaultModel)
	} else {
		m, err = model.NewModelFromFile(modelPath)
	}
	if err != nil {
		return nil, fmt.Errorf("authz: failed to load model: %w", err)
	}

	var enforcer *casbin.Enforcer
	if policyPath == "" {
		enforcer, err = casbin.NewEnforcer(m, stringadapter.NewAdapter(defaultPolicy))
	} else {
		enforcer, err = casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
	}
	if err != nil {
		return nil, fmt.Errorf("authz: failed to load policy: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// NewDefaultAuthorizer uses the built-in model and policy.
func NewDefaultAuthorizer() (*Authorizer, error) {
	return NewAuthorizer("", "")
}

func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = "anonymous"
	}
	return "role:" + role
}

// DashboardObject is the object guarding the dashboard of role.
func DashboardObject(role string) string {
	return "dashboard:" + strings.ToLower(role)
}

func (a *Authorizer) Authorize(role, object, action string) (bool, error) {
	return a.enforcer.Enforce(SubjectFromRole(role), object, action)
}
