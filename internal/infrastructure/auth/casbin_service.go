package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/aquadic/souq4u/domain"
)

// RoleCustomer is the role carried by storefront customer tokens
const RoleCustomer = "customer"

// routeModel matches parameterized gin routes and HTTP methods
const routeModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies are the routes a customer token may call
var DefaultPolicies = [][]string{
	{RoleCustomer, "/user/user", "POST|GET"},
	{RoleCustomer, "/user/logout", "POST"},
	{RoleCustomer, "/user/logout/all", "POST"},
}

// CasbinService implements domain.PolicyService over an in-memory enforcer
type CasbinService struct{ E *casbin.Enforcer }

var _ domain.PolicyService = (*CasbinService)(nil)

// NewCasbinService builds the enforcer and seeds policies
func NewCasbinService(policies [][]string) (*CasbinService, error) {
	m, err := model.NewModelFromString(routeModel)
	if err != nil {
		return nil, fmt.Errorf("invalid casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	return &CasbinService{E: e}, nil
}

// CheckPermission implements domain.PolicyService
func (s *CasbinService) CheckPermission(role, resource, action string) (bool, error) {
	return s.E.Enforce(role, resource, action)
}
