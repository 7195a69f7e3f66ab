// Package policy holds the route permission table and the post-login
// redirect decision. The table is evaluated by a casbin enforcer with a
// priority effect, so the first matching rule decides.
package policy

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

// Landing and login paths.
const (
	LoginPath    = "/login"
	AdminLanding = "/admin/users"
	UserLanding  = "/user"
)

const (
	anyPathSuffix = "/**"
	trailingSlash = "/"

	// subjects that are not role names
	anySubject           = "*"
	anonymousSubject     = "anonymous"
	authenticatedSubject = "authenticated"

	effectAllow = "allow"
	effectDeny  = "deny"
)

// modelText is a keyMatch ACL where policy order is priority.
const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj, eft

[policy_effect]
e = priority(p.eft) || deny

[matchers]
m = (p.sub == "*" || r.sub == p.sub) && keyMatch(r.obj, p.obj)
`

// Decision is the outcome of checking a request path against the table.
type Decision int

const (
	Permit Decision = iota
	// LoginRequired means the path is protected and no principal is present.
	LoginRequired
	// Forbidden means the principal lacks the required authority.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Permit:
		return "permit"
	case LoginRequired:
		return "login_required"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rule maps path patterns to a requirement. Authority is the required
// authority name, "" for permit-all and "*" for any authenticated principal.
type Rule struct {
	Patterns  []string
	Authority string
}

const (
	requirePermit  = ""
	requireAnyAuth = "*"
)

// HasRole requires the given authority on every pattern.
func HasRole(authority string, patterns ...string) Rule {
	return Rule{Patterns: patterns, Authority: authority}
}

// PermitAll lets anyone through, authenticated or not.
func PermitAll(patterns ...string) Rule {
	return Rule{Patterns: patterns, Authority: requirePermit}
}

// Authenticated requires any principal.
func Authenticated(patterns ...string) Rule {
	return Rule{Patterns: patterns, Authority: requireAnyAuth}
}

// Policy is an ordered rule list; the first matching rule wins. Paths that
// match no rule fall back to requiring authentication.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// New loads rules, in order, into a casbin enforcer.
func New(rules ...Rule) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("policy model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy enforcer: %w", err)
	}

	rules = append(rules, Authenticated("/**"))
	for _, r := range rules {
		for _, pattern := range r.Patterns {
			for _, obj := range objects(pattern) {
				for _, line := range policyLines(r.Authority, obj) {
					if _, err := e.AddPolicy(line[0], line[1], line[2]); err != nil {
						return nil, fmt.Errorf("policy rule %s %s: %w", line[0], line[1], err)
					}
				}
			}
		}
	}
	return &Policy{enforcer: e}, nil
}

// Default is the application route table.
func Default() (*Policy, error) {
	return New(
		HasRole(entity.RoleAdmin, "/api/admin/**"),
		HasRole(entity.RoleAdmin, "/admin/**"),
		HasRole(entity.RoleUser, "/api/user/current"),
		HasRole(entity.RoleUser, "/api/user"),
		HasRole(entity.RoleUser, "/user"),
		PermitAll(LoginPath, "/process_login", "/logout", "/api/login",
			"/js/**", "/css/**", "/healthz", "/readyz", "/metrics"),
	)
}

// Decide checks path for the given principal, which may be nil.
func (p *Policy) Decide(path string, principal *entity.Principal) Decision {
	path = normalize(path)

	subjects := []string{anonymousSubject}
	if principal != nil {
		subjects = append(append(make([]string, 0, len(principal.Authorities)+1), principal.Authorities...), authenticatedSubject)
	}
	for _, sub := range subjects {
		// enforcement errors deny
		if ok, err := p.enforcer.Enforce(sub, path); err == nil && ok {
			return Permit
		}
	}
	if principal == nil {
		return LoginRequired
	}
	return Forbidden
}

// SuccessRedirect picks the landing page after a successful login. ok is
// false when neither known role is present; the target is then the login page.
func SuccessRedirect(authorities []string) (target string, ok bool) {
	has := func(name string) bool {
		for _, a := range authorities {
			if a == name {
				return true
			}
		}
		return false
	}
	switch {
	case has(entity.RoleAdmin):
		return AdminLanding, true
	case has(entity.RoleUser):
		return UserLanding, true
	default:
		return LoginPath, false
	}
}

// policyLines expands one rule row into casbin policies. A row that grants
// a subject is followed by a catch-all deny so later rows never see the path.
func policyLines(authority, obj string) [][3]string {
	switch authority {
	case requirePermit:
		return [][3]string{{anySubject, obj, effectAllow}}
	case requireAnyAuth:
		return [][3]string{{authenticatedSubject, obj, effectAllow}, {anySubject, obj, effectDeny}}
	default:
		return [][3]string{{authority, obj, effectAllow}, {anySubject, obj, effectDeny}}
	}
}

// objects turns a pattern into keyMatch objects: "/a/**" covers "/a" and
// everything below it, other patterns match exactly.
func objects(pattern string) []string {
	if base, ok := strings.CutSuffix(pattern, anyPathSuffix); ok {
		if base == "" {
			return []string{"/*"}
		}
		return []string{base, base + "/*"}
	}
	return []string{normalize(pattern)}
}

func normalize(p string) string {
	if p == "" {
		return trailingSlash
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, trailingSlash)
	}
	return p
}
