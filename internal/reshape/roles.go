package reshape

import "strings"

// Role names a destination field in the fact schema that a source column can
// be mapped onto.
type Role string

// Fact schema roles.
const (
	RoleAmount      Role = "budget_amount"
	RoleCategory    Role = "budget_category"
	RoleItem        Role = "budget_item"
	RoleDepartment  Role = "department"
	RoleAccountCode Role = "account_code"
)

// RoleRule maps column-name keywords to a role. Matching is a
// case-insensitive substring test.
type RoleRule struct {
	Keywords []string
	Role     Role
}

// RoleRules is the column-mapping policy, evaluated in order with first match
// winning. The order is deliberate: amount-like keywords outrank category,
// item, department, and account keywords, so a column such as
// "budget_category_cost" maps to the amount role.
var RoleRules = []RoleRule{
	{Keywords: []string{"amount", "budget", "cost", "expense", "revenue", "income"}, Role: RoleAmount},
	{Keywords: []string{"category", "type"}, Role: RoleCategory},
	{Keywords: []string{"item", "description"}, Role: RoleItem},
	{Keywords: []string{"department", "dept"}, Role: RoleDepartment},
	{Keywords: []string{"code", "account"}, Role: RoleAccountCode},
}

// RoleFor returns the role for a column name, if any rule matches.
func RoleFor(column string) (Role, bool) {
	c := strings.ToLower(column)
	for _, rule := range RoleRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(c, kw) {
				return rule.Role, true
			}
		}
	}
	return "", false
}

// MapColumns applies RoleFor to every column and returns the mapped subset.
func MapColumns(columns []string) map[string]Role {
	out := make(map[string]Role, len(columns))
	for _, c := range columns {
		if role, ok := RoleFor(c); ok {
			out[c] = role
		}
	}
	return out
}
