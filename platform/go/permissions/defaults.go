package permissions

// wildcardModule matches any module key when no per-module default exists.
const wildcardModule = "*"

// roleDefaults holds the built-in capability set per role. A (role, module)
// pair with no entry here and no tenant override resolves to no access.
var roleDefaults = map[string]map[string]Capability{
	"admin": {
		wildcardModule: {Create: true, Read: true, Update: true, Delete: true},
	},
	"editor": {
		"members":    {Create: true, Read: true, Update: true},
		"events":     {Create: true, Read: true, Update: true, Delete: true},
		"groups":     {Create: true, Read: true, Update: true},
		"locations":  {Create: true, Read: true, Update: true},
		"ministries": {Create: true, Read: true, Update: true},
		"rotas":      {Create: true, Read: true, Update: true, Delete: true},
	},
	"finance": {
		"members":              {Read: true},
		"finance_transactions": {Create: true, Read: true, Update: true, Delete: true},
		"finance_categories":   {Read: true},
	},
	"viewer": {
		"members":    {Read: true},
		"events":     {Read: true},
		"groups":     {Read: true},
		"locations":  {Read: true},
		"ministries": {Read: true},
		"rotas":      {Read: true},
	},
}

// defaultCapability resolves the built-in capability for a (role, module)
// pair, falling back to the role's wildcard entry when present.
func defaultCapability(role, moduleKey string) (Capability, bool) {
	byModule, ok := roleDefaults[role]
	if !ok {
		return Capability{}, false
	}
	if capability, ok := byModule[moduleKey]; ok {
		return capability, true
	}
	if capability, ok := byModule[wildcardModule]; ok {
		return capability, true
	}
	return Capability{}, false
}
