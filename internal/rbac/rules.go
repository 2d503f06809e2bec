package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"question:view",
		"session:start",
		"session:act",
		"result:view-own",
		"leaderboard:view",
	},
	"admin": {
		"*", // everything
	},
}
