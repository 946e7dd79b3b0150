package rbac

// Default policy. Students take tests and read their own results; admins
// additionally read anyone's history.
var RolePermissions = map[string][]string{
	"student": {
		"catalog:browse",
		"test:view",
		"test:submit",
		"attempt:view-own",
	},
	"admin": {
		"*", // everything
	},
}
