package model

// Role 用户角色（固定集合）
type Role string

const (
	RoleLocked        Role = "locked"
	RoleUser          Role = "user"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// Permission 权限名
type Permission string

const (
	PermFollow     Permission = "FOLLOW"
	PermCollect    Permission = "COLLECT"
	PermComment    Permission = "COMMENT"
	PermUpload     Permission = "UPLOAD"
	PermModerate   Permission = "MODERATE"
	PermAdminister Permission = "ADMINISTER"
)

var rolePermissions = map[Role][]Permission{
	RoleLocked:        {PermFollow, PermCollect},
	RoleUser:          {PermFollow, PermCollect, PermComment, PermUpload},
	RoleModerator:     {PermFollow, PermCollect, PermComment, PermUpload, PermModerate},
	RoleAdministrator: {PermFollow, PermCollect, PermComment, PermUpload, PermModerate, PermAdminister},
}

// Can 角色是否拥有权限；未知角色没有任何权限
func (r Role) Can(p Permission) bool {
	for _, have := range rolePermissions[r] {
		if have == p {
			return true
		}
	}
	return false
}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}
