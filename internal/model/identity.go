package model

// Role 请求方角色，同时用作消息的发送者类型
// 取值与 JWT 中的 userType 保持一致
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "admin"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Identity 经过校验的请求身份
type Identity struct {
	Id    string
	Role  Role
	Email string
}

// IsAdmin 是否为管理员
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
