package model

import "gorm.io/gorm"

// Customer 客户资料
// 由电商主系统维护，客服模块只读取展示信息
type Customer struct {
	gorm.Model
	CustomerId     string `gorm:"column:customer_id;uniqueIndex;type:varchar(64);not null;comment:客户id"`
	FullName       string `gorm:"column:full_name;type:varchar(64);comment:姓名"`
	Email          string `gorm:"column:email;type:varchar(128);comment:邮箱"`
	ProfilePicture string `gorm:"column:profile_picture;type:varchar(255);comment:头像"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customer"
}
