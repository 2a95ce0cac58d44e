// Package customer 提供客户资料的只读数据访问实现
package customer

import (
	"context"

	"support_chat_server/internal/dao/mysql/internal"
	"support_chat_server/internal/model"

	"gorm.io/gorm"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建 CustomerRepository 实例
func NewCustomerRepository(db *gorm.DB) *customerRepository {
	return &customerRepository{db: db}
}

// FindByCustomerId 根据客户 id 查找客户
func (r *customerRepository) FindByCustomerId(ctx context.Context, customerId string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerId).First(&customer).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询客户 customer_id=%s", customerId)
	}
	return &customer, nil
}

// FindByCustomerIds 批量查找客户，不存在的 id 直接忽略
func (r *customerRepository) FindByCustomerIds(ctx context.Context, customerIds []string) ([]model.Customer, error) {
	if len(customerIds) == 0 {
		return nil, nil
	}
	var customers []model.Customer
	if err := r.db.WithContext(ctx).Where("customer_id IN ?", customerIds).Find(&customers).Error; err != nil {
		return nil, internal.WrapDBError(err, "批量查询客户")
	}
	return customers, nil
}
