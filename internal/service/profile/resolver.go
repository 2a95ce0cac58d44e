// Package profile 解析消息发送者和会话客户的展示资料
// 客户资料优先读取 Redis 缓存，未命中时查库并异步回填
package profile

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"support_chat_server/internal/dao/mysql"
	myredis "support_chat_server/internal/dao/redis"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"
)

// resolver 客户资料解析实现
type resolver struct {
	customers mysql.CustomerRepository
	cache     myredis.AsyncCacheService // 为 nil 时直接查库
	ttl       time.Duration
	adminName string
}

// NewResolver 构造函数
func NewResolver(customers mysql.CustomerRepository, cache myredis.AsyncCacheService, ttl time.Duration, adminName string) *resolver {
	return &resolver{
		customers: customers,
		cache:     cache,
		ttl:       ttl,
		adminName: adminName,
	}
}

// FromCustomer 将客户实体转换为展示资料
func FromCustomer(c *model.Customer) respond.ProfileRespond {
	return respond.ProfileRespond{
		Id:             c.CustomerId,
		UserType:       string(model.RoleCustomer),
		FullName:       c.FullName,
		Email:          c.Email,
		ProfilePicture: c.ProfilePicture,
	}
}

// Placeholder 无法解析的客户使用的占位资料
func Placeholder(customerId string) respond.ProfileRespond {
	return respond.ProfileRespond{
		Id:       customerId,
		UserType: string(model.RoleCustomer),
		FullName: constants.UNKNOWN_CUSTOMER_NAME,
	}
}

// Admin 管理员统一展示资料
func (r *resolver) Admin(senderId string) respond.ProfileRespond {
	return respond.ProfileRespond{
		Id:       senderId,
		UserType: string(model.RoleAdmin),
		FullName: r.adminName,
	}
}

// Customers 批量解析客户资料
// 缓存或数据库出错时降级为占位资料，不向上返回错误
func (r *resolver) Customers(ctx context.Context, customerIds []string) map[string]respond.ProfileRespond {
	result := make(map[string]respond.ProfileRespond, len(customerIds))
	ids := uniqueIds(customerIds)
	if len(ids) == 0 {
		return result
	}

	missing := r.readCache(ctx, ids, result)
	if len(missing) > 0 {
		customers, err := r.customers.FindByCustomerIds(ctx, missing)
		if err != nil {
			zap.L().Warn("查询客户资料失败，使用占位资料",
				zap.Strings("customer_ids", missing),
				zap.Error(err),
			)
		}
		for i := range customers {
			p := FromCustomer(&customers[i])
			result[p.Id] = p
			r.writeCache(p)
		}
	}

	for _, id := range ids {
		if _, ok := result[id]; !ok {
			result[id] = Placeholder(id)
		}
	}
	return result
}

// readCache 读取缓存命中的资料写入 result，返回未命中的 id
func (r *resolver) readCache(ctx context.Context, ids []string, result map[string]respond.ProfileRespond) []string {
	if r.cache == nil {
		return ids
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = constants.CUSTOMER_PROFILE_KEY + id
	}
	values, err := r.cache.MGet(ctx, keys...)
	if err != nil {
		zap.L().Warn("读取客户资料缓存失败", zap.Error(err))
		return ids
	}

	var missing []string
	for i, id := range ids {
		if i >= len(values) || values[i] == "" {
			missing = append(missing, id)
			continue
		}
		var p respond.ProfileRespond
		if err := json.Unmarshal([]byte(values[i]), &p); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = p
	}
	return missing
}

// writeCache 异步回填缓存
func (r *resolver) writeCache(p respond.ProfileRespond) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	r.cache.SubmitTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.cache.Set(ctx, constants.CUSTOMER_PROFILE_KEY+p.Id, string(data), r.ttl); err != nil {
			zap.L().Warn("回填客户资料缓存失败", zap.String("customer_id", p.Id), zap.Error(err))
		}
	})
}

func uniqueIds(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
