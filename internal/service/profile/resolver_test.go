package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"
)

type fakeCustomers struct {
	data  map[string]model.Customer
	err   error
	calls int
}

func (f *fakeCustomers) FindByCustomerId(_ context.Context, customerId string) (*model.Customer, error) {
	c, ok := f.data[customerId]
	if !ok {
		return nil, errors.New("not found")
	}
	return &c, nil
}

func (f *fakeCustomers) FindByCustomerIds(_ context.Context, customerIds []string) ([]model.Customer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Customer
	for _, id := range customerIds {
		if c, ok := f.data[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	values  map[string]string
	mgetErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) MGet(_ context.Context, keys ...string) ([]string, error) {
	if c.mgetErr != nil {
		return nil, c.mgetErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = c.values[k]
	}
	return out, nil
}

// SubmitTask 同步执行，便于断言
func (c *fakeCache) SubmitTask(action func()) { action() }

func newCustomers() *fakeCustomers {
	return &fakeCustomers{data: map[string]model.Customer{
		"c1": {CustomerId: "c1", FullName: "张三", Email: "c1@example.com"},
		"c2": {CustomerId: "c2", FullName: "李四"},
	}}
}

func TestCustomersCacheAside(t *testing.T) {
	customers := newCustomers()
	cache := newFakeCache()
	r := NewResolver(customers, cache, time.Minute, "在线客服")

	got := r.Customers(context.Background(), []string{"c1", "c2", "c1"})
	require.Len(t, got, 2)
	assert.Equal(t, "张三", got["c1"].FullName)
	assert.Equal(t, "李四", got["c2"].FullName)
	assert.Equal(t, 1, customers.calls)
	assert.Contains(t, cache.values, constants.CUSTOMER_PROFILE_KEY+"c1")

	// 第二次全部命中缓存
	got = r.Customers(context.Background(), []string{"c1", "c2"})
	assert.Equal(t, "张三", got["c1"].FullName)
	assert.Equal(t, 1, customers.calls)
}

func TestCustomersPlaceholderForUnknown(t *testing.T) {
	r := NewResolver(newCustomers(), nil, time.Minute, "在线客服")

	got := r.Customers(context.Background(), []string{"ghost"})
	assert.Equal(t, constants.UNKNOWN_CUSTOMER_NAME, got["ghost"].FullName)
	assert.Equal(t, "ghost", got["ghost"].Id)
}

func TestCustomersDegradeOnErrors(t *testing.T) {
	customers := newCustomers()
	customers.err = errors.New("db down")
	cache := newFakeCache()
	cache.mgetErr = errors.New("redis down")
	r := NewResolver(customers, cache, time.Minute, "在线客服")

	got := r.Customers(context.Background(), []string{"c1"})
	assert.Equal(t, Placeholder("c1"), got["c1"])
}

func TestAdminProfile(t *testing.T) {
	r := NewResolver(newCustomers(), nil, time.Minute, "在线客服")
	p := r.Admin("admin")
	assert.Equal(t, "在线客服", p.FullName)
	assert.Equal(t, string(model.RoleAdmin), p.UserType)
}
