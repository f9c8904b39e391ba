package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/queue"
	"github.com/creatorhub/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.AffiliateClick{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createServiceTestUser(t *testing.T, db *gorm.DB, email, role, status string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		Role:         role,
		Status:       status,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createServiceTestProduct(t *testing.T, db *gorm.DB, creatorID uint, slug string, price int64, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		CreatorID:   creatorID,
		Slug:        slug,
		Name:        "测试商品 " + slug,
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		IsActive:    active,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if !active {
		// IsActive 带 default:true，零值 false 会被 GORM 跳过，需显式写入
		if err := db.Model(product).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product failed: %v", err)
		}
	}
	return product
}

// memoryAttributionStore 测试用内存归因存储
type memoryAttributionStore struct {
	mu    sync.Mutex
	items map[string]uint
}

func newMemoryAttributionStore() *memoryAttributionStore {
	return &memoryAttributionStore{items: make(map[string]uint)}
}

func (s *memoryAttributionStore) Capture(_ context.Context, sessionKey string, affiliateID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sessionKey] = affiliateID
	return nil
}

func (s *memoryAttributionStore) Peek(_ context.Context, sessionKey string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.items[sessionKey]
	return id, ok, nil
}

func (s *memoryAttributionStore) Consume(_ context.Context, sessionKey string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.items[sessionKey]
	if ok {
		delete(s.items, sessionKey)
	}
	return id, ok, nil
}

func (s *memoryAttributionStore) Clear(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionKey)
	return nil
}

// fakeExpireEnqueuer 测试用过期任务入队桩
type fakeExpireEnqueuer struct {
	disabled bool
	failWith error
	payloads []queue.OrderExpirePayload
	delays   []time.Duration
}

func (f *fakeExpireEnqueuer) Enabled() bool {
	return !f.disabled
}

func (f *fakeExpireEnqueuer) EnqueueOrderExpire(payload queue.OrderExpirePayload, delay time.Duration) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.payloads = append(f.payloads, payload)
	f.delays = append(f.delays, delay)
	return nil
}

type serviceTestEnv struct {
	db           *gorm.DB
	orderRepo    *repository.GormOrderRepository
	userRepo     *repository.GormUserRepository
	store        *memoryAttributionStore
	enqueuer     *fakeExpireEnqueuer
	settings     *SettingService
	orderService *OrderService
}

func setupOrderServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	db := setupServiceTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	settingService := NewSettingService(repository.NewSettingRepository(db))
	store := newMemoryAttributionStore()
	enqueuer := &fakeExpireEnqueuer{}
	orderService := NewOrderService(orderRepo, productRepo, userRepo, store, enqueuer, settingService, DefaultPaymentWindowHours)
	return &serviceTestEnv{
		db:           db,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		store:        store,
		enqueuer:     enqueuer,
		settings:     settingService,
		orderService: orderService,
	}
}

func activeUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createServiceTestUser(t, db, email, constants.UserRoleBuyer, constants.UserStatusActive)
}

func orderListFilterForBuyer(buyerID uint) repository.OrderListFilter {
	return repository.OrderListFilter{BuyerID: buyerID, Page: 1, PageSize: 10}
}

func ordersFixtureWithAmount(affiliateID uint, amount int64) *models.Order {
	return &models.Order{
		AffiliateID: &affiliateID,
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
	}
}
