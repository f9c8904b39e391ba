package main

import (
	"github.com/creatorhub/internal/config"
	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/logger"
	"github.com/creatorhub/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 示例用户（创作者 / 推广人 / 买家）
	users := []models.User{
		{
			Email:       "creator@example.com",
			DisplayName: "示例创作者",
			Role:        constants.UserRoleCreator,
			Status:      constants.UserStatusActive,
		},
		{
			Email:       "affiliate@example.com",
			DisplayName: "示例推广人",
			Role:        constants.UserRoleAffiliate,
			Status:      constants.UserStatusActive,
		},
		{
			Email:       "buyer@example.com",
			DisplayName: "示例买家",
			Role:        constants.UserRoleBuyer,
			Status:      constants.UserStatusActive,
		},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("生成密码哈希失败: %v", err)
	}

	userIDs := map[string]uint{}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			user.PasswordHash = string(hash)
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("创建用户失败 %s: %v", user.Email, err)
				continue
			}
			stdLog.Printf("已创建用户: %s (%s)", user.Email, user.Role)
			userIDs[user.Role] = user.ID
			continue
		}
		stdLog.Printf("用户已存在: %s", existing.Email)
		userIDs[existing.Role] = existing.ID
	}

	// 示例商品
	products := []models.Product{
		{
			CreatorID:   userIDs[constants.UserRoleCreator],
			Slug:        "illustration-brush-pack",
			Name:        "插画笔刷合集",
			Description: "适用于主流绘图软件的 120 款笔刷，含使用示例工程。",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(2400)),
			IsActive:    true,
			SortOrder:   10,
		},
		{
			CreatorID:   userIDs[constants.UserRoleCreator],
			Slug:        "lofi-sample-pack",
			Name:        "Lo-Fi 采样素材包",
			Description: "200 条免版税采样，含鼓组与环境音。",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(1800)),
			IsActive:    true,
			SortOrder:   20,
		},
		{
			CreatorID:   userIDs[constants.UserRoleCreator],
			Slug:        "video-editing-course",
			Name:        "视频剪辑入门课",
			Description: "从素材整理到成片输出的完整流程，共 12 节。",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(5600)),
			IsActive:    false,
			SortOrder:   30,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("创建商品失败 %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("已创建商品: %s", product.Slug)
			}
			continue
		}
		stdLog.Printf("商品已存在: %s", existing.Slug)
	}

	// 默认设置
	settings := []models.Setting{
		{
			Key: constants.SettingKeySiteConfig,
			ValueJSON: models.JSON(map[string]interface{}{
				"site_name":     "CreatorHub",
				"site_currency": constants.SiteCurrency,
			}),
		},
		{
			Key: constants.SettingKeyOrderConfig,
			ValueJSON: models.JSON(map[string]interface{}{
				constants.SettingFieldPaymentExpireHours: 24,
			}),
		},
		{
			Key: constants.SettingKeyCommissionConfig,
			ValueJSON: models.JSON(map[string]interface{}{
				constants.SettingFieldCommissionRate: 0.15,
			}),
		},
	}

	for _, setting := range settings {
		var existing models.Setting
		if err := models.DB.Where("key = ?", setting.Key).First(&existing).Error; err != nil {
			if err := models.DB.Create(&setting).Error; err != nil {
				stdLog.Printf("创建设置失败 %s: %v", setting.Key, err)
			} else {
				stdLog.Printf("已创建设置: %s", setting.Key)
			}
			continue
		}
		stdLog.Printf("设置已存在: %s", existing.Key)
	}

	stdLog.Println("种子数据初始化完成")
}
