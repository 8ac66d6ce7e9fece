package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"dzika/config"
	"dzika/core/auth"
	"dzika/db"
	"dzika/model"
	"dzika/repository"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"
)

// defaultThemes are the initial showcase categories.
var defaultThemes = []string{"Cinematic", "Guitar", "Violence", "Groove", "Experimental"}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "初始化管理员账号和默认主题",
	Long: `创建或更新管理员账号（读取 ADMIN_EMAIL 和 ADMIN_PASSWORD 环境变量），
并确保默认主题存在。可以安全地重复执行。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		email := os.Getenv("ADMIN_EMAIL")
		password := os.Getenv("ADMIN_PASSWORD")
		if email == "" || password == "" {
			log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("无法连接到数据库: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(
			&model.Theme{},
			&model.Track{},
			&model.TrackVersion{},
			&model.TrackEvent{},
			&model.Comment{},
			&model.User{},
		); err != nil {
			log.Fatalf("数据库迁移失败: %v", err)
		}

		ctx := context.Background()
		users := repository.NewGormUserRepository(db.GormDB)
		themes := repository.NewGormThemeRepository(db.GormDB)

		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatalf("密码哈希失败: %v", err)
		}
		if err := users.Upsert(ctx, &model.User{
			Email:        email,
			Name:         "Admin",
			PasswordHash: hash,
		}); err != nil {
			log.Fatalf("创建管理员失败: %v", err)
		}
		fmt.Printf("管理员账号已就绪: %s\n", email)

		for i, name := range defaultThemes {
			theme := &model.Theme{
				Name:      name,
				Slug:      slug.Make(name),
				IsActive:  true,
				SortOrder: i,
			}
			if err := themes.Upsert(ctx, theme); err != nil {
				log.Fatalf("创建主题 %s 失败: %v", name, err)
			}
		}
		fmt.Printf("默认主题已就绪: %d 个\n", len(defaultThemes))
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
