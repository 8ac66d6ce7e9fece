package cmd

import (
	"fmt"
	"log"

	"dzika/config"
	"dzika/db"
	"dzika/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	Long:  `根据模型定义创建或更新数据库表结构。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

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

		fmt.Println("数据库迁移完成。")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
