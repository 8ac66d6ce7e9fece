package cmd

import (
	"dzika/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动dzika服务器",
	Long:  `启动音乐展示与统计系统的HTTP服务器，提供公开API和管理后台API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
