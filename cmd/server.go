package cmd

import (
	"RockFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动RockFM服务器",
	Long:  `启动RockFM共享听歌房的HTTP服务器，提供房间、点歌、投票等API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
