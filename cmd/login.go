package cmd

import (
	"fmt"

	"github.com/flymate/flymate-go/internal/config"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store server URLs and the bearer credential",
	RunE:  runLogin,
}

var (
	loginServer string
	loginSocket string
	loginToken  string
	loginUser   string
)

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "REST base URL (e.g. http://localhost:5000/api)")
	loginCmd.Flags().StringVar(&loginSocket, "socket", "", "WebSocket URL (e.g. ws://localhost:5000/ws)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token")
	loginCmd.Flags().StringVar(&loginUser, "user", "", "User id for the join handshake")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if loginServer != "" {
		cfg.Server.APIURL = loginServer
	}
	if loginSocket != "" {
		cfg.Server.SocketURL = loginSocket
	}
	if loginToken != "" {
		cfg.Server.Token = loginToken
	}
	if loginUser != "" {
		cfg.Server.UserID = loginUser
	}

	if err := config.Save(cfg, ""); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("✓ Saved config to %s\n", config.GetConfigPath())
	return nil
}
