package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/flymate/flymate-go/internal/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show flymate status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	configPath := config.GetConfigPath()
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("✈ flymate Status")
	fmt.Println()
	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("API: %s\n", cfg.Server.APIURL)
	fmt.Printf("Socket: %s\n", cfg.Server.SocketURL)
	if cfg.Server.Token != "" {
		fmt.Println("Credential: ✓ stored")
	} else {
		fmt.Println("Credential: not set (flymate login)")
	}

	_, cch, tm := buildClients(cfg)
	defer cch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if tm.Connect(ctx) {
		fmt.Println("Channel: persistent ✓")
		tm.Disconnect()
	} else {
		fmt.Println("Channel: fallback (persistent channel unreachable)")
	}

	if cch.Available() {
		fmt.Println("Cache: Redis ✓")
	} else {
		fmt.Println("Cache: disabled")
	}
	return nil
}
