package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"qbank/internal/bankapi"
	"qbank/internal/config"
	"qbank/internal/log"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the bank server and store the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin()
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the session and clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout()
	},
}

func runLogin() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}

	reader := bufio.NewReader(os.Stdin)

	if cfg.Server.URL == "" {
		fmt.Print("Server URL: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		cfg.Server.URL = strings.TrimSpace(input)
		if cfg.Server.URL == "" {
			return fmt.Errorf("server URL cannot be empty")
		}
	}

	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	client := bankapi.NewClient(cfg.Server.URL, "", logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := client.Login(ctx, username, string(passwordBytes))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := config.SaveCredentials(result.Token, result.User.Username); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("✓ Logged in as %s\n", result.User.Username)
	return nil
}

func runLogout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := bootstrap(ctx)
	if err != nil {
		// No valid session; still make sure nothing is left behind.
		if clearErr := config.ClearCredentials(); clearErr != nil {
			return clearErr
		}
		fmt.Println("✓ Credentials cleared")
		return nil
	}
	defer func() {
		if env.store != nil {
			env.store.Close()
		}
	}()

	if err := env.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("✓ Logged out")
	return nil
}
