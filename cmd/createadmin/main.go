// Command createadmin provisions an operator account in one market's store.
package main

import (
	"context"
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/marque-api/internal/application/session"
	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	marketFlag := flag.String("market", "", "market the operator belongs to (kg or us)")
	username := flag.String("username", "", "login name")
	fullName := flag.String("full-name", "", "display name")
	super := flag.Bool("super", false, "grant super-admin rights")
	flag.Parse()

	if *marketFlag == "" || *username == "" {
		flag.Usage()
		os.Exit(2)
	}
	password, err := readPassword(os.Getenv, os.Stdin)
	if err != nil {
		log.Fatalf("password: %v", err)
	}
	m, err := domain.ParseMarket(*marketFlag)
	if err != nil {
		log.Fatalf("market: %v", err)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl := logger.New(logger.ForEnvironment(cfg.AppEnv, cfg.LogLevel))
	defer func() { _ = zl.Sync() }()

	hash, err := session.HashPassword(password)
	if err != nil {
		zl.Fatal("hash password", zap.Error(err))
	}

	registry := database.NewRegistry(cfg.Stores(),
		database.WithLogger(zl.Named("database")),
		database.WithMigrations(database.Migrate))
	defer func() { _ = registry.Close() }()

	now := time.Now().UTC()
	admin := &domain.Admin{
		Username:     *username,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperAdmin: *super,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if *fullName != "" {
		admin.FullName = fullName
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = registry.WithHandle(ctx, m, func(h *database.Handle) error {
		return h.Admins().Create(admin)
	})
	if err != nil {
		zl.Fatal("create admin", zap.String("market", m.String()), zap.Error(err))
	}
	fmt.Printf("created operator %q (id %d) in %s\n", admin.Username, admin.ID, m)
}

// passwordEnv names the variable holding the initial password. Without it the
// password is read from the first line of stdin, so it never appears in argv.
const passwordEnv = "ADMIN_PASSWORD"

func readPassword(getenv func(string) string, stdin io.Reader) (string, error) {
	if p := getenv(passwordEnv); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	p := strings.TrimRight(line, "\r\n")
	if p == "" {
		return "", fmt.Errorf("set %s or pipe the password on stdin", passwordEnv)
	}
	return p, nil
}
