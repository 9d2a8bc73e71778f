package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/database"
	"github.com/invigo/invigo-backend/internal/logger"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// Interactive bootstrap for the first admin account. Password is read with
// echo disabled.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	stdin := bufio.NewReader(os.Stdin)
	fmt.Println("Create admin account")

	name, err := promptLine(stdin, "Name: ")
	if err != nil {
		fail(err.Error())
	}
	email, err := promptLine(stdin, "Email: ")
	if err != nil {
		fail(err.Error())
	}

	fmt.Print("Password: ")
	rawPassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fail("could not read password")
	}
	if len(rawPassword) < 6 {
		fail("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword(rawPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.User{
		Name:         name,
		Email:        email,
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := repository.NewUserRepository(pool).Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("Created admin %q (%s) with ID %d\n", admin.Name, admin.Email, admin.ID)
}

func promptLine(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%svalue is required", label)
	}
	return line, nil
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}
