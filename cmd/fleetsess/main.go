// fleetsess is a terminal harness for the Fleetsure session core: it logs
// in against a live API (including the two-factor flow), restores sessions
// across runs, and logs out. Useful for poking at a deployment without the
// dashboard.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fleetsure/fleetsure-go/pkg/authapi"
	"github.com/fleetsure/fleetsure-go/pkg/keyring"
	"github.com/fleetsure/fleetsure-go/pkg/keyring/drivers/bolt"
	"github.com/fleetsure/fleetsure-go/pkg/keyring/drivers/memory"
	"github.com/fleetsure/fleetsure-go/pkg/keyring/drivers/sqlite"
	"github.com/fleetsure/fleetsure-go/pkg/session"
	"github.com/fleetsure/fleetsure-go/pkg/slogx"
	"github.com/fleetsure/fleetsure-go/pkg/twofactor"
	"github.com/fleetsure/fleetsure-go/pkg/vault"
)

func main() {
	cfg := loadConfig()
	if cfg.APIBaseURL == "" {
		log.Fatal("FLEETSURE_API_URL is required")
	}

	logger := slogx.New(slogx.Config{
		Service: "fleetsess",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	ring, closeRing, err := openKeyring(cfg)
	if err != nil {
		log.Fatalf("failed to open keyring: %v", err)
	}
	defer closeRing()

	manager, err := session.New(session.Options{
		API:     authapi.NewClient(cfg.APIBaseURL),
		Keyring: ring,
		Bridge:  vault.NewEnclaveBridge(),
		Logger:  logger,
		Config: session.Config{
			GracePeriod:      cfg.GracePeriod,
			VerifyRetryDelay: cfg.VerifyRetryDelay,
		},
	})
	if err != nil {
		log.Fatalf("failed to build session manager: %v", err)
	}

	ctx := context.Background()
	if err := run(ctx, manager); err != nil {
		log.Fatalf("session error: %v", err)
	}
}

func openKeyring(cfg config) (keyring.Keyring, func(), error) {
	var (
		ring      keyring.Keyring
		closeRing = func() {}
	)

	switch cfg.StoreKind {
	case "memory":
		ring = memory.New()
	case "bolt":
		store, err := bolt.NewStore(cfg.StorePath, nil)
		if err != nil {
			return nil, nil, err
		}
		ring, closeRing = store, func() { _ = store.Close() }
	default:
		store, err := sqlite.NewStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		ring, closeRing = store, func() { _ = store.Close() }
	}

	if cfg.SealKey != "" {
		raw, err := hex.DecodeString(cfg.SealKey)
		if err != nil || len(raw) != keyring.KeySize {
			closeRing()
			return nil, nil, fmt.Errorf("FLEETSURE_SEAL_KEY must be %d hex-encoded bytes", keyring.KeySize)
		}
		var key [keyring.KeySize]byte
		copy(key[:], raw)
		ring = keyring.NewSealed(ring, key)
	}
	return ring, closeRing, nil
}

func run(ctx context.Context, manager *session.Manager) error {
	if err := manager.CheckAuth(ctx); err != nil {
		return err
	}

	snap := manager.Snapshot()
	if !snap.IsAuthenticated {
		if err := login(ctx, manager); err != nil {
			return err
		}
		snap = manager.Snapshot()
	}

	fmt.Printf("logged in as %s (%s)\n", snap.User.Name, snap.User.Email)
	if snap.Organization != nil {
		fmt.Printf("organization: %s\n", snap.Organization.Name)
	}

	if prompt("log out? [y/N]: ") == "y" {
		return manager.Logout(ctx)
	}
	return nil
}

func login(ctx context.Context, manager *session.Manager) error {
	creds := authapi.Credentials{
		Email:    prompt("email: "),
		Password: prompt("password: "),
	}

	err := manager.Login(ctx, creds)
	var tfa *authapi.TwoFactorRequiredError
	if errors.As(err, &tfa) {
		return secondFactor(ctx, manager)
	}
	return err
}

func secondFactor(ctx context.Context, manager *session.Manager) error {
	for {
		code := prompt("2fa code (6 digits, or 8-char backup code): ")

		var err error
		if len(code) == twofactor.BackupCodeLength {
			err = manager.CompleteTwoFactorBackup(ctx, code)
		} else {
			err = manager.CompleteTwoFactor(ctx, code)
		}
		if err == nil {
			return nil
		}
		fmt.Printf("verification failed: %v\n", err)

		if prompt("retry? [Y/n]: ") == "n" {
			return manager.CancelTwoFactor(ctx)
		}
	}
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
