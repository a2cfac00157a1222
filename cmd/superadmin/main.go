// Command superadmin creates the first superadmin account. Email and password
// come from SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD or are asked for
// interactively.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/prompt"
	"github.com/dmitrijs2005/docdrive/internal/server"
	"github.com/dmitrijs2005/docdrive/internal/server/config"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	email := cfg.SuperadminEmail
	if email == "" {
		var err error
		if email, err = prompt.Text(bufio.NewReader(os.Stdin), "Superadmin email", os.Stdout); err != nil {
			return err
		}
	}

	password := cfg.SuperadminPassword
	if password == "" {
		pw, err := prompt.ConfirmedPassword(os.Stdout)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
		password = string(pw)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	u, created, err := app.Admins().BootstrapSuperadmin(ctx, email, password)
	if err != nil {
		return err
	}
	if !created {
		fmt.Printf("Superadmin already exists: %s\n", u.Email)
		return nil
	}

	fmt.Printf("Superadmin created: %s (role %s)\n", u.Email, u.Role)
	fmt.Println("Change the password after the first login.")
	return nil
}
