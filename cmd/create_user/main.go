package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"shakeassets/models"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	role := flag.String("role", models.RoleOperator, "role: operator or administrator")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [-role administrator] <username> <password>")
		os.Exit(2)
	}
	username, password := flag.Arg(0), flag.Arg(1)
	if *role != models.RoleOperator && *role != models.RoleAdministrator {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	log := logging.L()
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	st, err := setup.Store(cfg)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer st.Close()

	user, err := st.CreateUser(username, password, *role)
	if errors.Is(err, store.ErrUserExists) {
		fmt.Printf("user %s already exists (id=%d)\n", username, user.ID)
		return
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, user.Role.Name)
}
