package main

import (
	"flag"
	"fmt"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()

	log := logging.L()
	if *username == "" || *password == "" {
		log.Fatalf("--username and --password are required")
	}
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	st, err := setup.Store(cfg)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer st.Close()

	if err := st.SetPassword(*username, *password); err != nil {
		log.Fatalf("reset failed: %v", err)
	}
	fmt.Printf("Password reset for user %s\n", *username)
}
