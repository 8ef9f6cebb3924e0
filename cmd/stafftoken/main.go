/*
Command stafftoken issues a bearer token for the staff routes.

It reads STAFF_JWT_SECRET through the same configuration loader as the server and prints the token to stdout.

	stafftoken -staff chef-1 -ttl 12h
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"menupoll/internal/configs"
	"menupoll/internal/pkg/auth/jwt"
)

func main() {
	staffID := flag.String("staff", "", "identifier of the staff member")
	ttl := flag.Duration("ttl", jwt.StaffTokenExpiration, "token lifetime")
	flag.Parse()

	if *staffID == "" {
		fmt.Fprintln(os.Stderr, "stafftoken: -staff is required")
		os.Exit(2)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.GenerateToken(&jwt.Payload{StaffID: *staffID, Role: jwt.RoleStaff}, cfg.StaffJWTSecret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
