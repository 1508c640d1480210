package main

import (
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/urfave/cli/v2"
)

// access mirrors the HTTP role gates so the CLI cannot do more than the API.
type access int

const (
	anyone access = iota
	staff
	admin
)

const exitForbidden = 3

func authorize(a activity.Actor, need access) error {
	switch {
	case need == admin && !a.Role.IsAdmin():
		return cli.Exit("admin role required", exitForbidden)
	case need == staff && !a.Role.IsStaff():
		return cli.Exit("helper or admin role required", exitForbidden)
	}
	return nil
}

// authorizeStatus adds the cancel rule on top of the staff gate.
func authorizeStatus(a activity.Actor, target string) error {
	if err := authorize(a, staff); err != nil {
		return err
	}
	if st, ok := invoices.ParseStatus(target); ok && st == invoices.StatusCancelled && !a.Role.IsAdmin() {
		return cli.Exit("only admins can cancel invoices", exitForbidden)
	}
	return nil
}
