package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core/account"
)

// addUser updates or creates an active account.
func (cli *commandLine) addUser(role account.Role, uname, email, name, pwd string) error {
	acc, err := cli.accountSvc.AddUser(context.Background(), role, uname, email, name, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("%s %q saved (id: %s)\n", role, acc.Username, acc.ID)
	return nil
}
