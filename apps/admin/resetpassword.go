package main

import (
	"context"

	"github.com/trezcool/mahudhurio/core/account"
)

func (cli *commandLine) resetPassword(role account.Role, login, pwd string) error {
	return cli.accountSvc.ResetPassword(context.Background(), role, login, pwd)
}
