package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations require the postgres store engine")
)

type commandLine struct {
	db          *sql.DB // postgres engine only
	store       core.DocumentStore
	validate    *validator.Validate
	accountSvc  *account.Service
	subjectSvc  *subject.Service
	settingsSvc *settings.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                   - run a goose migration command (postgres store)")
	fmt.Println("  seed -file FILE                                          - load classes, teachers, subjects and settings from a YAML file")
	fmt.Println("  adduser -username USERNAME [-email EMAIL] [-name NAME] [-admin] - create or update an active account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL [-admin]          - reset an account's password")
}

func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func roleFlag(admin bool) account.Role {
	if admin {
		return account.RoleAdmin
	}
	return account.RoleTeacher
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "Path of the YAML seed file.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The account's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The account's email.")
	addUserName := addUserCmd.String("name", "", "The account's display name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Create an admin instead of a teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username or email. The password will be prompted next.")
	resetPasswordAdmin := resetPasswordCmd.Bool("admin", false, "Reset an admin's password instead of a teacher's.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedFile)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(roleFlag(*addUserAdmin), *addUserUname, *addUserEmail, *addUserName, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(roleFlag(*resetPasswordAdmin), *resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}
