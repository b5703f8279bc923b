package appfs

import "embed"

// FS holds the email templates and the SQL migrations shipped with the binaries.
//go:embed assets migrations assets/templates/email/_base.txt assets/templates/email/_base.gohtml
var FS embed.FS

const (
	EmailTemplatesDir = "assets/templates/email"
	MigrationsDir     = "migrations"
)
