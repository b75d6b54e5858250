// Package migrations embeds the SQL schema files applied by the migrate command.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Files lists the migrations in apply order.
var Files = []string{
	"001_create_usuarios.sql",
	"002_create_clientes.sql",
	"003_create_tareas.sql",
	"004_create_registros_aprobacion.sql",
}
