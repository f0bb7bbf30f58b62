package store

import "embed"

//go:embed schema/*.sql
var schemaFS embed.FS

func schemaFor(driver string) (string, error) {
	data, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
