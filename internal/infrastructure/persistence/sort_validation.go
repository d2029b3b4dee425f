package persistence

import "strings"

// sortClause builds an ORDER BY fragment from caller-supplied sort
// parameters. The column must be in the whitelist, otherwise the
// fallback column is used; direction defaults to DESC.
func sortClause(column, direction string, allowed map[string]bool, fallback string) string {
	col := strings.TrimSpace(column)
	if col == "" || !allowed[col] {
		col = fallback
	}

	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(direction), "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}
