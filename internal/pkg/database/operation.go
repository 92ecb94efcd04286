package database

import "strings"

// sqlOperation returns the lower-cased leading keyword of a statement, used as a metrics label
func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	switch op := strings.ToLower(fields[0]); op {
	case "select", "insert", "update", "delete", "with", "create", "alter":
		return op
	default:
		return "other"
	}
}
