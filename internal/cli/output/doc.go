// Package output renders command results for bindplan-server.
//
// Results are rendered as an aligned table (the default), JSON or YAML.
// Table columns come from exported struct fields; a `table` tag renames a
// column, hides it ("-") or shows it only in wide mode (",wide").
package output
