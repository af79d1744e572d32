package task

import "github.com/lattixlab/calcdock/internal/db"

// DefaultIndexFields are the fields indexed when the caller requests index
// construction without an explicit list.
var DefaultIndexFields = []string{"task_id", "state", "formula_pretty", "chemsys"}

// numericFields are indexed as NUMERIC instead of TAG.
var numericFields = map[string]bool{
	"nsites":    true,
	"nelements": true,
	"energy":    true,
}

// buildIndex creates the FT index definition over task documents for the
// given key prefix.
func buildIndex(prefix string, fields []string) *db.IndexDefinition {
	def := &db.IndexDefinition{
		Name:        prefix + "task:idx",
		StorageType: db.StorageJSON,
		Prefixes:    []string{prefix + "task:"},
		Fields:      make([]db.IndexField, 0, len(fields)),
	}

	for _, name := range fields {
		fieldType := db.IndexFieldTag
		if numericFields[name] {
			fieldType = db.IndexFieldNumeric
		}
		def.Fields = append(def.Fields, db.IndexField{
			Name:  "$." + name,
			Alias: name,
			Type:  fieldType,
		})
	}

	return def
}
