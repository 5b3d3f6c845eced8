package domain

import "strings"

// Record is an entity held by a collection. WithID returns a copy of the
// record carrying the given id; ids are always assigned by the store.
type Record[T any] interface {
	GetID() int
	WithID(id int) T
}

// Validator is implemented by records that check their fields before
// they are created.
type Validator interface {
	Validate() error
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// requireFields returns a ValidationError naming every blank field.
// Fields are given as alternating name, value pairs.
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, "'"+pairs[i]+"'")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == 1 {
		return Invalid("%s field is required", missing[0])
	}
	return Invalid("%s fields are required", strings.Join(missing, ", "))
}
