// internal/fault/table.go
package fault

import "fmt"

// Table maps status-word bit indices to symbolic names. The mapping is
// device-specific and supplied by configuration, never inferred at
// runtime; the version string records where the table came from.
// A nil *Table is usable and names every bit BIT<n>.
type Table struct {
	version string
	names   map[int]string
}

func NewTable(version string, names map[int]string) *Table {
	copied := make(map[int]string, len(names))
	for bit, name := range names {
		copied[bit] = name
	}
	return &Table{version: version, names: copied}
}

func (t *Table) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}

// Name returns the configured name for a bit, or BIT<n> when the
// table does not cover it.
func (t *Table) Name(bit int) string {
	if t != nil {
		if name, ok := t.names[bit]; ok {
			return name
		}
	}
	return fmt.Sprintf("BIT%d", bit)
}

// Decode returns the tripped bit indices of a raw status word,
// lowest index first. No IO. No side effects.
func Decode(word uint32) []int {
	var bits []int
	for i := 0; i < 32; i++ {
		if word&(1<<uint(i)) != 0 {
			bits = append(bits, i)
		}
	}
	return bits
}
