package schema

// FieldType enumerates the supported declarative field types.
type FieldType string

const (
	TypeInteger  FieldType = "integer"
	TypeString   FieldType = "string"
	TypeText     FieldType = "text"
	TypeBoolean  FieldType = "boolean"
	TypeDatetime FieldType = "datetime"
	TypeDate     FieldType = "date"
	TypeFloat    FieldType = "float"
	TypeJSON     FieldType = "json"
)

// ParseFieldType maps a declared type string onto a FieldType.
// "decimal" is accepted as an alias of float.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "integer":
		return TypeInteger, true
	case "string":
		return TypeString, true
	case "text":
		return TypeText, true
	case "boolean":
		return TypeBoolean, true
	case "datetime":
		return TypeDatetime, true
	case "date":
		return TypeDate, true
	case "float", "decimal":
		return TypeFloat, true
	case "json":
		return TypeJSON, true
	default:
		return "", false
	}
}

// Capability is the unit granted per role per entity.
type Capability string

const (
	CapRead   Capability = "r"
	CapWrite  Capability = "w"
	CapDelete Capability = "d"
)

// ParseCapability maps a permission letter onto a Capability.
func ParseCapability(s string) (Capability, bool) {
	switch s {
	case "r":
		return CapRead, true
	case "w":
		return CapWrite, true
	case "d":
		return CapDelete, true
	default:
		return "", false
	}
}
