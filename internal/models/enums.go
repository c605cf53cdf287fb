package models

// Lifecycle is the soft-delete state shared by catalog entities and users.
type Lifecycle string

const (
	StateActive   Lifecycle = "ACTIVE"
	StateArchived Lifecycle = "ARCHIVED"
)

// IsEffectivelyDeleted reports whether the entity is hidden from live lists.
func (l Lifecycle) IsEffectivelyDeleted() bool { return l == StateArchived }

// orDefault returns ACTIVE for the zero value.
func (l Lifecycle) orDefault() Lifecycle {
	if l == "" {
		return StateActive
	}
	return l
}

// PersonnelStatus is the employment status of a personnel record.
type PersonnelStatus string

const (
	StatusCalisan PersonnelStatus = "CALISAN"
	StatusIzinli  PersonnelStatus = "IZINLI"
	StatusPasif   PersonnelStatus = "PASIF"
	StatusAyrildi PersonnelStatus = "AYRILDI"
)

// StatusOrder lists the statuses in detail report priority order.
var StatusOrder = []PersonnelStatus{StatusCalisan, StatusIzinli, StatusPasif, StatusAyrildi}

// Priority is the detail report sort key; unknown statuses sort last.
func (s PersonnelStatus) Priority() int {
	for i, st := range StatusOrder {
		if st == s {
			return i
		}
	}
	return len(StatusOrder)
}

func (s PersonnelStatus) Valid() bool { return s.Priority() < len(StatusOrder) }

// IsEffectivelyDeleted is true for PASIF, the status personnel "delete" sets.
func (s PersonnelStatus) IsEffectivelyDeleted() bool { return s == StatusPasif }

// TrainingCategory groups catalog entries in the yearly report.
type TrainingCategory string

const (
	CategoryTemel    TrainingCategory = "TEMEL"
	CategoryTazeleme TrainingCategory = "TAZELEME"
	CategoryDiger    TrainingCategory = "DIGER"
)

// CategoryOrder lists the categories in yearly report order.
var CategoryOrder = []TrainingCategory{CategoryTemel, CategoryTazeleme, CategoryDiger}

func (c TrainingCategory) Valid() bool {
	switch c {
	case CategoryTemel, CategoryTazeleme, CategoryDiger:
		return true
	}
	return false
}

// InternalExternal marks whether a session was given in-house (IC) or outside (DIS).
type InternalExternal string

const (
	Internal InternalExternal = "IC"
	External InternalExternal = "DIS"
)

func (ie InternalExternal) Valid() bool { return ie == Internal || ie == External }

// DefinitionKind selects one of the small reference lists.
type DefinitionKind string

const (
	KindLocation       DefinitionKind = "LOCATION"
	KindDocumentType   DefinitionKind = "DOCUMENT_TYPE"
	KindPersonnelGroup DefinitionKind = "PERSONNEL_GROUP"
)

// ParseDefinitionKind maps URL slugs ("locations", "document-types",
// "personnel-groups") and raw kind names to a kind.
func ParseDefinitionKind(s string) (DefinitionKind, bool) {
	switch s {
	case "locations", "location", string(KindLocation):
		return KindLocation, true
	case "document-types", "document-type", string(KindDocumentType):
		return KindDocumentType, true
	case "personnel-groups", "personnel-group", string(KindPersonnelGroup):
		return KindPersonnelGroup, true
	}
	return "", false
}

// Role is a login role.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleChef  Role = "CHEF"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleChef }

// AuditAction is the kind of change an audit entry records.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
	ActionImport AuditAction = "IMPORT"
	ActionLogin  AuditAction = "LOGIN"
)

// AuditEntity is the entity type an audit entry refers to.
type AuditEntity string

const (
	EntityAttendance     AuditEntity = "attendance"
	EntityPersonnel      AuditEntity = "personnel"
	EntityTraining       AuditEntity = "training"
	EntityTrainer        AuditEntity = "trainer"
	EntityDefinition     AuditEntity = "definition"
	EntityUser           AuditEntity = "user"
	EntityImport         AuditEntity = "import"
	EntityPersonnelGroup AuditEntity = "personnelGroup"
)
