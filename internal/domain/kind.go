package domain

// SnapshotKind names one of the persisted collections.
type SnapshotKind string

func (k SnapshotKind) String() string {
	return string(k)
}

const (
	SnapshotMenu   SnapshotKind = "menu"   // Navigation entries
	SnapshotDetail SnapshotKind = "detail" // Extracted page records
)

var SnapshotKinds = []SnapshotKind{
	SnapshotMenu,
	SnapshotDetail,
}

func (k SnapshotKind) DisplayName() string {
	switch k {
	case SnapshotMenu:
		return "Menu entries"
	case SnapshotDetail:
		return "Detail records"
	default:
		return "Unknown"
	}
}
