package domain

// OwnerKind identifies who a lesson plan is generated for.
type OwnerKind string

const (
	// OwnerKindClass is a class group.
	OwnerKindClass OwnerKind = "class"
	// OwnerKindPrivate is an individual private-lesson learner.
	OwnerKindPrivate OwnerKind = "private"
)

// Valid reports whether k is a known owner kind.
func (k OwnerKind) Valid() bool {
	return k == OwnerKindClass || k == OwnerKindPrivate
}

// Owner is the entity a lesson plan belongs to.
type Owner struct {
	Timestamps
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        OwnerKind `json:"kind"`
	Weekdays    []string  `json:"weekdays"`      // Allowed class weekdays, e.g. ["monday", "wednesday"]
	SlotsPerDay int       `json:"slots_per_day"` // Periods per class day
}

// IsPrivate reports whether the owner is a private learner.
func (o *Owner) IsPrivate() bool {
	return o.Kind == OwnerKindPrivate
}
