package models

// Actor represents a person that movies reference.
// It corresponds to the 'actors' table.
type Actor struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string `gorm:"not null" json:"firstName"`
	LastName    string `gorm:"not null" json:"lastName"`
	DateOfBirth Date   `gorm:"not null" json:"dateOfBirth"`
}

// TableName explicitly sets the table name for GORM.
func (Actor) TableName() string {
	return "actors"
}

// ActorPatch is a partial update. Nil fields keep their stored value.
type ActorPatch struct {
	FirstName   *string `json:"firstName" validate:"omitnil,min=1"`
	LastName    *string `json:"lastName" validate:"omitnil,min=1"`
	DateOfBirth *Date   `json:"dateOfBirth" validate:"omitnil,notfuture"`
}

// Apply copies the supplied fields onto a.
func (p ActorPatch) Apply(a *Actor) {
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		a.DateOfBirth = *p.DateOfBirth
	}
}

// Columns returns the supplied fields keyed by column name.
func (p ActorPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.FirstName != nil {
		cols["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		cols["last_name"] = *p.LastName
	}
	if p.DateOfBirth != nil {
		cols["date_of_birth"] = *p.DateOfBirth
	}
	return cols
}
