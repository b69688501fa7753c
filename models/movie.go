package models

// Movie references exactly one actor by id. The reference is checked when it
// is written, there is no foreign key behind actor_id.
// It corresponds to the 'movies' table.
type Movie struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string `gorm:"not null" json:"title"`
	CreationDate Date   `gorm:"not null" json:"creationDate"`
	ActorID      uint   `gorm:"not null;index" json:"actorId"`
}

// TableName explicitly sets the table name for GORM.
func (Movie) TableName() string {
	return "movies"
}

// MoviePatch is a partial update. Nil fields keep their stored value.
type MoviePatch struct {
	Title        *string `json:"title" validate:"omitnil,min=1"`
	CreationDate *Date   `json:"creationDate" validate:"omitnil,notfuture"`
	ActorID      *uint   `json:"actorId"`
}

// Apply copies the supplied fields onto m.
func (p MoviePatch) Apply(m *Movie) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.CreationDate != nil {
		m.CreationDate = *p.CreationDate
	}
	if p.ActorID != nil {
		m.ActorID = *p.ActorID
	}
}

// Columns returns the supplied fields keyed by column name.
func (p MoviePatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.CreationDate != nil {
		cols["creation_date"] = *p.CreationDate
	}
	if p.ActorID != nil {
		cols["actor_id"] = *p.ActorID
	}
	return cols
}
