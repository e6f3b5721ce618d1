package checklist

// CatalogItem is one inspection item of the vehicle checklist. The catalog
// is externally configured and read-only for this service.
type CatalogItem struct {
	ID            string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name          string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	RequiresPhoto bool   `gorm:"column:requires_photo;not null;default:false" json:"requires_photo"`
	Position      int    `gorm:"column:position;not null;default:0" json:"position"`
}

func (CatalogItem) TableName() string {
	return "checklist_items"
}

// Entry is a driver's verdict for one catalog item.
type Entry struct {
	Passed   bool   `json:"passed"`
	PhotoRef string `json:"photo_ref,omitempty"`
}

// Submission maps catalog item id to the submitted verdict. It must cover
// every catalog item before a duty transition is accepted.
type Submission map[string]Entry
