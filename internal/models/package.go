package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a JSON-encoded list of strings in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// CardPackage is a curated list of card names (a "package") that users can
// drop into a manabase, e.g. a ramp package or a landfall package.
type CardPackage struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null;index"`
	Description string     `json:"description"`
	Cards       StringList `json:"cards" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LandPreset is a saved builder configuration: selected colors, packages,
// and land cycles.
type LandPreset struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Name       string     `json:"name" gorm:"not null;index"`
	Colors     StringList `json:"colors" gorm:"type:text"`
	Packages   StringList `json:"packages" gorm:"type:text"`
	LandCycles StringList `json:"landcycles" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
