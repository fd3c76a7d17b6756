package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is a text[] column on PostgreSQL and a text column elsewhere.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return pq.StringArray(s).Value()
}

func (s *StringList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	*s = StringList(arr)
	return nil
}

// GormDataType keeps gorm from parsing the slice as a relation.
func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// DayHours is one weekday's opening window. Closed days have no times.
type DayHours struct {
	Day       string `json:"day"` // monday..sunday
	Closed    bool   `json:"closed"`
	OpenTime  string `json:"open_time,omitempty"`  // "09:00"
	CloseTime string `json:"close_time,omitempty"` // "17:30"
}

// BusinessHours is stored as jsonb on PostgreSQL and text elsewhere.
type BusinessHours []DayHours

func (h BusinessHours) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *BusinessHours) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan BusinessHours")
	}
	return json.Unmarshal(raw, h)
}

func (BusinessHours) GormDataType() string {
	return "json"
}

func (BusinessHours) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
