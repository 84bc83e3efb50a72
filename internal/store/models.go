package store

import "time"

// NetworkRecord is one network epoch row.
type NetworkRecord struct {
	ID          uint       `gorm:"primaryKey;autoIncrement;column:id"`
	Code        string     `gorm:"column:code;index;not null"`
	StartDate   *time.Time `gorm:"column:start_date"`
	EndDate     *time.Time `gorm:"column:end_date"`
	Description string     `gorm:"column:description"`

	Stations []StationRecord `gorm:"foreignKey:NetworkID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for NetworkRecord
func (NetworkRecord) TableName() string {
	return "networks"
}

// StationRecord is one station epoch row.
type StationRecord struct {
	ID          uint       `gorm:"primaryKey;autoIncrement;column:id"`
	NetworkID   uint       `gorm:"column:network_id;index;not null"`
	Code        string     `gorm:"column:code;index;not null"`
	StartDate   *time.Time `gorm:"column:start_date"`
	EndDate     *time.Time `gorm:"column:end_date"`
	Latitude    float64    `gorm:"column:latitude"`
	Longitude   float64    `gorm:"column:longitude"`
	Elevation   *float64   `gorm:"column:elevation"`
	Description string     `gorm:"column:description"`

	Channels []ChannelRecord `gorm:"foreignKey:StationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for StationRecord
func (StationRecord) TableName() string {
	return "stations"
}

// ChannelRecord is one channel epoch row. The full response description
// is kept as a JSON document; queries that need it deserialize through
// the meta model rather than relational joins over stage tables.
type ChannelRecord struct {
	ID           uint       `gorm:"primaryKey;autoIncrement;column:id"`
	StationID    uint       `gorm:"column:station_id;index;not null"`
	Code         string     `gorm:"column:code;index;not null"`
	LocationCode string     `gorm:"column:location_code"`
	StartDate    *time.Time `gorm:"column:start_date"`
	EndDate      *time.Time `gorm:"column:end_date"`
	Latitude     float64    `gorm:"column:latitude"`
	Longitude    float64    `gorm:"column:longitude"`
	Elevation    *float64   `gorm:"column:elevation"`
	Depth        *float64   `gorm:"column:depth"`
	Azimuth      *float64   `gorm:"column:azimuth"`
	Dip          *float64   `gorm:"column:dip"`
	SampleRate   *float64   `gorm:"column:sample_rate"`
	SensorDesc   string     `gorm:"column:sensor_description"`
	ResponseJSON []byte     `gorm:"column:response_json"`
}

// TableName specifies the table name for ChannelRecord
func (ChannelRecord) TableName() string {
	return "channels"
}
