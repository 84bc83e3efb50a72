// Package store persists metadata inventories: a Postgres archive
// database for shared deployments and a local SQLite cache for
// single-host tools. Both round-trip the meta model; neither is part of
// the query core.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quakehub/stationmeta/internal/log"
	"github.com/quakehub/stationmeta/pkg/meta"
)

// Client holds the connection to the archive database.
type Client struct {
	dsn    string
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// NewClient creates a new archive database client.
func NewClient(dsn string, logger *zap.SugaredLogger) *Client {
	return &Client{dsn: dsn, logger: logger}
}

// Connect connects to the archive database and migrates the schema.
func (c *Client) Connect() error {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: false,
		},
	)

	var err error
	c.DB, err = gorm.Open(postgres.Open(c.dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return fmt.Errorf("unable to connect to archive database: %w", err)
	}

	if err := c.DB.AutoMigrate(&NetworkRecord{}, &StationRecord{}, &ChannelRecord{}); err != nil {
		return fmt.Errorf("migrating archive schema: %w", err)
	}

	c.logger.Info("archive database connection successful")
	return nil
}

// SaveInventory writes all networks of an inventory, replacing any rows
// with the same network codes.
func (c *Client) SaveInventory(inv *meta.Inventory) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		for ni := range inv.Networks {
			network := &inv.Networks[ni]

			if err := tx.Where("code = ?", network.Code).Delete(&NetworkRecord{}).Error; err != nil {
				return err
			}

			rec, err := networkToRecord(network)
			if err != nil {
				return err
			}
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("saving network %s: %w", network.Code, err)
			}
		}
		return nil
	})
}

// LoadInventory reads the complete archive into an inventory.
func (c *Client) LoadInventory() (*meta.Inventory, error) {
	var records []NetworkRecord
	err := c.DB.
		Preload("Stations").
		Preload("Stations.Channels").
		Order("code").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("loading archive: %w", err)
	}

	inv := &meta.Inventory{Source: "archive database"}
	for i := range records {
		network, err := recordToNetwork(&records[i])
		if err != nil {
			return nil, err
		}
		inv.Networks = append(inv.Networks, *network)
	}
	return inv, nil
}

func networkToRecord(network *meta.Network) (*NetworkRecord, error) {
	rec := &NetworkRecord{
		Code:        network.Code,
		StartDate:   network.Start,
		EndDate:     network.End,
		Description: network.Description,
	}
	for si := range network.Stations {
		station := &network.Stations[si]
		srec := StationRecord{
			Code:        station.Code,
			StartDate:   station.Start,
			EndDate:     station.End,
			Latitude:    station.Latitude.Value,
			Longitude:   station.Longitude.Value,
			Elevation:   floatPtr(station.Elevation),
			Description: station.Description,
		}
		for ci := range station.Channels {
			crec, err := channelToRecord(&station.Channels[ci])
			if err != nil {
				return nil, err
			}
			srec.Channels = append(srec.Channels, *crec)
		}
		rec.Stations = append(rec.Stations, srec)
	}
	return rec, nil
}

func channelToRecord(channel *meta.Channel) (*ChannelRecord, error) {
	rec := &ChannelRecord{
		Code:         channel.Code,
		LocationCode: channel.LocationCode,
		StartDate:    channel.Start,
		EndDate:      channel.End,
		Latitude:     channel.Latitude.Value,
		Longitude:    channel.Longitude.Value,
		Elevation:    floatPtr(channel.Elevation),
		Depth:        floatPtr(channel.Depth),
		Azimuth:      floatPtr(channel.Azimuth),
		Dip:          floatPtr(channel.Dip),
		SampleRate:   floatPtr(channel.SampleRate),
		SensorDesc:   channel.SensorDesc,
	}
	if channel.Response != nil {
		data, err := json.Marshal(channel.Response)
		if err != nil {
			return nil, fmt.Errorf("serializing response of %s: %w", channel.Code, err)
		}
		rec.ResponseJSON = data
	}
	return rec, nil
}

func recordToNetwork(rec *NetworkRecord) (*meta.Network, error) {
	network := &meta.Network{
		Code:        rec.Code,
		Epoch:       meta.Epoch{Start: rec.StartDate, End: rec.EndDate},
		Description: rec.Description,
	}
	for si := range rec.Stations {
		srec := &rec.Stations[si]
		station := meta.Station{
			Code:        srec.Code,
			Epoch:       meta.Epoch{Start: srec.StartDate, End: srec.EndDate},
			Latitude:    meta.Float{Value: srec.Latitude},
			Longitude:   meta.Float{Value: srec.Longitude},
			Elevation:   metaFloat(srec.Elevation),
			Description: srec.Description,
		}
		for ci := range srec.Channels {
			channel, err := recordToChannel(&srec.Channels[ci])
			if err != nil {
				return nil, err
			}
			station.Channels = append(station.Channels, *channel)
		}
		network.Stations = append(network.Stations, station)
	}
	return network, nil
}

func recordToChannel(rec *ChannelRecord) (*meta.Channel, error) {
	channel := &meta.Channel{
		Code:         rec.Code,
		LocationCode: rec.LocationCode,
		Epoch:        meta.Epoch{Start: rec.StartDate, End: rec.EndDate},
		Latitude:     meta.Float{Value: rec.Latitude},
		Longitude:    meta.Float{Value: rec.Longitude},
		Elevation:    metaFloat(rec.Elevation),
		Depth:        metaFloat(rec.Depth),
		Azimuth:      metaFloat(rec.Azimuth),
		Dip:          metaFloat(rec.Dip),
		SampleRate:   metaFloat(rec.SampleRate),
		SensorDesc:   rec.SensorDesc,
	}
	if len(rec.ResponseJSON) > 0 {
		channel.Response = &meta.Response{}
		if err := json.Unmarshal(rec.ResponseJSON, channel.Response); err != nil {
			return nil, fmt.Errorf("deserializing response of %s: %w", rec.Code, err)
		}
	}
	return channel, nil
}

func floatPtr(f *meta.Float) *float64 {
	if f == nil {
		return nil
	}
	v := f.Value
	return &v
}

func metaFloat(v *float64) *meta.Float {
	if v == nil {
		return nil
	}
	return &meta.Float{Value: *v}
}
