package scrub

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/psp/osal"
)

// Sizes of the telemetry records produced by Get and ErrStats.
const (
	ConfigRecordSize     = 80
	ErrorStatsRecordSize = 48
)

// configRecord is the packed little-endian layout of a Config.
type configRecord struct {
	RunMode        uint32
	StartAddr      uint64
	EndAddr        uint64
	BlockSizePages uint64
	TaskDelayMs    uint32
	TimedStartAddr uint64
	TimedEndAddr   uint64
	TaskPriority   uint32
	MinPriority    uint32
	MaxPriority    uint32
	CurrentPage    uint64
	TotalPages     uint64
	TaskID         uint32
}

// MarshalBinary encodes the configuration record.
func (c Config) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ConfigRecordSize)

	if _, err := c.encodeTo(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func (c Config) encodeTo(buf []byte) (int, error) {
	rec := configRecord{
		RunMode:        uint32(c.RunMode),
		StartAddr:      c.StartAddr,
		EndAddr:        c.EndAddr,
		BlockSizePages: c.BlockSizePages,
		TaskDelayMs:    c.TaskDelayMs,
		TimedStartAddr: c.TimedStartAddr,
		TimedEndAddr:   c.TimedEndAddr,
		TaskPriority:   uint32(c.TaskPriority),
		MinPriority:    uint32(c.MinPriority),
		MaxPriority:    uint32(c.MaxPriority),
		CurrentPage:    c.CurrentPage,
		TotalPages:     c.TotalPages,
		TaskID:         uint32(c.TaskID),
	}

	return binary.Encode(buf, binary.LittleEndian, rec)
}

// UnmarshalBinary decodes a configuration record.
func (c *Config) UnmarshalBinary(data []byte) error {
	if len(data) < ConfigRecordSize {
		return fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, len(data), ConfigRecordSize)
	}

	var rec configRecord
	if _, err := binary.Decode(data, binary.LittleEndian, &rec); err != nil {
		return err
	}

	*c = Config{
		RunMode:        RunMode(rec.RunMode),
		StartAddr:      rec.StartAddr,
		EndAddr:        rec.EndAddr,
		BlockSizePages: rec.BlockSizePages,
		TaskDelayMs:    rec.TaskDelayMs,
		TimedStartAddr: rec.TimedStartAddr,
		TimedEndAddr:   rec.TimedEndAddr,
		TaskPriority:   osal.Priority(rec.TaskPriority),
		MinPriority:    osal.Priority(rec.MinPriority),
		MaxPriority:    osal.Priority(rec.MaxPriority),
		CurrentPage:    rec.CurrentPage,
		TotalPages:     rec.TotalPages,
		TaskID:         osal.TaskID(rec.TaskID),
	}

	return nil
}

// MarshalBinary encodes the error statistics record.
func (s ErrorStats) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ErrorStatsRecordSize)

	if _, err := s.encodeTo(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func (s ErrorStats) encodeTo(buf []byte) (int, error) {
	return binary.Encode(buf, binary.LittleEndian, s)
}

// UnmarshalBinary decodes an error statistics record.
func (s *ErrorStats) UnmarshalBinary(data []byte) error {
	if len(data) < ErrorStatsRecordSize {
		return fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, len(data), ErrorStatsRecordSize)
	}

	_, err := binary.Decode(data, binary.LittleEndian, s)

	return err
}
