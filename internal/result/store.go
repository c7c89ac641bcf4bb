package result

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ResultModel is the GORM model for stored results. One row per BSSID.
type ResultModel struct {
	BSSID         string `gorm:"primaryKey"`
	ESSID         string
	Key           string
	PIN           string
	Encryption    string
	AttackType    string
	HandshakeFile string
	Handshakes    int
	DurationNS    int64
	Timestamp     time.Time `gorm:"index"`
}

// Store persists crack results in SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the result database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open results %s: %w", path, err)
	}
	if err := db.AutoMigrate(&ResultModel{}); err != nil {
		return nil, fmt.Errorf("migrate results: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save upserts r keyed by BSSID. A result that carries nothing new never
// replaces a cracked one.
func (s *Store) Save(r *CrackResult) error {
	key := wifi.NormalizeBSSID(r.BSSID)
	if prev, err := s.FindByBSSID(key); err == nil && prev.Cracked() && !r.Cracked() {
		return nil
	}
	m := toModel(r)
	m.BSSID = key
	return s.db.Save(&m).Error
}

// All returns every stored result, newest first.
func (s *Store) All() ([]*CrackResult, error) {
	var models []ResultModel
	if err := s.db.Order("timestamp desc").Find(&models).Error; err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// Cracked returns only results with a recovered key or PIN.
func (s *Store) Cracked() ([]*CrackResult, error) {
	var models []ResultModel
	err := s.db.Where("key <> '' OR pin <> ''").Order("timestamp desc").Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// FindByBSSID looks up a result by BSSID, ignoring case.
func (s *Store) FindByBSSID(bssid string) (*CrackResult, error) {
	var m ResultModel
	err := s.db.Where("bssid = ?", wifi.NormalizeBSSID(bssid)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no result for %s: %w", bssid, err)
	}
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// FormatCracked returns a formatted table of cracked networks.
func FormatCracked(cracked []*CrackResult) string {
	if len(cracked) == 0 {
		return "No cracked networks.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %-24s %-19s %-8s %-20s %s\n", "ESSID", "BSSID", "ENC", "KEY / PIN", "ATTACK")
	fmt.Fprintf(&sb, "  %-24s %-19s %-8s %-20s %s\n", "─────", "─────", "───", "─────────", "──────")
	for _, r := range cracked {
		key := r.Key
		if key == "" {
			key = "PIN " + r.PIN
		}
		fmt.Fprintf(&sb, "  %-24s %-19s %-8s %-20s %s\n",
			truncate(r.ESSID, 22), r.BSSID, r.Encryption, truncate(key, 18), r.AttackType)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + ".."
}

func toModel(r *CrackResult) ResultModel {
	return ResultModel{
		BSSID:         r.BSSID,
		ESSID:         r.ESSID,
		Key:           r.Key,
		PIN:           r.PIN,
		Encryption:    r.Encryption,
		AttackType:    r.AttackType,
		HandshakeFile: r.HandshakeFile,
		Handshakes:    r.Handshakes,
		DurationNS:    int64(r.Duration),
		Timestamp:     r.Timestamp,
	}
}

func fromModel(m ResultModel) *CrackResult {
	return &CrackResult{
		BSSID:         m.BSSID,
		ESSID:         m.ESSID,
		Key:           m.Key,
		PIN:           m.PIN,
		Encryption:    m.Encryption,
		AttackType:    m.AttackType,
		HandshakeFile: m.HandshakeFile,
		Handshakes:    m.Handshakes,
		Duration:      Duration(m.DurationNS),
		Timestamp:     m.Timestamp,
	}
}

func fromModels(models []ResultModel) []*CrackResult {
	out := make([]*CrackResult, len(models))
	for i, m := range models {
		out[i] = fromModel(m)
	}
	return out
}
