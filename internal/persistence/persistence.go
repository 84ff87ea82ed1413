package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kevinboone/pi-servo/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketOutputDuty = "outputDuty"
)

// Persistence stores the last applied duty fraction per output, so the daemon
// can restore output levels across restarts.
type Persistence interface {
	Init() error

	SaveDuty(outputId string, duty float64) error
	LoadDuty(outputId string) (float64, error)
	DeleteDuty(outputId string) error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p persistence) SaveDuty(outputId string, duty float64) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(duty)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(BucketOutputDuty))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(outputId), data)
	})
}

func (p persistence) LoadDuty(outputId string) (duty float64, err error) {
	db, err := p.openPersistence()
	if err != nil {
		return 0, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketOutputDuty))
		if bucket == nil {
			return fmt.Errorf("no duty data for output %s", outputId)
		}
		data := bucket.Get([]byte(outputId))
		if data == nil {
			return fmt.Errorf("no duty data for output %s", outputId)
		}
		return json.Unmarshal(data, &duty)
	})
	return duty, err
}

func (p persistence) DeleteDuty(outputId string) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketOutputDuty))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(outputId))
	})
}
