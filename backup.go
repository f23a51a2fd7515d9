package main

import (
	"path/filepath"
	"time"

	"os"

	"github.com/boltdb/bolt"
	log "github.com/sirupsen/logrus"

	"github.com/iraunit/ticktime-sub001/config"
	"github.com/iraunit/ticktime-sub001/misc"
)

func backupDatabases(cfg *config.Config) (err error) {
	db, err := misc.OpenDB(cfg.DBPath, cfg.DBName)
	if err != nil {
		return
	}
	defer db.Close()

	dbPath := filepath.Join(*backupPath, time.Now().UTC().Format(misc.StandardTimestamp))
	if err = os.MkdirAll(dbPath, 0700); err != nil {
		return
	}

	dbFilePath := filepath.Join(dbPath, cfg.DBName+".db")
	if err = db.View(func(tx *bolt.Tx) error { return tx.CopyFile(dbFilePath, 0600) }); err != nil {
		return
	}

	log.WithField("path", dbFilePath).Infof("successfully backed up %q", cfg.DBName+".db")
	return
}
