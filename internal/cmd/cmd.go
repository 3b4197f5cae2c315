package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/promowatch/promowatch/storage"
	"github.com/promowatch/promowatch/storage/boltdb"
	"github.com/promowatch/promowatch/storage/fs"
)

const (
	AppName    = "promowatch"
	AppVersion = "(unknown)"
)

var (
	AppWebsite = "https://github.com/promowatch/promowatch"
	AppScopes  = []string{"read+write"}
)

var info = func(s string, args ...interface{}) {
	fmt.Printf(s+"\n", args...)
}

var errFn = func(s string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, s+"\n", args...)
}

func MkDirIfNotExists(p string) error {
	fi, err := os.Stat(p)
	if err != nil && os.IsNotExist(err) {
		err = os.MkdirAll(p, os.ModeDir|os.ModePerm|0700)
	}
	if err != nil {
		return err
	}
	fi, err = os.Stat(p)
	if err != nil {
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("path exists, and is not a folder %s", p)
	}
	return nil
}

func DataPath() string {
	homeDir, _ := os.UserHomeDir()
	xdgDataPath := filepath.Join(homeDir, ".local", "share")
	appPath := filepath.Join(xdgDataPath, AppName)

	if _, err := os.Stat(appPath); err != nil && errors.Is(err, os.ErrNotExist) {
		err := MkDirIfNotExists(appPath)
		if err != nil {
			log.Fatalf("Error: %s", err.Error())
		}
	}
	return appPath
}

// FullStore is what both store backends implement; the interface split
// in the storage package exists for consumers that need less.
type FullStore interface {
	storage.Store
	storage.StateStore
}

// openStore picks the backend by file extension: .bdb selects boltdb,
// anything else the JSON file store.
func openStore(path string, logFn, errLogFn storage.LoggerFn) FullStore {
	if path == "" {
		path = DataPath()
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, fs.DefaultFile)
	}
	if strings.EqualFold(filepath.Ext(path), ".bdb") {
		return boltdb.New(boltdb.Config{Path: path, LogFn: logFn, ErrFn: errLogFn})
	}
	return fs.New(fs.Config{Path: path, LogFn: logFn, ErrFn: errLogFn})
}

func storePath(c *cli.Context) string {
	return stringValue(c, "path")
}

func stringValue(c *cli.Context, p string) string {
	for {
		if c.IsSet(p) {
			if val := c.String(p); val != "" {
				return val
			}
		}
		if c = c.Parent(); c == nil {
			break
		}
	}
	return ""
}
