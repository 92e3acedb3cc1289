package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/infrastructure/os/execenv"
	"github.com/calico-network/calicod/infrastructure/os/signal"
	"github.com/calico-network/calicod/util/panics"
	"github.com/calico-network/calicod/util/profiling"
	"github.com/calico-network/calicod/version"
)

const (
	leveldbCacheSizeMiB = 256
	defaultDataDirname  = "datadir"
)

type calicodApp struct {
	cfg *config.Config
}

// StartApp starts the calicod app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &calicodApp{cfg: cfg}

	if cfg.ShowVersion {
		fmt.Println(version.String())
		return nil
	}

	return app.main()
}

func (app *calicodApp) main() error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	interrupt := signal.InterruptListener()
	logger.InitLog(app.cfg.LogFile(), app.cfg.ErrLogFile())
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	// Open the database
	databaseContext, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := databaseContext.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Create componentManager and start it.
	componentManager, err := NewComponentManager(app.cfg, databaseContext)
	if err != nil {
		log.Errorf("Unable to start calicod: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down calicod...")
		componentManager.Stop()
		log.Infof("Calicod shutdown complete")
	}()

	componentManager.Start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the RPC
	// server.
	<-interrupt
	return nil
}

// databasePath returns the path to the node database
func databasePath(cfg *config.Config) string {
	return filepath.Join(cfg.AppDir, defaultDataDirname)
}

func openDB(cfg *config.Config) (database.Database, error) {
	dbPath := databasePath(cfg)
	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, err
	}

	doesVersionFileExist, err := checkDatabaseVersion(dbPath, cfg.NetParams().Name)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading database from '%s'", dbPath)
	db, err := ldb.NewLevelDB(dbPath, leveldbCacheSizeMiB)
	if err != nil {
		return nil, err
	}

	if !doesVersionFileExist {
		err = createDatabaseVersionFile(dbPath, cfg.NetParams().Name)
		if err != nil {
			return nil, err
		}
	}

	return db, nil
}
