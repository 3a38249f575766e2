package main

import (
	"fmt"
	"log"
	"path/filepath"
	"runtime"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/server"
)

const dbname = "devvault.db"

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &coral.Command{
		Use:     "devvault",
		Short:   "Personal vault for prompts, commands and snippets",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	initCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(initCmd)

	reindexCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(reindexCmd)

	serverCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(serverCmd)

	consoleCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	consoleCmd.Flags().StringVarP(&email, "email", "e", "demo@devvault.lan", "Demo identity email")
	c.AddCommand(consoleCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func load() (*koanf.Koanf, error) {
	konf := koanf.New(".")
	if cfg == "" {
		return konf, nil
	}
	return konf, konf.Load(file.Provider(cfg), yaml.Parser())
}

func dbnameWithPath(path string) string {
	if len(path) == 0 {
		return dbname
	}
	return filepath.Join(path, dbname)
}

// stores opens the local client and, when configured, the remote store,
// and returns them behind the facade. The backend decision is made here,
// once, and never re-evaluated mid-session.
func stores(konf *koanf.Koanf) (database.Client, *database.Facade, error) {
	db, err := database.StormOpen(dbnameWithPath(konf.String("database_path")))
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not open database")
	}

	config := database.Config{
		RemoteDSN:       konf.String("remote.dsn"),
		RemoteAccessKey: konf.String("remote.access_key"),
	}

	active := database.Store(db)
	if config.UseRemote() {
		active, err = database.RemoteOpen(config.RemoteDSN)
		if err != nil {
			// The remote medium is unreachable at startup: stay local,
			// the user keeps working offline.
			logrus.WithError(err).Warn("could not open remote store, staying local")
			active = db
		}
	} else {
		logrus.Info("remote not configured, using local store")
	}

	return db, database.NewFacade(active, db, logrus.StandardLogger()), nil
}

var (
	initCmd = &coral.Command{
		Use:   "init",
		Short: "Init the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if err := database.StormInit(dbnameWithPath(konf.String("database_path"))); err != nil {
				return err
			}

			// Opening the remote store bootstraps its schema.
			config := database.Config{
				RemoteDSN:       konf.String("remote.dsn"),
				RemoteAccessKey: konf.String("remote.access_key"),
			}
			if config.UseRemote() {
				remote, err := database.RemoteOpen(config.RemoteDSN)
				if err != nil {
					return errors.Wrap(err, "could not init remote store")
				}
				return remote.Close()
			}
			return nil
		},
	}

	//
	reindexCmd = &coral.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			return database.StormReIndex(dbnameWithPath(konf.String("database_path")))
		},
	}

	//
	//
	serverCmd = &coral.Command{
		Use:   "server",
		Short: "Start server",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			db, facade, err := stores(konf)
			if err != nil {
				return err
			}
			defer facade.Close()

			engine := server.EchoEngine(server.IOC{
				Version:                    version,
				Database:                   db,
				Store:                      facade,
				NoRegistration:             konf.Bool("no_registration"),
				AccessTokenExpirationTime:  konf.MustDuration("session.access_token_ttl"),
				RefreshTokenExpirationTime: konf.MustDuration("session.refresh_token_ttl"),
			})
			server.PrintRoutes(engine)

			address := konf.String("address")
			log.Printf("Server listening on %s\n", address)
			return errors.Wrap(engine.Start(address), "could not run server")
		},
	}
)
