// Command server runs the Yatube blog and its maintenance tasks.
//
//	server            start the HTTP server (same as "serve")
//	server migrate    create or update the database schema
//	server create-group --title Cats --slug cats
//	server clear-cache
//
// Settings come from YATUBE_* environment variables and an optional .env
// file; see internal/config.
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "yatube",
		Usage:  "a small blogging platform",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file read before the environment (ignored when missing)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrate,
			},
			{
				Name:   "create-group",
				Usage:  "Create a group posts can be filed under",
				Action: createGroup,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true, Usage: "display name"},
					&cli.StringFlag{Name: "slug", Required: true, Usage: "URL part, letters, digits, - and _"},
					&cli.StringFlag{Name: "description", Usage: "shown on the group page"},
				},
			},
			{
				Name:   "clear-cache",
				Usage:  "Drop the cached home feed pages",
				Action: clearCache,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
