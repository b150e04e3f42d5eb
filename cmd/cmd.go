// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the web service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the analysis web service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// encodeCommand base64-encodes a file or stdin
func encodeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Base64 encode a file, or stdin when no path is given",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "data-uri",
				Aliases: []string{"d"},
				Usage:   "Wrap the output in a data URI",
			},
			&cli.StringFlag{
				Name:  "mime",
				Usage: "Media type for --data-uri",
				Value: "image/png",
			},
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Encode while reading instead of buffering the whole input",
			},
		},
		Action: r.Encode,
	}
}

// csvCommand converts JSON rows to CSV
func csvCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "csv",
		Usage: "Convert a JSON array of objects to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "JSON file to read (default stdin)",
			},
			&cli.StringSliceFlag{
				Name:  "header",
				Usage: "Column to include, in order; repeat for each column (default all keys, sorted)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "CSV file to write (default stdout)",
			},
		},
		Action: r.CSV,
	}
}

// setupCommand prepares the database and config file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the database or configuration",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the file (default the --config path)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// sessionsCommand inspects stored sessions
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect and clean up analysis sessions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List sessions",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Include deleted sessions",
					},
					&cli.BoolFlag{
						Name:  "running",
						Usage: "Only sessions with a running tool",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionsList,
			},
			{
				Name:  "purge",
				Usage: "Delete a session, its uploads and its workspace",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SessionsPurge,
			},
		},
	}
}
