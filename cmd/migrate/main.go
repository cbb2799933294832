package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

const usage = `usage: migrate [flags] <command>

commands:
  up              apply every pending migration
  down            roll back the latest migration
  status          list migrations and when they were applied
  version         print the current schema version
  to <version>    migrate up or down to <version>
  create <title>  write a new empty migration into -dir
  check           validate migration file names and sections
`

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "", "migrations directory (defaults to the set built into the binary)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// create and check only touch files.
	switch cmd {
	case "create":
		if len(args) != 1 {
			fail("create needs a title")
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.Create(target, args[0])
		if err != nil {
			fail(err.Error())
		}
		fmt.Println(path)
		return
	case "check":
		fsys, err := migrate.Source(*dir)
		if err != nil {
			fail(err.Error())
		}
		if err := migrate.Check(fsys); err != nil {
			fail(err.Error())
		}
		fmt.Println("ok")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Sprintf("config: %v", err))
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	m, err := migrate.New(sqlDB, *dir)
	if err != nil {
		logg.Error(ctx, "migrate.init_failed", err)
		os.Exit(1)
	}

	if err := run(ctx, m, cmd, args); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, m *migrate.Migrator, cmd string, args []string) error {
	switch cmd {
	case "up":
		applied, err := m.Up(ctx)
		for _, v := range applied {
			fmt.Println("applied", v)
		}
		return err
	case "down":
		v, err := m.Down(ctx)
		if err != nil {
			return err
		}
		fmt.Println("rolled back", v)
		return nil
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "to":
		if len(args) != 1 {
			return fmt.Errorf("to needs a version")
		}
		target, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return m.To(ctx, target)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "migrate:", msg)
	os.Exit(1)
}
