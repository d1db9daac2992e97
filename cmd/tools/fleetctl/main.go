package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/walfleet/walfleet/internal/command"
	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/controller"
	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fleetctl -config <path> <command> [args...]

Commands:
  status <server> [vol]                 print server or volume status
  volumes <server>                      list volumes with their states
  alive                                 probe all servers, list the alive ones
  full-backup <storage> <vol>           run a full backup, print the new gid
  hash-backup <storage> <vol>           run a hash backup, print the new gid
  snapshot <storage> <vol>              take a snapshot, print its gid
  restorable <archive> <vol>            list restorable snapshots
  restore <archive> <vol> <gid>         restore a snapshot as a logical volume
  del-restored <archive> <vol> <gid>    delete a restored snapshot volume
  apply <archive> <vol> <gid>           fold old diffs into the base image
  merge <archive> <vol> <gidB> <gidE>   coalesce the diffs in [gidB, gidE)
  replicate <src> <vol> <dst>           copy a volume between archives
  resize <vol> <sizeMiB> [zeroclear]    grow a volume on all servers
  stop <server> <vol> [mode]            stop a volume (graceful|force|empty)
  start <server> <vol>                  start a volume
  init-vol <storage> <vol> <wdev>       register a block device as a volume
  clear-vol <server> <vol>              unregister a volume
  kick <server>                         retry stalled background work
  shutdown <server> [mode]              terminate a server (graceful|force)

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobal(logger)

	layout, err := cfg.Fleet.Layout()
	if err != nil {
		log.Fatalf("Invalid fleet layout: %v", err)
	}

	runner := command.NewExecRunner(cfg.General.ControllerPath, cfg.General.CommandTimeout)
	c := controller.New(runner, layout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, cmdArgs := args[0], args[1:]
	if err := dispatch(ctx, c, layout, cmd, cmdArgs); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func dispatch(ctx context.Context, c *controller.Controller, layout fleet.Layout, cmd string, args []string) error {
	switch cmd {
	case "status":
		s := server(layout, arg(args, 0, "status <server> [vol]"))
		vol := ""
		if len(args) > 1 {
			vol = args[1]
		}
		out, err := c.Status(ctx, s, vol)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil

	case "volumes":
		s := server(layout, arg(args, 0, "volumes <server>"))
		vols, err := c.VolList(ctx, s)
		if err != nil {
			return err
		}
		for _, vol := range vols {
			state, err := c.GetState(ctx, s, vol)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\n", vol, state)
		}
		return nil

	case "alive":
		for _, name := range c.AliveServers(ctx) {
			fmt.Println(name)
		}
		return nil

	case "full-backup":
		s := server(layout, arg(args, 0, "full-backup <storage> <vol>"))
		gid, err := c.FullBackup(ctx, s, arg(args, 1, "full-backup <storage> <vol>"))
		if err != nil {
			return err
		}
		fmt.Println(gid)
		return nil

	case "hash-backup":
		s := server(layout, arg(args, 0, "hash-backup <storage> <vol>"))
		gid, err := c.HashBackup(ctx, s, arg(args, 1, "hash-backup <storage> <vol>"))
		if err != nil {
			return err
		}
		fmt.Println(gid)
		return nil

	case "snapshot":
		s := server(layout, arg(args, 0, "snapshot <storage> <vol>"))
		gid, err := c.SnapshotAsync(ctx, s, arg(args, 1, "snapshot <storage> <vol>"))
		if err != nil {
			return err
		}
		fmt.Println(gid)
		return nil

	case "restorable":
		s := server(layout, arg(args, 0, "restorable <archive> <vol>"))
		infos, err := c.Restorable(ctx, s, arg(args, 1, "restorable <archive> <vol>"))
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Println(info.String())
		}
		return nil

	case "restore":
		s := server(layout, arg(args, 0, "restore <archive> <vol> <gid>"))
		vol := arg(args, 1, "restore <archive> <vol> <gid>")
		g := num("gid", arg(args, 2, "restore <archive> <vol> <gid>"))
		if err := c.Restore(ctx, s, vol, g); err != nil {
			return err
		}
		fmt.Println(controller.RestoredPath(s, vol, g))
		return nil

	case "del-restored":
		s := server(layout, arg(args, 0, "del-restored <archive> <vol> <gid>"))
		return c.DelRestored(ctx, s, arg(args, 1, "del-restored <archive> <vol> <gid>"),
			num("gid", arg(args, 2, "del-restored <archive> <vol> <gid>")))

	case "apply":
		s := server(layout, arg(args, 0, "apply <archive> <vol> <gid>"))
		return c.ApplyDiff(ctx, s, arg(args, 1, "apply <archive> <vol> <gid>"),
			num("gid", arg(args, 2, "apply <archive> <vol> <gid>")))

	case "merge":
		s := server(layout, arg(args, 0, "merge <archive> <vol> <gidB> <gidE>"))
		return c.MergeDiff(ctx, s, arg(args, 1, "merge <archive> <vol> <gidB> <gidE>"),
			num("gid", arg(args, 2, "merge <archive> <vol> <gidB> <gidE>")),
			num("gid", arg(args, 3, "merge <archive> <vol> <gidB> <gidE>")))

	case "replicate":
		src := server(layout, arg(args, 0, "replicate <src> <vol> <dst>"))
		vol := arg(args, 1, "replicate <src> <vol> <dst>")
		dst := server(layout, arg(args, 2, "replicate <src> <vol> <dst>"))
		gotGid, err := c.ReplicateOnce(ctx, src, vol, dst, &controller.SyncOpt{})
		if err != nil {
			return err
		}
		fmt.Println(gotGid)
		return nil

	case "resize":
		vol := arg(args, 0, "resize <vol> <sizeMiB> [zeroclear]")
		size := num("size", arg(args, 1, "resize <vol> <sizeMiB> [zeroclear]"))
		zeroClear := len(args) > 2 && args[2] == "zeroclear"
		return c.Resize(ctx, vol, size, zeroClear)

	case "stop":
		s := server(layout, arg(args, 0, "stop <server> <vol> [mode]"))
		mode := controller.StopGraceful
		if len(args) > 2 {
			mode = controller.StopMode(args[2])
		}
		return c.Stop(ctx, s, arg(args, 1, "stop <server> <vol> [mode]"), mode)

	case "start":
		s := server(layout, arg(args, 0, "start <server> <vol>"))
		return c.Start(ctx, s, arg(args, 1, "start <server> <vol>"))

	case "init-vol":
		s := server(layout, arg(args, 0, "init-vol <storage> <vol> <wdev>"))
		return c.InitStorage(ctx, s, arg(args, 1, "init-vol <storage> <vol> <wdev>"),
			arg(args, 2, "init-vol <storage> <vol> <wdev>"))

	case "clear-vol":
		s := server(layout, arg(args, 0, "clear-vol <server> <vol>"))
		return c.ClearVol(ctx, s, arg(args, 1, "clear-vol <server> <vol>"))

	case "kick":
		return c.Kick(ctx, server(layout, arg(args, 0, "kick <server>")))

	case "shutdown":
		s := server(layout, arg(args, 0, "shutdown <server> [mode]"))
		mode := controller.ShutdownGraceful
		if len(args) > 1 {
			mode = controller.ShutdownMode(args[1])
		}
		return c.Shutdown(ctx, s, mode)

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// arg returns the positional argument at i or exits with a usage line.
func arg(args []string, i int, usageLine string) string {
	if i >= len(args) {
		log.Fatalf("usage: fleetctl %s", usageLine)
	}
	return args[i]
}

// server resolves a server name against the fleet layout.
func server(layout fleet.Layout, name string) fleet.Server {
	s, err := layout.FindServer(name)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return s
}

// num parses a non-negative integer argument.
func num(what, s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid %s %q", what, s)
	}
	return v
}
