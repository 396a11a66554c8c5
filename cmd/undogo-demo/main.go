// Command undogo-demo is a small interactive driver for the undogo
// engine, using the Move example command as its data model.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/undogo/undogo"
	"github.com/undogo/undogo/internal/movecmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	storePath, autoLoadSave := parseFlags()

	db := &movecmd.DataBase{}
	move := movecmd.New(db)

	sys := undogo.New()
	if err := sys.RegisterCommand(move); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to register command: %v\n", err)
		return 1
	}
	if err := sys.Init(storePath, autoLoadSave); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer sys.Close(autoLoadSave)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		sys.Close(autoLoadSave)
		os.Exit(0)
	}()

	fmt.Println("undogo-demo: move <x> <y> | undo | redo | history | suggest <user> | quit")
	repl(sys, move, db)
	return 0
}

func repl(sys *undogo.UndoSystem, move *movecmd.Move, db *movecmd.DataBase) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "quit", "exit":
			return
		case "move":
			if len(fields) != 3 {
				fmt.Println("usage: move <x> <y>")
				continue
			}
			x, errX := strconv.Atoi(fields[1])
			y, errY := strconv.Atoi(fields[2])
			if errX != nil || errY != nil {
				fmt.Println("x and y must be integers")
				continue
			}
			if err := move.MoveTo(sys, x, y, -1); err != nil {
				fmt.Println("error:", err)
			}
		case "undo":
			sys.Undo()
		case "redo":
			sys.Redo()
		case "history":
			sys.DisplayHistory()
		case "suggest":
			userID := -1
			if len(fields) == 2 {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					userID = v
				}
			}
			fmt.Println(sys.SuggestNext(userID))
		default:
			fmt.Printf("unrecognized command: %q\n", fields[0])
		}
		fmt.Printf("-> x=%d y=%d\n", db.X, db.Y)
	}
}

func parseFlags() (storePath string, autoLoadSave bool) {
	flag.StringVar(&storePath, "store", "", "directory to persist undo history to (empty = in-memory only)")
	flag.BoolVar(&autoLoadSave, "auto-load-save", false, "load history on start and save it on shutdown")
	flag.Parse()
	return storePath, autoLoadSave
}
