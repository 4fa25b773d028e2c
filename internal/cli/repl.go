package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	isUnlocked() bool
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Code(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Watch(ctx context.Context, args []string) error
	ChangePassword(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit". Handlers
// prompt through the same reader, so no input is buffered twice.
//
//	Unlocked:
//	  - help                        show available commands
//	  - list | l                    list entries with current codes
//	  - add [name]                  add an entry
//	  - code <name>                 print the current code
//	  - show <name>                 reveal the seed and its QR code
//	  - export <name> <file.png>    write the QR code as PNG
//	  - rename <old> <new> [issuer] rename an entry
//	  - remove <name>               delete an entry
//	  - watch                       follow codes live
//	  - passwd                      change the master password
//	  - lock                        forget the master password
//
//	Locked:
//	  - help, list, unlock, exit
//
// Handler errors are not reported here; handlers print their own messages.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("totp %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: (l)ist, add, code, show, export, rename, remove, watch, passwd, lock, exit")
			} else {
				printlnFn("Available commands: (l)ist, unlock, exit")
			}

		case "l", "list":
			_ = a.List(ctx, args)

		case "add":
			_ = a.Add(ctx, args)

		case "code":
			_ = a.Code(ctx, args)

		case "show":
			_ = a.Show(ctx, args)

		case "export":
			_ = a.Export(ctx, args)

		case "rename":
			_ = a.Rename(ctx, args)

		case "remove", "rm":
			_ = a.Remove(ctx, args)

		case "watch":
			_ = a.Watch(ctx, args)

		case "passwd":
			_ = a.ChangePassword(ctx, args)

		case "lock":
			_ = a.Lock(ctx, args)

		case "unlock":
			_ = a.Unlock(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
