// tgdrive is a command line client for a Telegram-chat-backed drive.
//
// Usage:
//
//	tgdrive ls [folder-id]          list a folder (root when omitted)
//	tgdrive mkdir -name N [-parent P]   create a folder
//	tgdrive put -file PATH [-parent P]  upload a file with progress
//	tgdrive browse                  interactive navigation (cd/back/ls/quit)
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/devyuvraj7/telegram-drive/internal/config"
	"github.com/devyuvraj7/telegram-drive/internal/cursor"
	"github.com/devyuvraj7/telegram-drive/internal/drive"
	"github.com/devyuvraj7/telegram-drive/internal/logging"
	"github.com/devyuvraj7/telegram-drive/internal/record"
	"github.com/devyuvraj7/telegram-drive/internal/transport/telegram"
	"github.com/devyuvraj7/telegram-drive/pkg/retry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"}); err != nil {
		fmt.Fprintln(os.Stderr, "logging init error:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	store, err := cursor.Open(cfg.CursorDBPath)
	if err != nil {
		logging.Fatal("cursor db open failed", zap.Error(err))
	}
	defer store.Close()

	tr, err := telegram.New(telegram.Config{
		Token:   cfg.BotToken,
		ChatID:  cfg.ChatID,
		APIBase: cfg.APIBase,
		Cursor:  store,
	})
	if err != nil {
		logging.Fatal("telegram transport init failed", zap.Error(err))
	}

	reader := drive.NewReader(tr, cfg.PageSize)
	coordinator := drive.NewCoordinator(tr)
	ctx := context.Background()

	switch os.Args[1] {
	case "ls":
		err = runLs(ctx, reader, os.Args[2:])
	case "mkdir":
		err = runMkdir(ctx, coordinator, os.Args[2:])
	case "put":
		err = runPut(ctx, coordinator, os.Args[2:])
	case "browse":
		err = runBrowse(ctx, reader)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tgdrive <ls|mkdir|put|browse> [flags]")
}

// runLs lists one folder. Page fetches are read-only, so a retry on network
// or rate-limit failures is safe here even though the drive core never
// retries on its own.
func runLs(ctx context.Context, reader *drive.Reader, args []string) error {
	folderID := ""
	if len(args) > 0 {
		folderID = args[0]
	}

	records, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() ([]record.Record, error) {
		recs, err := reader.List(ctx, folderID)
		return recs, retry.MarkTransport(err)
	})
	if err != nil {
		return err
	}

	printRecords(records)
	return nil
}

func printRecords(records []record.Record) {
	if len(records) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, rec := range records {
		switch v := rec.(type) {
		case *record.Folder:
			fmt.Printf("%-12s  d  %s/\n", v.ID, v.Name)
		case *record.File:
			fmt.Printf("%-12s  %s  %s  (%s, %d bytes)\n", v.ID, string(v.Class()[0]), v.Name, v.MimeType, v.Size)
		}
	}
}

func runMkdir(ctx context.Context, coordinator *drive.Coordinator, args []string) error {
	fs := flag.NewFlagSet("mkdir", flag.ExitOnError)
	name := fs.String("name", "", "folder `name` (must not contain ':')")
	parent := fs.String("parent", "", "parent folder `id` (empty = root)")
	fs.Parse(args)
	if *name == "" {
		return fmt.Errorf("mkdir: -name is required")
	}

	folder, err := coordinator.CreateFolder(ctx, *name, *parent)
	if err != nil {
		return err
	}
	fmt.Printf("created folder %s (id %s)\n", folder.Name, folder.ID)
	return nil
}

func runPut(ctx context.Context, coordinator *drive.Coordinator, args []string) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	path := fs.String("file", "", "`path` of the file to upload")
	parent := fs.String("parent", "", "parent folder `id` (empty = root)")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("put: -file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	name := filepath.Base(*path)
	file, err := coordinator.CreateFile(ctx, f, info.Size(), name, *parent, func(percent int) {
		fmt.Printf("\r%s: %3d%%", name, percent)
	})
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %s (id %s)\n%s\n", file.Name, file.ID, file.URL)
	return nil
}

// runBrowse drives the navigator from stdin: cd <id>, back, ls, quit.
func runBrowse(ctx context.Context, reader *drive.Reader) error {
	nav := drive.NewNavigator(reader,
		func(u drive.Update) {
			if u.FolderID == "" {
				fmt.Println("-- root --")
			} else {
				fmt.Printf("-- folder %s --\n", u.FolderID)
			}
			printRecords(u.Records)
		},
		func(folderID string, err error) {
			fmt.Fprintln(os.Stderr, "fetch failed:", err)
		})

	nav.Refresh(ctx)
	nav.Wait()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}
		switch fields[0] {
		case "cd":
			if len(fields) != 2 {
				fmt.Println("usage: cd <folder-id>")
				break
			}
			nav.Navigate(ctx, fields[1])
			nav.Wait()
		case "back":
			nav.Back(ctx)
			nav.Wait()
		case "ls":
			nav.Refresh(ctx)
			nav.Wait()
		case "quit", "exit":
			return nil
		default:
			fmt.Println("commands: cd <id>, back, ls, quit")
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}
