package main

import (
	"chat-dm/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Config is read from the same environment as the server; flags override it.
type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	Colours        bool   `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	user := flag.String("user", "", "Only show messages sent or received by this user id")
	limit := flag.Int("limit", 0, "Stop after this many rows (0 = all)")
	flag.Parse()
	color.Enable = config.Colours

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Created", "Sender", "Receiver", "Text", "Image"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows, skipped := 0, 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(repositories.MessagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if *limit > 0 && rows >= *limit {
				return nil
			}
			item := it.Item()
			err := item.Value(func(v []byte) error {
				m, err := repositories.DecodeMessage(v)
				if err != nil {
					// Keep going: one bad record must not hide the others.
					color.Red.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					skipped++
					return nil
				}
				if *user != "" && m.SenderID != *user && m.ReceiverID != *user {
					return nil
				}

				table.Append([]string{
					fmt.Sprintf("%d", m.ID),
					m.CreatedAt.Local().Format(time.DateTime),
					shortID(m.SenderID),
					shortID(m.ReceiverID),
					truncate(m.Text, 60),
					m.Image,
				})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("%d message(s)", rows)
	if skipped > 0 {
		color.Yellow.Printf(", %d unreadable", skipped)
	}
	fmt.Println()
}

// shortID keeps the first 8 characters of a UUID for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
