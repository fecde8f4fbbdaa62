package main

import (
	"agora/domain/agora"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	status := flag.String("status", "", "Only list agoras with this status")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Status", "Category", "Members", "Votes", "Created", "Closed"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("agora:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var a agora.Agora
			err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &a)
			})
			if err != nil {
				fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
				continue
			}
			if *status != "" && !strings.EqualFold(string(a.Status), *status) {
				continue
			}
			table.Append([]string{
				a.ID.String(),
				a.Title,
				string(a.Status),
				strconv.FormatInt(int64(a.CategoryID), 10),
				fmt.Sprintf("%d/%d", countMembers(txn, a.ID), a.Capacity),
				strconv.Itoa(a.EndVoteCount),
				a.CreatedAt.Format("2006-01-02 15:04:05"),
				formatTime(a),
			})
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func countMembers(txn *badger.Txn, id agora.ID) int {
	prefix := []byte(fmt.Sprintf("member:%019d:", id))
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()
	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}

func formatTime(a agora.Agora) string {
	if a.ClosedAt.IsZero() {
		return "-"
	}
	return a.ClosedAt.Format("2006-01-02 15:04:05")
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
