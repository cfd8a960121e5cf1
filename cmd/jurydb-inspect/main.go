// Offline inspection tool: dumps the keys (and optionally values) held
// in a jurydb database directory. Run against a stopped server only;
// pebble takes an exclusive lock.
package main

import (
	"flag"
	"fmt"
	"os"

	"jurydb/pkg/logger"
	"jurydb/pkg/store"
)

func main() {
	var (
		path   = flag.String("db", "", "path to the pebble store directory (<db_path>/store)")
		prefix = flag.String("prefix", "review:", "key prefix to enumerate")
		values = flag.Bool("values", false, "print stored values as well")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}
	logger.InitWithLevel("error")

	pb, err := store.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open db at %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer pb.Close()

	ks, err := pb.ListKeys(*prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range ks {
		if !*values {
			fmt.Println(k)
			continue
		}
		v, err := pb.Get(k)
		if err != nil {
			fmt.Printf("%s\t<unreadable: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", len(ks))
}
