// Command fltcat dumps the records of an ACMI flight recording (.flt) as
// JSON lines, one record per line. Useful for eyeballing recordings a
// converter rejects.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fltvhs/recorder/pkg/acmi"
)

// line is the JSON shape of one dumped record.
type line struct {
	Time float32 `json:"time"`
	Tag  string  `json:"tag"`
	Data any     `json:"data"`
}

// callsignEntry is the readable form of a callsign list entry; the raw
// entry holds the label as fixed-width bytes.
type callsignEntry struct {
	UID       int    `json:"uid"`
	Label     string `json:"label"`
	TeamColor int32  `json:"teamColor"`
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: fltcat file.flt ...")
		return 2
	}

	exitCode := 0
	for _, path := range flag.Args() {
		if err := dump(path); err != nil {
			fmt.Fprintf(os.Stderr, "fltcat: %s: %v\n", path, err)
			exitCode = 1
		}
	}
	return exitCode
}

func dump(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	count := 0
	s := acmi.NewStream(buf)
	for s.Next() {
		rec := s.Record()
		count++

		data := any(rec.Data)
		if list, ok := rec.Data.(acmi.CallsignList); ok {
			data = readableCallsigns(list)
		}
		if err := enc.Encode(line{
			Time: rec.Time,
			Tag:  rec.Data.Tag().String(),
			Data: data,
		}); err != nil {
			return err
		}
	}

	if err := s.Err(); err != nil {
		return fmt.Errorf("recording is corrupt after %d records at offset %d: %w",
			count, s.Offset(), err)
	}
	return nil
}

// readableCallsigns drops empty entries and decodes labels to strings.
func readableCallsigns(list acmi.CallsignList) []callsignEntry {
	entries := make([]callsignEntry, 0, len(list.Callsigns))
	for uid, c := range list.Callsigns {
		label := c.LabelString()
		if label == "" && c.TeamColor == 0 {
			continue
		}
		entries = append(entries, callsignEntry{
			UID:       uid,
			Label:     label,
			TeamColor: c.TeamColor,
		})
	}
	return entries
}
