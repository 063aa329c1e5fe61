// =============================================================================
// render.go - Result Rendering
// =============================================================================
//
// Prints command results for the REPL. A result holding song or directory
// blocks is shown as a numbered listing:
//
//	Albums/
//	  1. Artist - Title [3:25]
//	  2. Other Title [0:42]
//
// Directories come first, then songs. With reverse on, each group is printed
// from last to first, walking the result backwards block by block. Results
// without such blocks (status, stats, ...) are printed as raw "key: value"
// lines.
//
// Blocks are decoded one at a time. A block that does not decode is shown as
// an error line in its place and the listing continues.
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mpdcomm/mpdcomm/mpdprotocol"
)

// renderResult prints result to w.
func renderResult(w io.Writer, result mpdprotocol.CommandResult, reverse bool) {
	dirs := mpdprotocol.NewDirectoryResponse(result)
	songs := mpdprotocol.NewEntryResponse(result)
	if dirs.IsEmpty() && songs.IsEmpty() {
		renderRaw(w, result)
		return
	}
	renderDirectories(w, dirs, reverse)
	renderEntries(w, songs, reverse)
}

// renderRaw prints every field of result, or "OK" when there are none.
func renderRaw(w io.Writer, result mpdprotocol.CommandResult) {
	if result.IsEmpty() {
		fmt.Fprintln(w, "OK")
		return
	}
	for key, value := range result.Fields() {
		fmt.Fprintf(w, "%s%s%s\n", key, mpdprotocol.FieldSeparator, value)
	}
}

// GO CONCEPT: Generic Iterators
// -----------------------------
// ResultIterator[T] is a generic type: the same stepping code serves
// ResultIterator[Entry] and ResultIterator[Directory]. The type parameter
// is inferred from the response it came from, so call sites never spell it
// out. eachBlock below is itself generic over T for the same reason.

// eachBlock walks the blocks of resp forward or backward, calling fn with
// the block's index and its decoded value or decode error.
func eachBlock[T any](resp *mpdprotocol.ObjectResponse[T], reverse bool, fn func(index int, v T, err error)) {
	if reverse {
		it := resp.Iterator(false)
		for it.HasPrevious() {
			index := it.PreviousIndex()
			v, err := it.Previous()
			fn(index, v, err)
		}
		return
	}
	it := resp.Iterator(true)
	for it.HasNext() {
		index := it.NextIndex()
		v, err := it.Next()
		fn(index, v, err)
	}
}

// renderDirectories prints one "path/" line per directory.
func renderDirectories(w io.Writer, dirs *mpdprotocol.ObjectResponse[mpdprotocol.Directory], reverse bool) {
	eachBlock(dirs, reverse, func(_ int, d mpdprotocol.Directory, err error) {
		if err != nil {
			fmt.Fprintf(w, "<%v>\n", err)
			return
		}
		fmt.Fprintf(w, "%s/\n", d.Path)
	})
}

// renderEntries prints one numbered line per song. Numbers are the 1-based
// position in the result and stay the same in reverse.
func renderEntries(w io.Writer, songs *mpdprotocol.ObjectResponse[mpdprotocol.Entry], reverse bool) {
	eachBlock(songs, reverse, func(index int, e mpdprotocol.Entry, err error) {
		if err != nil {
			fmt.Fprintf(w, "%3d. <%v>\n", index+1, err)
			return
		}
		fmt.Fprintf(w, "%3d. %s\n", index+1, formatEntry(e))
	})
}

// formatEntry returns "Artist - Title [m:ss]", leaving out what is unknown.
func formatEntry(e mpdprotocol.Entry) string {
	s := e.DisplayTitle()
	if e.Artist != "" {
		s = e.Artist + " - " + s
	}
	if e.Duration > 0 {
		s += " [" + formatDuration(e.Duration) + "]"
	}
	return s
}

// formatDuration formats d as m:ss, or h:mm:ss from one hour on.
func formatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// renderError prints a command failure in the form most useful to a user.
func renderError(w io.Writer, err error) {
	var ack *mpdprotocol.ProtocolError
	switch {
	case errors.As(err, &ack):
		fmt.Fprintf(w, "ACK [%d@%d] {%s} %s\n", int(ack.Code), ack.ListIndex, ack.Command, ack.Message)
	case errors.Is(err, mpdprotocol.ErrCancelled):
		fmt.Fprintln(w, "cancelled")
	case errors.Is(err, mpdprotocol.ErrNotConnected):
		fmt.Fprintln(w, "Error: not connected (use .connect)")
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
