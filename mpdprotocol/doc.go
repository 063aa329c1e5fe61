// Package mpdprotocol is a client for the Music Player Daemon protocol.
//
// # Protocol Overview
//
// The protocol is text based and line oriented. A client sends one command
// per line and the server answers with zero or more "key: value" lines
// followed by a terminator:
//
//	Greeting:         OK MPD <major>.<minor>.<micro>\n
//	Request:          <command> [arguments...]\n
//	Success:          <key>: <value>\n ... OK\n
//	Error:            ACK [<code>@<index>] {<command>} <message>\n
//
// List responses repeat a block of fields per entity. Each block starts with
// a defining field such as "file" or "directory".
//
// # Basic Usage
//
//	client := mpdprotocol.NewClient(mpdprotocol.WithLogger(slog.Default()))
//	if err := client.Connect(ctx, "localhost", 6600); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Disconnect()
//
//	if _, err := client.Send(ctx, mpdprotocol.NewPlaylistInfoCommand()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Responses
//
// The result of the last command is decoded lazily. Entities are built one
// block at a time as an iterator reaches them:
//
//	songs := client.Entries()
//	for entry, err := range songs.All() {
//	    if err != nil {
//	        continue // this block did not decode, its siblings still do
//	    }
//	    fmt.Println(entry.File)
//	}
//
// ResultIterator walks the same blocks in both directions and can start at
// any position from -1 (before the first entity) to Size() (after the last).
//
// # Thread Safety
//
// Client is safe for concurrent use. Commands are serialized over the single
// connection. Cancel may be called from any goroutine to abort a slow
// command; Sends fail with ErrCancelled until the next Connect. Conn is the
// unsynchronized connection underneath and must not be shared.
package mpdprotocol
