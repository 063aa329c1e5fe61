package mpdprotocol

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Response field names.
const (
	FieldFile         = "file"
	FieldDirectory    = "directory"
	FieldPlaylist     = "playlist"
	FieldTime         = "Time"
	FieldDuration     = "duration"
	FieldLastModified = "Last-Modified"
	FieldPos          = "Pos"
	FieldID           = "Id"
	FieldArtist       = "Artist"
	FieldAlbumArtist  = "AlbumArtist"
	FieldAlbum        = "Album"
	FieldTitle        = "Title"
	FieldName         = "Name"
	FieldGenre        = "Genre"
	FieldDate         = "Date"
	FieldTrack        = "Track"
	FieldDisc         = "Disc"
	FieldComposer     = "Composer"
	FieldCommand      = "command"
)

// EntryBlockTokens are the fields that start a database entity. Any of them
// terminates the block of the entity before it.
var EntryBlockTokens = []string{FieldFile, FieldDirectory, FieldPlaylist}

var (
	errMissingBlockStart = errors.New("block does not start with its defining field")
	errMissingSeparator  = errors.New("line has no field separator")
	errEmptyValue        = errors.New("empty value")
)

// Entry is a song entry decoded from one "file" block. Queue listings also
// carry the queue position and song id; both are -1 for database entries.
type Entry struct {
	File         string
	Duration     time.Duration
	LastModified time.Time
	Artist       string
	AlbumArtist  string
	Album        string
	Title        string
	Name         string
	Genre        string
	Date         string
	Track        string
	Disc         string
	Composer     string
	Pos          int
	ID           int

	// Tags holds every field of the block in order of appearance, including
	// the ones mapped to struct fields above.
	Tags map[string][]string
}

// DisplayTitle returns the title, falling back to the stream name and then
// the file's base name.
func (e Entry) DisplayTitle() string {
	switch {
	case e.Title != "":
		return e.Title
	case e.Name != "":
		return e.Name
	}
	if i := strings.LastIndexByte(e.File, '/'); i >= 0 {
		return e.File[i+1:]
	}
	return e.File
}

// maxDurationSeconds is the largest song length a time.Duration can hold.
// The float conversion rounds it up to 2^63 ns, so the bound is exclusive.
var maxDurationSeconds = math.Nextafter(time.Duration(math.MaxInt64).Seconds(), 0)

// DecodeEntry decodes a song block. The block must start with a non-empty
// "file" line and every line must be a "key: value" pair.
func DecodeEntry(block string) (Entry, error) {
	e := Entry{Pos: -1, ID: -1, Tags: make(map[string][]string)}
	var timeSeen bool

	err := decodeBlock("entry", FieldFile, block, func(key, value, line string) error {
		e.Tags[key] = append(e.Tags[key], value)
		switch key {
		case FieldFile:
			e.File = value
		case FieldDuration:
			secs, err := strconv.ParseFloat(value, 64)
			if err != nil || secs < 0 || math.IsNaN(secs) || secs > maxDurationSeconds {
				return decodeFieldError("entry", key, line, err)
			}
			e.Duration = time.Duration(secs * float64(time.Second))
			timeSeen = true
		case FieldTime:
			secs, err := strconv.ParseInt(value, 10, 64)
			if err != nil || secs < 0 || secs > math.MaxInt64/int64(time.Second) {
				return decodeFieldError("entry", key, line, err)
			}
			if !timeSeen {
				e.Duration = time.Duration(secs) * time.Second
			}
		case FieldLastModified:
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return decodeFieldError("entry", key, line, err)
			}
			e.LastModified = t
		case FieldPos:
			n, err := strconv.Atoi(value)
			if err != nil {
				return decodeFieldError("entry", key, line, err)
			}
			e.Pos = n
		case FieldID:
			n, err := strconv.Atoi(value)
			if err != nil {
				return decodeFieldError("entry", key, line, err)
			}
			e.ID = n
		case FieldArtist:
			e.Artist = firstValue(e.Artist, value)
		case FieldAlbumArtist:
			e.AlbumArtist = firstValue(e.AlbumArtist, value)
		case FieldAlbum:
			e.Album = firstValue(e.Album, value)
		case FieldTitle:
			e.Title = firstValue(e.Title, value)
		case FieldName:
			e.Name = firstValue(e.Name, value)
		case FieldGenre:
			e.Genre = firstValue(e.Genre, value)
		case FieldDate:
			e.Date = firstValue(e.Date, value)
		case FieldTrack:
			e.Track = firstValue(e.Track, value)
		case FieldDisc:
			e.Disc = firstValue(e.Disc, value)
		case FieldComposer:
			e.Composer = firstValue(e.Composer, value)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Directory is a database directory decoded from one "directory" block.
type Directory struct {
	Path         string
	LastModified time.Time
}

// Name returns the last path element.
func (d Directory) Name() string {
	if i := strings.LastIndexByte(d.Path, '/'); i >= 0 {
		return d.Path[i+1:]
	}
	return d.Path
}

// DecodeDirectory decodes a directory block.
func DecodeDirectory(block string) (Directory, error) {
	var d Directory
	err := decodeBlock("directory", FieldDirectory, block, func(key, value, line string) error {
		switch key {
		case FieldDirectory:
			d.Path = value
		case FieldLastModified:
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return decodeFieldError("directory", key, line, err)
			}
			d.LastModified = t
		}
		return nil
	})
	if err != nil {
		return Directory{}, err
	}
	return d, nil
}

// decodeBlock walks the lines of block, checking that the first one is a
// non-empty startField line, and hands each pair to field.
func decodeBlock(entity, startField, block string, field func(key, value, line string) error) error {
	rest := block
	first := true
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		key, value, ok := SplitField(line)
		if !ok {
			if first {
				return &DecodeError{Entity: entity, Line: line, Cause: errMissingBlockStart}
			}
			return &DecodeError{Entity: entity, Line: line, Cause: errMissingSeparator}
		}
		if first {
			if key != startField {
				return &DecodeError{Entity: entity, Field: key, Line: line, Cause: errMissingBlockStart}
			}
			if value == "" {
				return &DecodeError{Entity: entity, Field: key, Line: line, Cause: errEmptyValue}
			}
			first = false
		}
		if err := field(key, value, line); err != nil {
			return err
		}
	}
	if first {
		return &DecodeError{Entity: entity, Cause: errMissingBlockStart}
	}
	return nil
}

func decodeFieldError(entity, field, line string, cause error) error {
	if cause == nil {
		cause = errors.New("value out of range")
	}
	return &DecodeError{Entity: entity, Field: field, Line: line, Cause: cause}
}

func firstValue(current, value string) string {
	if current != "" {
		return current
	}
	return value
}
