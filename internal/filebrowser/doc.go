// Package filebrowser serves the file tree of the editor: shallow, sorted
// directory listings that leave children for lazy expansion, and whole-file
// reads decoded as best-effort text.
package filebrowser
