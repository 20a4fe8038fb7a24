// Package browse provides the ls and cat commands that expose the file browser on the command line.
package browse
