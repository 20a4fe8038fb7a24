// Package api exposes the file browser and terminal operations to the editor UI as JSON over
// HTTP. Every operation is a POST whose body carries the same arguments the UI passes, and
// failures cross the boundary as {"error", "kind"} objects.
package api
