// Package handlers provides the HTTP API of the photo journal.
//
// It includes handlers for:
//   - Health, liveness and version
//   - The grouped timeline, scroll samples and refresh
//   - Photo selection, date restriction and capture injection
//   - Diary entry creation and deletion
//   - Thumbnails served through the decoded thumbnail cache
//   - A websocket stream that pushes the view model after every change
package handlers
