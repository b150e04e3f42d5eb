// Package models defines the persistent entities of the housing-loss upload service.
//
//   - [Session] : one browser session, owning a workspace directory and the tool's run status
//   - [Upload] : a CSV accepted into a session's workspace, tagged with its category
//
// All entities implement the [Model] interface providing IDs, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
