// Package types defines the Store interface, entity types, configuration, and
// standard errors for the sprintplan storage system. The entity JSON tags are
// the external wire format shared by the export document and the document
// backend; they are stable and must not change between releases.
package types
