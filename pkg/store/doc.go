// Package store keeps downloaded artifacts in a Maven local-repository
// layout on disk.
//
// Each artifact lives at its repository path under the store root, next to
// a ".sha1" sidecar holding its checksum:
//
//	<root>/org/example/lib/1.0/lib-1.0.jar
//	<root>/org/example/lib/1.0/lib-1.0.jar.sha1
//
// Writes go to a temporary file in the target directory and are renamed
// into place, so a reader never observes a partially written artifact and a
// cancelled download leaves nothing behind. [Store.Put] is idempotent for
// identical bytes and reports CACHE_CORRUPTION when different bytes already
// occupy the path.
//
// The layout is compatible with ~/.m2/repository, so a store directory can
// also be served to other tools as a file:// repository.
package store
