// Package repository fetches metadata, POMs and artifacts from Maven
// repositories.
//
// # Overview
//
// A [Client] holds an ordered list of repositories. Every lookup tries them
// in order and the first one that has the file wins. Once a repository has
// served a group:artifact, later requests for that group:artifact try it
// first and fall back to the others on failure.
//
// Remote repositories are addressed over HTTP(S) with optional basic-auth
// credentials. Local repositories use a file:// URL (or an absolute path)
// and are read straight from disk, which is how ~/.m2/repository can be used
// as an offline source.
//
// # Integrity
//
// Artifacts and POMs are verified against the published .sha1 file. A
// mismatch is retried once and then reported as CHECKSUM_MISMATCH. What
// happens when no .sha1 is published is controlled by [ChecksumPolicy].
//
// # Retries
//
// All requests go through an [httputil.Policy]. Transport failures, 429 and
// 5xx responses are retried with exponential backoff; 404 and 401/403 are
// not.
//
// # Caching
//
// POMs and maven-metadata.xml documents are stored in a [cache.Cache].
// Release POMs never expire; metadata and snapshot POMs use
// [Options.MetadataTTL].
package repository
