// Package pom reads Maven POM descriptors and computes effective models.
//
// # Parsing
//
// [Parse] decodes the subset of pom.xml that matters for dependency
// resolution: coordinates, parent, properties, dependencyManagement,
// dependencies (with scope, type, classifier, optional flag and exclusions)
// and distributionManagement relocations.
//
// # Effective Model
//
// [Build] turns a raw [Project] into a [Model]:
//
//  1. Walk the parent chain through a [Loader] (bounded and cycle-guarded)
//  2. Merge properties, dependencies and dependencyManagement, child first
//  3. Import scope=import BOMs into dependencyManagement
//  4. Interpolate ${...} expressions
//  5. Fill missing versions and scopes from dependencyManagement
//
// Dependencies keep their declaration order, which conflict resolution uses
// as the tie-breaker between declarations at the same depth.
package pom
