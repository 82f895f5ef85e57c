// Package version orders Maven version strings and evaluates version ranges.
//
// # Ordering
//
// [Compare] follows Maven's ComparableVersion rules rather than semver:
// versions are split into numeric and qualifier tokens at '.', '-' and at
// digit/letter transitions, trailing zero and release tokens are dropped, and
// well-known qualifiers sort as
//
//	alpha < beta < milestone < rc < snapshot < (release) < sp
//
// Unknown qualifiers sort after "sp", alphabetically. Numeric tokens sort
// above any qualifier, so "1.0.1" > "1.0-sp" > "1.0" > "1.0-rc1".
//
// # Ranges
//
// [ParseRange] understands Maven range syntax:
//
//	1.0            soft requirement, no restriction
//	[1.0]          exactly 1.0
//	[1.0,2.0)      1.0 <= v < 2.0
//	(,1.5]         v <= 1.5
//	(,1.0],[1.2,)  union of restrictions
//
// [Range.Select] picks the highest available version inside the range.
package version
