// Package pkg holds the mvnresolve libraries.
//
// # Layout
//
//   - [maven/version]: version ordering and constraints
//   - [maven/pom]: project document parsing, inheritance and interpolation
//   - [maven/repository]: local and remote repository access
//   - [maven/resolver]: coalescing descriptor loads across repositories
//   - [maven/settings]: the subset of settings.xml the resolver reads
//   - [dag], [io], [render/dot]: descriptor graphs and their output
//   - [cache], [httputil]: fetched responses and the HTTP client
//   - [config], [errors], [future], [observability], [server], [buildinfo]
//
// # Data Flow
//
//	coordinate or document location
//	         ↓
//	    resolver (search order, coalescing)
//	         ↓
//	    repository (local directory or remote URL)
//	         ↓
//	    pom.Build (parse, parent, profiles, interpolation, management)
//	         ↓
//	    *pom.Descriptor
package pkg
