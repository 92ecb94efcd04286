// Package domain contains the core types of tofscope.
//
// This package defines:
//   - Tracker hits and their wire form (HitRecord, HitInput, EventInput)
//   - Momentum estimates, tagged as ok or undefined with a reason
//   - Event results and their persisted summaries
//   - Runs, run statistics and detector snapshots
//   - Geometry building blocks (Material, Box, LogicalVolume, Placement)
//
// Domain types are persistence-agnostic. Units are mm, ns and MeV throughout.
package domain
