// Package siteport migrates content from dynamically rendered websites
// into a bulk-import record set for a destination content-management
// system. It captures rendered pages with a headless browser, extracts
// and deduplicates image assets, sanitizes and classifies the captured
// markup, and assembles a quoted CSV export plus generation summaries.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., rod/,
// goquery/, fs/).
package siteport
