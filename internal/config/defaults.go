package config

import "github.com/MakeNowJust/heredoc/v2"

// NewDefaultConfig returns the baseline configuration that an on-disk
// config is merged over.
func NewDefaultConfig() *Config {
	return &Config{
		Fallback:  "unsorted/{name}",
		Collision: "rename",
		Operation: "move",
		Logging: Logging{
			Enabled: true,
			Level:   "debug",
		},
	}
}

// DefaultConfigYAML is the commented starter config written by `sfo init`.
var DefaultConfigYAML = heredoc.Doc(`
	# sfo configuration
	#
	# Rules are evaluated in order; the first match wins. Destination
	# templates may use {name} (file name), {stem} (name without
	# extension), {ext}, {yyyy}, {mm}, {dd}, and named regex captures.
	# A template ending in "/" keeps the original file name.

	rules:
	  - name: documents
	    type: extension
	    pattern: pdf,doc,docx,odt,txt
	    target_template: "docs/{name}"

	  - name: photos-by-month
	    type: extension
	    pattern: jpg,jpeg,png,gif,heic
	    target_template: "images/{yyyy}/{mm}/{name}"

	  - name: invoices
	    type: regex
	    pattern: "invoice[-_](?P<id>\\d+)"
	    target_template: "finance/invoices/{id}/{name}"

	  - name: stale-downloads
	    type: mtime
	    when: older_than 90 days
	    target_template: "archive/{yyyy}/{name}"

	# Where files land when no rule matches.
	fallback: "unsorted/{name}"

	# rename | overwrite | skip
	collision: rename

	# move | copy
	operation: move

	# Globs matched against the path relative to the source root.
	ignore:
	  - "**/.DS_Store"
	  - "**/*.tmp"

	# Stage files through this directory before their final move. Leave
	# empty to move directly.
	trash_dir: ""

	logging:
	  enabled: true
	  level: debug
`)
