// Package deepcrawl provides a CLI tool for generating LLM-ready
// documentation from websites. It crawls a documentation site with a
// headless browser, extracts the main content of each page as markdown,
// optionally filters sections by header keywords, and writes a single
// concatenated document suitable for LLM context.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., rod/,
// trafilatura/, sqlite/, tiktoken/).
package deepcrawl
