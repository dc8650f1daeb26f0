package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for sound documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on sound names with English stemming
//  2. Alias matches so manifest nicknames find their clips
//  3. Exact keyword matching for kind/set/ext filters and facets
//  4. Numeric range queries for clip duration
//  5. Term vectors on the name field for highlighting
func buildIndexMapping() mapping.IndexMapping {
	// Create the index mapping
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	// Create document mapping
	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Name field - primary search target, boosted
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Aliases - manifest nicknames, searchable
	aliasesFieldMapping := bleve.NewTextFieldMapping()
	aliasesFieldMapping.Analyzer = en.AnalyzerName
	aliasesFieldMapping.Store = true
	aliasesFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("aliases", aliasesFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	// Kind - system vs custom filtering
	kindFieldMapping := bleve.NewTextFieldMapping()
	kindFieldMapping.Analyzer = keyword.Name
	kindFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("kind", kindFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Slug - exact lookup and prefix autocomplete
	slugFieldMapping := bleve.NewTextFieldMapping()
	slugFieldMapping.Analyzer = keyword.Name
	slugFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("slug", slugFieldMapping)

	// Set - OS library set filtering (Modern, Nano, New, UI)
	setFieldMapping := bleve.NewTextFieldMapping()
	setFieldMapping.Analyzer = keyword.Name
	setFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("set", setFieldMapping)

	// Pack - manifest pack name
	packFieldMapping := bleve.NewTextFieldMapping()
	packFieldMapping.Analyzer = keyword.Name
	packFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("pack", packFieldMapping)

	// Ext - file extension filtering and faceting
	extFieldMapping := bleve.NewTextFieldMapping()
	extFieldMapping.Analyzer = keyword.Name
	extFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("ext", extFieldMapping)

	// Locator - playback handle, returned with every hit
	locatorFieldMapping := bleve.NewTextFieldMapping()
	locatorFieldMapping.Analyzer = keyword.Name
	locatorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("locator", locatorFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	// Duration in seconds - for range filtering
	durationFieldMapping := bleve.NewNumericFieldMapping()
	durationFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("duration", durationFieldMapping)

	// Modification time - for sorting by recency
	modTimeFieldMapping := bleve.NewNumericFieldMapping()
	modTimeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("mod_time", modTimeFieldMapping)

	// Register the document mapping
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
